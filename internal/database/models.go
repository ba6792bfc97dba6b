package database

import (
	"time"
)

// Book is a library title. ID is the identity key derived from the local
// title and author set.
type Book struct {
	ID             string `gorm:"primaryKey;size:36"`
	Title          string `gorm:"not null"`
	ExternalTitle  string
	Description    string `gorm:"type:text"`
	ExternalLink   string `gorm:"index"`
	CoverImageLink string
	Location       string
	FetchAttempted bool `gorm:"not null;index"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Author is a person credited on one or more books
type Author struct {
	ID           string `gorm:"primaryKey;size:36"`
	Name         string `gorm:"not null"`
	Description  string `gorm:"type:text"`
	ImageLink    string
	Website      string
	Born         string
	Died         string
	Influences   string `gorm:"type:text"`
	Genre        string
	Twitter      string
	External     bool   `gorm:"not null"`
	ExternalLink string `gorm:"index"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Series groups books in reading order
type Series struct {
	ID           string `gorm:"primaryKey;size:36"`
	Name         string `gorm:"not null"`
	Description  string `gorm:"type:text"`
	ExternalLink string `gorm:"index"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName keeps the singular-looking plural stable across dialects
func (Series) TableName() string { return "series" }

// Genre is a shelf label from the external source
type Genre struct {
	ID   string `gorm:"primaryKey;size:36"`
	Name string `gorm:"not null"`
}

// AuthorLink credits an author on a book with a role
type AuthorLink struct {
	BookID   string `gorm:"primaryKey;size:36"`
	AuthorID string `gorm:"primaryKey;size:36"`
	Role     string `gorm:"size:32"`
}

// SeriesLink places a book in a series at a volume label
type SeriesLink struct {
	BookID   string `gorm:"primaryKey;size:36"`
	SeriesID string `gorm:"primaryKey;size:36"`
	Volume   string `gorm:"size:32"`
}

// GenreLink tags a book with a genre
type GenreLink struct {
	BookID  string `gorm:"primaryKey;size:36"`
	GenreID string `gorm:"primaryKey;size:36"`
}

// Image holds downloaded image bytes keyed by the owning entity's ID
type Image struct {
	ID        string `gorm:"primaryKey;size:36"`
	Data      []byte
	UpdatedAt time.Time
}
