// Package images downloads cover and author images into the image store.
package images

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"

	"github.com/superversivesf/saga-importer/internal/database"
	"github.com/superversivesf/saga-importer/internal/logger"
	"github.com/superversivesf/saga-importer/internal/util"
)

// DefaultMaxBytes caps a single image download.
const DefaultMaxBytes int64 = 10 << 20

var (
	// ErrTooLarge is returned when an image exceeds the size cap.
	ErrTooLarge = errors.New("image too large")
	// ErrNotImage is returned when the payload is not an image.
	ErrNotImage = errors.New("payload is not an image")
)

// Store is where downloaded images are kept, keyed by the owning entity.
type Store interface {
	GetImage(ctx context.Context, id string) (*database.Image, error)
	SaveImage(ctx context.Context, img *database.Image) error
}

// Downloader fetches images over HTTP.
type Downloader struct {
	client    *http.Client
	userAgent string
	maxBytes  int64
	pacer     *util.Pacer
	log       *logger.Logger
}

// Option configures a Downloader.
type Option func(*Downloader)

// WithMaxBytes overrides the size cap.
func WithMaxBytes(n int64) Option {
	return func(d *Downloader) {
		if n > 0 {
			d.maxBytes = n
		}
	}
}

// WithPacer delays each download through p.
func WithPacer(p *util.Pacer) Option {
	return func(d *Downloader) { d.pacer = p }
}

// WithLogger sets the logger.
func WithLogger(log *logger.Logger) Option {
	return func(d *Downloader) {
		if log != nil {
			d.log = log
		}
	}
}

// NewDownloader creates a Downloader. A nil client uses http.DefaultClient.
func NewDownloader(client *http.Client, userAgent string, opts ...Option) *Downloader {
	if client == nil {
		client = http.DefaultClient
	}
	d := &Downloader{
		client:    client,
		userAgent: userAgent,
		maxBytes:  DefaultMaxBytes,
		log:       logger.Get(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Fetch downloads the image at url and checks that it is one.
func (d *Downloader) Fetch(ctx context.Context, url string) ([]byte, error) {
	if d.pacer != nil {
		if err := d.pacer.Wait(ctx); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if d.userAgent != "" {
		req.Header.Set("User-Agent", d.userAgent)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}
	if resp.ContentLength > d.maxBytes {
		return nil, fmt.Errorf("%w: %s", ErrTooLarge, humanize.Bytes(uint64(resp.ContentLength)))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, d.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	if int64(len(data)) > d.maxBytes {
		return nil, fmt.Errorf("%w: exceeds %s", ErrTooLarge, humanize.Bytes(uint64(d.maxBytes)))
	}

	if mt := mimetype.Detect(data); !strings.HasPrefix(mt.String(), "image/") {
		return nil, fmt.Errorf("%w: %s", ErrNotImage, mt.String())
	}
	return data, nil
}

// Store downloads url into the store under id unless an image is already
// stored there. It reports whether a new image was saved.
func (d *Downloader) Store(ctx context.Context, store Store, id, url string) (bool, error) {
	if url == "" {
		return false, nil
	}

	_, err := store.GetImage(ctx, id)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return false, err
	}

	data, err := d.Fetch(ctx, url)
	if err != nil {
		return false, err
	}
	if err := store.SaveImage(ctx, &database.Image{ID: id, Data: data}); err != nil {
		return false, err
	}

	d.log.Debug("Stored image", map[string]interface{}{
		"id":   id,
		"url":  url,
		"size": humanize.Bytes(uint64(len(data))),
	})
	return true, nil
}
