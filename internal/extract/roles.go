package extract

import "strings"

// Role is an author's contribution to a book.
type Role string

const (
	RoleAuthor      Role = "Author"
	RoleEditor      Role = "Editor"
	RoleTranslator  Role = "Translator"
	RoleForeword    Role = "Foreword"
	RoleContributor Role = "Contributor"
	RoleIllustrator Role = "Illustrator"
	RoleNarrator    Role = "Narrator"
	// RoleUnknown marks credits created before any lookup
	RoleUnknown Role = "Unknown"
)

// roleTable is checked in order; every matching row yields a credit.
var roleTable = []struct {
	substring string
	role      Role
}{
	{"author", RoleAuthor},
	{"editor", RoleEditor},
	{"translator", RoleTranslator},
	{"foreword", RoleForeword},
	{"introduction", RoleForeword},
	{"contributor", RoleContributor},
	{"illustrator", RoleIllustrator},
	{"narrator", RoleNarrator},
}

// Classify returns the roles named by a descriptor such as "(Editor,
// Translator)". Each role appears once. A descriptor naming no known role
// yields Author.
func Classify(descriptor string) []Role {
	d := strings.ToLower(descriptor)

	var roles []Role
	seen := make(map[Role]bool)
	for _, row := range roleTable {
		if strings.Contains(d, row.substring) && !seen[row.role] {
			seen[row.role] = true
			roles = append(roles, row.role)
		}
	}
	if len(roles) == 0 {
		return []Role{RoleAuthor}
	}
	return roles
}
