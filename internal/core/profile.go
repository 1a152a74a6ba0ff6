package core

import "strings"

// Profile is the user-curated settings document. It is fetched and replaced
// wholesale on the wire; there is no partial-field merge.
type Profile struct {
	Name       string   `json:"name"`
	Categories []string `json:"categories"`
	Currency   string   `json:"currency"`
}

// AddCategory appends a category, enforcing set semantics client-side:
// adding an existing category is a no-op and relative order is preserved.
func (p *Profile) AddCategory(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyCategory
	}
	for _, c := range p.Categories {
		if c == name {
			return ErrDuplicateCategory
		}
	}
	p.Categories = append(p.Categories, name)
	return nil
}

// RemoveCategory deletes a category by exact name. Removing a category that
// is not present is a no-op.
func (p *Profile) RemoveCategory(name string) bool {
	for i, c := range p.Categories {
		if c == name {
			p.Categories = append(p.Categories[:i], p.Categories[i+1:]...)
			return true
		}
	}
	return false
}

// HasCategory reports whether the profile already contains the category.
func (p *Profile) HasCategory(name string) bool {
	for _, c := range p.Categories {
		if c == name {
			return true
		}
	}
	return false
}
