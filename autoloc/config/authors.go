package config

import (
	"fmt"

	"github.com/go-ini/ini"
)

// AuthorList is the ordered allow-list of pick authors the associator
// trusts, loaded from an INI file with a single [authors] section
// whose keys are author names; an author's rank is its key's position
// in the section (the values are not read). Grounded on calnex/config/config.go's
// use of go-ini/ini for section-keyed settings.
type AuthorList struct {
	order map[string]int
}

// LoadAuthorList reads path and returns the author priority map; an
// author absent from the file is treated as untrusted by Priority.
func LoadAuthorList(path string) (*AuthorList, error) {
	f, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading author list %q: %w", path, err)
	}
	sec, err := f.GetSection("authors")
	if err != nil {
		return nil, fmt.Errorf("author list %q: missing [authors] section: %w", path, err)
	}
	al := &AuthorList{order: make(map[string]int)}
	for i, key := range sec.Keys() {
		al.order[key.Name()] = i
	}
	return al, nil
}

// Priority returns the author's rank (lower is more trusted) and
// whether the author is present in the list at all.
func (a *AuthorList) Priority(author string) (int, bool) {
	p, ok := a.order[author]
	return p, ok
}

// PickPriority returns the priority value a Pick from author should
// carry: 0 if author is not in the allow-list at all ("do not
// auto-process"), otherwise a positive, trust-ordered value where
// higher means more trusted -- the inverse of Priority's rank, so that
// the first-listed (most trusted) author gets the highest value.
func (a *AuthorList) PickPriority(author string) int {
	rank, ok := a.order[author]
	if !ok {
		return 0
	}
	return len(a.order) - rank
}
