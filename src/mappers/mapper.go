// backend/src/mappers/mapper.go
package mappers

import "strings"

// Synonym binds one free-text token to a canonical value. Table order
// matters: the substring phase returns the first declared hit, which
// keeps mapping decisions deterministic and auditable.
type Synonym struct {
	Token     string
	Canonical string
}

// Mapper resolves free-text source strings onto a closed vocabulary.
// Source exports are free text entered by humans over years, so mapping
// must never hard-fail: the two-phase lookup (exact, then substring in
// declaration order) always falls back to the configured default.
type Mapper struct {
	exact    map[string]string
	ordered  []Synonym
	fallback string
}

// NewMapper builds a mapper from an immutable synonym table. Tokens are
// stored lowercased; duplicate tokens keep their first binding.
func NewMapper(table []Synonym, fallback string) *Mapper {
	m := &Mapper{
		exact:    make(map[string]string, len(table)),
		ordered:  make([]Synonym, 0, len(table)),
		fallback: fallback,
	}
	for _, syn := range table {
		token := strings.ToLower(strings.TrimSpace(syn.Token))
		if token == "" {
			continue
		}
		if _, dup := m.exact[token]; !dup {
			m.exact[token] = syn.Canonical
		}
		m.ordered = append(m.ordered, Synonym{Token: token, Canonical: syn.Canonical})
	}
	return m
}

// Map resolves raw to a canonical value. Exact lookup first; failing
// that, the first table entry whose token is a substring of the input or
// of which the input is a substring; failing both, the fallback.
func (m *Mapper) Map(raw string) string {
	key := strings.ToLower(strings.TrimSpace(raw))
	if key == "" {
		return m.fallback
	}
	if canonical, ok := m.exact[key]; ok {
		return canonical
	}
	for _, syn := range m.ordered {
		if strings.Contains(key, syn.Token) || strings.Contains(syn.Token, key) {
			return syn.Canonical
		}
	}
	return m.fallback
}
