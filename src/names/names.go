// backend/src/names/names.go
package names

import "strings"

// Normalize lowercases a display name, collapses internal whitespace
// runs to a single space, and trims. Two names refer to the same entity
// iff their normalized forms are equal. No fuzzy matching is performed:
// misattributing a payment costs more than failing to match, so this is
// exact-after-normalization only.
func Normalize(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// Slug converts a display name to a store-key-safe token, e.g.
// "Jane  Doe" -> "jane-doe". Used as the deterministic document key for
// entities so re-imports address the same record.
func Slug(name string) string {
	return strings.ReplaceAll(Normalize(name), " ", "-")
}

// SplitDisplayName splits a customer-export name into first and last.
// "Last, First" is the export's preferred form; otherwise the final
// space-separated token is taken as the last name.
func SplitDisplayName(name string) (first, last string) {
	name = strings.TrimSpace(name)
	if i := strings.Index(name, ","); i >= 0 {
		last = strings.TrimSpace(name[:i])
		first = strings.TrimSpace(name[i+1:])
		return first, last
	}
	fields := strings.Fields(name)
	switch len(fields) {
	case 0:
		return "", ""
	case 1:
		return fields[0], ""
	default:
		return strings.Join(fields[:len(fields)-1], " "), fields[len(fields)-1]
	}
}

// DisplayName rebuilds "First Last" from a possibly "Last, First" input.
func DisplayName(name string) string {
	first, last := SplitDisplayName(name)
	return strings.TrimSpace(first + " " + last)
}

// DefaultDenylist names the known non-person counterparties that appear
// in customer exports: businesses, sponsors, and the bookkeeping
// system's own sample customer. Denylisted names are routed to the
// sponsor path and must never become person entities.
var DefaultDenylist = []string{
	"Sample Customer",
	"Acme Sporting Goods",
	"Main Street Pizza",
	"Riverside Bank",
	"City Parks Department",
	"Booster Club General",
}

// Matcher answers denylist membership for display names, insensitive to
// casing and whitespace.
type Matcher struct {
	denied map[string]struct{}
}

// NewMatcher builds a matcher from an injected denylist so deployments
// can add local businesses without code changes.
func NewMatcher(denylist []string) *Matcher {
	m := &Matcher{denied: make(map[string]struct{}, len(denylist))}
	for _, name := range denylist {
		m.denied[Normalize(name)] = struct{}{}
	}
	return m
}

// IsDenied reports whether the name is a known non-person entity.
func (m *Matcher) IsDenied(name string) bool {
	_, ok := m.denied[Normalize(name)]
	return ok
}

// Match reports whether two display names identify the same entity.
func Match(a, b string) bool {
	return Normalize(a) == Normalize(b)
}
