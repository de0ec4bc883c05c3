// backend/src/parsers/fields.go
package parsers

import "strings"

// Row is one tokenized CSV record keyed by its header columns.
type Row map[string]string

// HeaderRow builds the key set for subsequent rows. Keys are stored
// canonicalized (lowercased, internal whitespace removed) so lookups are
// insensitive to the header casing and spacing of whichever export
// variant produced the file.
func HeaderRow(header []string) []string {
	keys := make([]string, len(header))
	for i, h := range header {
		keys[i] = canonicalKey(h)
	}
	return keys
}

// MapRow zips a data row against the canonicalized header keys.
// Short rows leave trailing columns absent; extra cells are dropped.
func MapRow(keys []string, record []string) Row {
	row := make(Row, len(keys))
	for i, key := range keys {
		if i < len(record) {
			row[key] = record[i]
		}
	}
	return row
}

// ResolveField returns the first non-empty value among the candidate
// column names, matched case- and whitespace-insensitively. The export
// format is not controlled by this system, so synonyms like "Vendor",
// "Payee", and "Paid To" must all resolve to the same logical field;
// candidate order encodes priority when several columns are present.
func ResolveField(row Row, candidates ...string) string {
	for _, name := range candidates {
		if v, ok := row[canonicalKey(name)]; ok {
			v = strings.TrimSpace(v)
			if v != "" {
				return v
			}
		}
	}
	return ""
}

func canonicalKey(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), ""))
}
