// backend/src/parsers/tokenizer.go
package parsers

import "strings"

// Tokenize splits raw CSV text into rows of trimmed field strings.
//
// Exports from the source accounting system do not follow encoding/csv's
// strict rules: fields may carry surrounding whitespace that must be
// dropped, files start with a UTF-8 BOM, and a truncated export can end
// inside an open quote. So the tokenizer is explicit about the rules:
// a double quote toggles quoted mode, a doubled quote inside a quoted
// field is a literal quote, and \n, \r\n, or a bare \r terminate a row
// only outside quotes. An unterminated quote at end of input is closed
// implicitly rather than reported. Whitespace-only rows are dropped.
func Tokenize(text string) [][]string {
	text = strings.TrimPrefix(text, "\ufeff")

	var (
		rows     [][]string
		fields   []string
		field    strings.Builder
		inQuotes bool
	)

	endField := func() {
		fields = append(fields, strings.TrimSpace(field.String()))
		field.Reset()
	}
	endRow := func() {
		endField()
		rows = append(rows, fields)
		fields = nil
	}

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		switch {
		case c == '"':
			if inQuotes && i+1 < len(runes) && runes[i+1] == '"' {
				field.WriteRune('"') // escaped literal quote
				i++
			} else {
				inQuotes = !inQuotes
			}
		case c == ',' && !inQuotes:
			endField()
		case (c == '\n' || c == '\r') && !inQuotes:
			if c == '\r' && i+1 < len(runes) && runes[i+1] == '\n' {
				i++
			}
			endRow()
		default:
			field.WriteRune(c)
		}
	}
	// Implicit close: flush whatever is pending, including an open quote.
	if field.Len() > 0 || len(fields) > 0 {
		endRow()
	}

	return dropBlankRows(rows)
}

func dropBlankRows(rows [][]string) [][]string {
	out := rows[:0]
	for _, row := range rows {
		if !isBlankRow(row) {
			out = append(out, row)
		}
	}
	return out
}

func isBlankRow(row []string) bool {
	for _, f := range row {
		if f != "" {
			return false
		}
	}
	return true
}
