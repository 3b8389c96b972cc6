// Package csvline tokenizes single lines of comma-separated values.
//
// The spreadsheet export is consumed line by line, and its producers are
// sloppier than encoding/csv tolerates: fields carry stray whitespace and
// quoting is occasionally unbalanced. Parse therefore trims every field and
// treats an unterminated quote as "rest of line is one field" instead of
// returning an error.
package csvline

import "strings"

// Parse splits one CSV line into trimmed fields. A double quote toggles
// quoted mode; a doubled quote inside a quoted field decodes to one literal
// quote; commas split fields only outside quotes. Parse never fails.
func Parse(line string) []string {
	var (
		fields   []string
		current  strings.Builder
		inQuotes bool
	)

	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '"':
			if inQuotes && i+1 < len(line) && line[i+1] == '"' {
				current.WriteByte('"')
				i++
			} else {
				inQuotes = !inQuotes
			}
		case c == ',' && !inQuotes:
			fields = append(fields, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteByte(c)
		}
	}
	fields = append(fields, strings.TrimSpace(current.String()))

	return fields
}
