package ingest

import "strings"

// Candidate delimiters in tie-break order.
var delimiters = []rune{',', ';', '\t'}

// SniffDelimiter picks the most frequent of comma, semicolon and tab in the
// header line. Ties go to the earlier candidate; no candidate means comma.
func SniffDelimiter(header string) rune {
	best, bestCount := ',', 0
	for _, d := range delimiters {
		if n := strings.Count(header, string(d)); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}

// SplitFields splits one line on delim, honouring double-quoted fields. A
// doubled quote inside quotes yields one literal quote. Fields are trimmed.
func SplitFields(line string, delim rune) []string {
	var (
		fields  []string
		current strings.Builder
		quoted  bool
	)
	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '"' && quoted && i+1 < len(runes) && runes[i+1] == '"':
			current.WriteRune('"')
			i++
		case r == '"':
			quoted = !quoted
		case r == delim && !quoted:
			fields = append(fields, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	return append(fields, strings.TrimSpace(current.String()))
}
