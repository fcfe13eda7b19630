package corpus

import (
	"bytes"
	"fmt"
	"slices"
	"strings"

	"movieqa/internal/models"
)

// Delimiter separates CSV values. Quoting and escaping are not supported:
// a comma inside a value splits it.
const Delimiter = ","

// ParseError reports a malformed CSV line (1-based, header is line 1).
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	if e.Line == 0 {
		return "csv: " + e.Msg
	}
	return fmt.Sprintf("csv line %d: %s", e.Line, e.Msg)
}

// ParseCSV turns the dataset into movies. The first line names the fields;
// blank lines are skipped and no value is type-converted.
//
// In strict mode the header must contain a title column and every row must
// have exactly as many values as the header. Otherwise short rows read as
// empty values and extra values are dropped.
func ParseCSV(data []byte, strict bool) ([]models.Movie, error) {
	lines := strings.Split(string(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))), "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) == "" {
		return nil, &ParseError{Msg: "missing header line"}
	}
	header := strings.Split(lines[0], Delimiter)
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	if strict && !slices.Contains(header, "title") {
		return nil, &ParseError{Line: 1, Msg: "header has no title column"}
	}

	movies := make([]models.Movie, 0, len(lines)-1)
	row := make(map[string]string, len(header))
	for n, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		values := strings.Split(line, Delimiter)
		if strict && len(values) != len(header) {
			return nil, &ParseError{
				Line: n + 2,
				Msg:  fmt.Sprintf("expected %d values, got %d", len(header), len(values)),
			}
		}
		clear(row)
		for i, h := range header {
			if i < len(values) {
				row[h] = strings.TrimSpace(values[i])
			} else {
				row[h] = ""
			}
		}
		movies = append(movies, models.MovieFromFields(row))
	}
	return movies, nil
}
