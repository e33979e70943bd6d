// Package groups models the named entity groups of the host model and the
// name matching that pairs material files with them. The host lists groups
// as strings of the form "<number> - <descriptive text>" where the number is
// a host-assigned ordinal and the text is whatever the model author typed,
// usually a material or region name.
package groups

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrBadRecord is returned when a group string does not have the
// "<number> - <name>" shape the host produces.
var ErrBadRecord = errors.New("malformed group record")

// Record is one host group: its ordinal within the model and its label.
type Record struct {
	ID   int
	Name string
}

// String renders the record in the host's listing form.
func (r Record) String() string {
	return fmt.Sprintf("%d - %s", r.ID, r.Name)
}

// ParseRecord splits a host group listing entry into its ordinal and
// descriptive name. The separator is the first " - " in the string; the
// descriptive text may itself contain further dashes.
func ParseRecord(s string) (Record, error) {
	id, name, ok := splitRecord(s)
	if !ok {
		return Record{}, fmt.Errorf("%w: %q", ErrBadRecord, s)
	}
	return Record{ID: id, Name: name}, nil
}

// ParseRecords parses every entry of a host group listing, rejecting the
// whole listing on the first malformed entry.
func ParseRecords(entries []string) ([]Record, error) {
	recs := make([]Record, 0, len(entries))
	for _, e := range entries {
		r, err := ParseRecord(e)
		if err != nil {
			return nil, err
		}
		recs = append(recs, r)
	}
	return recs, nil
}

func splitRecord(s string) (id int, name string, ok bool) {
	prefix, rest, found := strings.Cut(s, " - ")
	if !found {
		return 0, "", false
	}
	id, err := strconv.Atoi(strings.TrimSpace(prefix))
	if err != nil {
		return 0, "", false
	}
	return id, rest, true
}

// FindMatches returns, in input order, the candidates whose descriptive text
// contains baseName as a whole word, compared case-insensitively. The
// numeric prefix and separator are excluded from the search, so a base name
// that happens to be a number never matches a group ordinal. Candidates that
// do not parse as group records are skipped. baseName is literal text, not a
// pattern: metacharacters in file names match themselves.
//
// Whole word means bounded on both sides: "Steel" matches "Steel Bracket"
// and "steel" but not "Steelwork".
func FindMatches(baseName string, candidates []string) []string {
	re, err := wordPattern(baseName)
	if err != nil {
		return nil
	}

	var out []string
	for _, c := range candidates {
		_, name, ok := splitRecord(c)
		if !ok {
			continue
		}
		if re.MatchString(name) {
			out = append(out, c)
		}
	}
	return out
}

// Matches reports whether name contains baseName as a whole word,
// case-insensitively. Same rule as FindMatches for a single descriptive
// text.
func Matches(baseName, name string) bool {
	re, err := wordPattern(baseName)
	if err != nil {
		return false
	}
	return re.MatchString(name)
}

// MatchRecords is FindMatches over parsed records.
func MatchRecords(baseName string, recs []Record) []Record {
	re, err := wordPattern(baseName)
	if err != nil {
		return nil
	}

	var out []Record
	for _, r := range recs {
		if re.MatchString(r.Name) {
			out = append(out, r)
		}
	}
	return out
}

// wordPattern builds the case-insensitive whole-word pattern for a literal
// base name. \b only works when the name starts and ends with word
// characters; names like "A-36" get explicit lookaround-free boundary
// classes instead.
func wordPattern(baseName string) (*regexp.Regexp, error) {
	if baseName == "" {
		return nil, errors.New("empty base name")
	}
	quoted := regexp.QuoteMeta(baseName)

	left, right := `\b`, `\b`
	if !isWordChar(rune(baseName[0])) {
		left = `(?:^|[^\w])`
	}
	if !isWordChar(rune(baseName[len(baseName)-1])) {
		right = `(?:[^\w]|$)`
	}
	return regexp.Compile(`(?i)` + left + quoted + right)
}

func isWordChar(r rune) bool {
	return r == '_' ||
		(r >= '0' && r <= '9') ||
		(r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z')
}
