package funding

import (
	"bufio"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"
	"unicode"
)

// grantLine matches one payout announcement:
//
//	$250,000.00 - March 2019: Machine Intelligence Research Institute
var grantLine = regexp.MustCompile(`^\$([\d,.]+) - ([\p{L}\p{N}_ ]+): ([\p{L}\p{N}_ ]+)`)

// LineError describes an announcement line that does not parse.
type LineError struct {
	File string
	Line int
	Text string
}

func (e *LineError) Error() string {
	return fmt.Sprintf("%s:%d: unrecognised grant line %q", e.File, e.Line, e.Text)
}

// FundTitle derives the fund title from an announcement file name:
// "ea_funds/global_development.txt" → "Global Development".
func FundTitle(name string) string {
	base := strings.TrimSuffix(path.Base(name), path.Ext(name))
	return titleCase(strings.ReplaceAll(base, "_", " "))
}

// ParseEAFunds reads one fund's announcement file. Every matching line is a
// grant; the cause area comes from the fund title through fundCauseAreas.
// With strict set, the first unmatched line aborts with a *LineError;
// otherwise unmatched lines are returned as skipped.
func ParseEAFunds(name string, r io.Reader, fundCauseAreas Renames, strict bool) ([]Grant, []*LineError, error) {
	cause := fundCauseAreas.Apply(FundTitle(name))

	var (
		grants  []Grant
		skipped []*LineError
	)
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		m := grantLine.FindStringSubmatch(text)
		if m == nil {
			lerr := &LineError{File: name, Line: lineNo, Text: text}
			if strict {
				return nil, nil, lerr
			}
			skipped = append(skipped, lerr)
			continue
		}

		amount, err := ParseAmount(m[1])
		if err != nil {
			return nil, nil, fmt.Errorf("%s:%d: %w", name, lineNo, err)
		}

		grants = append(grants, Grant{
			Source:       SourceEAFunds,
			CauseArea:    cause,
			Organization: strings.TrimSpace(m[3]),
			Amount:       amount,
			Date:         strings.TrimSpace(m[2]),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", name, err)
	}
	return grants, skipped, nil
}

// titleCase upper-cases the first letter of every word and lower-cases the rest.
func titleCase(s string) string {
	var b strings.Builder
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
			continue
		}
		b.WriteRune(r)
		prevLetter = false
	}
	return b.String()
}
