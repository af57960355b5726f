package funding

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// ParseMisc reads hand-collected pledge data (Giving What We Can, Founders
// Pledge) that is already in the unified columns. Rows without a source
// cannot be placed in the flow graph and are returned as skipped.
func ParseMisc(name string, r io.Reader) ([]Grant, []*LineError, error) {
	t, err := openTable(name, r, colSource, colCauseArea, colOrganization, colAmount)
	if err != nil {
		return nil, nil, err
	}

	var (
		grants  []Grant
		skipped []*LineError
	)
	for {
		row, err := t.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		if t.get(row, colSource) == "" {
			skipped = append(skipped, &LineError{File: name, Line: t.line, Text: strings.Join(row, ",")})
			continue
		}

		amount, err := ParseAmount(t.get(row, colAmount))
		if err != nil {
			return nil, nil, fmt.Errorf("%s line %d: %w", t.name, t.line, err)
		}

		grants = append(grants, Grant{
			Source:       t.get(row, colSource),
			CauseArea:    t.get(row, colCauseArea),
			Organization: t.get(row, colOrganization),
			Amount:       amount,
		})
	}
	return grants, skipped, nil
}
