package funding

import (
	"errors"
	"fmt"
	"io"
)

// ParseOpenPhil reads the Open Philanthropy grants export. Focus areas and
// grantee names are relabelled through causeAreas and organizations.
func ParseOpenPhil(r io.Reader, causeAreas, organizations Renames) ([]Grant, error) {
	t, err := openTable("openphil grants", r, colFocusArea, colOrganizationName, colAmount)
	if err != nil {
		return nil, err
	}

	var grants []Grant
	for {
		row, err := t.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		amount, err := ParseAmount(t.get(row, colAmount))
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", t.name, t.line, err)
		}

		grants = append(grants, Grant{
			Source:       SourceOpenPhil,
			CauseArea:    causeAreas.Apply(t.get(row, colFocusArea)),
			Organization: organizations.Apply(t.get(row, colOrganizationName)),
			Amount:       amount,
		})
	}
	return grants, nil
}
