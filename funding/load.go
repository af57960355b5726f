package funding

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"
)

// Options selects the funding files inside a data directory and the label
// tables applied to them.
type Options struct {
	OpenPhilFile   string
	EAFundsGlob    string
	MiscFile       string
	CauseAreas     Renames
	Organizations  Renames
	FundCauseAreas Renames
	Strict         bool // fail on unrecognised EA Funds lines
	Logger         *zap.Logger
}

// DefaultOptions returns the layout of the published data directory.
func DefaultOptions() Options {
	return Options{
		OpenPhilFile:   "openphil_grants.csv",
		EAFundsGlob:    "ea_funds/*.txt",
		MiscFile:       "misc.csv",
		CauseAreas:     DefaultCauseAreas(),
		Organizations:  DefaultOrganizations(),
		FundCauseAreas: DefaultFundCauseAreas(),
	}
}

// Load reads every funding source from fsys and concatenates them in the
// order misc, EA Funds, Open Philanthropy.
func Load(ctx context.Context, fsys fs.FS, opts Options) ([]Grant, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	misc, skipped, err := loadMisc(fsys, opts.MiscFile)
	if err != nil {
		return nil, err
	}
	for _, s := range skipped {
		logger.Warn("skipping pledge without source",
			zap.String("file", s.File), zap.Int("line", s.Line), zap.String("text", s.Text))
	}
	logger.Debug("loaded misc pledges", zap.String("file", opts.MiscFile), zap.Int("grants", len(misc)))

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	funds, err := loadEAFunds(ctx, fsys, opts, logger)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	openPhil, err := loadOpenPhil(fsys, opts)
	if err != nil {
		return nil, err
	}
	logger.Debug("loaded open philanthropy grants", zap.String("file", opts.OpenPhilFile), zap.Int("grants", len(openPhil)))

	grants := make([]Grant, 0, len(misc)+len(funds)+len(openPhil))
	grants = append(grants, misc...)
	grants = append(grants, funds...)
	grants = append(grants, openPhil...)
	if len(grants) == 0 {
		return nil, ErrNoGrants
	}

	logger.Info("funding data loaded",
		zap.Int("misc", len(misc)),
		zap.Int("eaFunds", len(funds)),
		zap.Int("openPhil", len(openPhil)),
	)
	return grants, nil
}

func loadMisc(fsys fs.FS, name string) ([]Grant, []*LineError, error) {
	if name == "" {
		return nil, nil, nil
	}
	f, err := fsys.Open(name)
	if err != nil {
		return nil, nil, fmt.Errorf("open misc pledges: %w", err)
	}
	defer f.Close()
	return ParseMisc(name, f)
}

func loadOpenPhil(fsys fs.FS, opts Options) ([]Grant, error) {
	if opts.OpenPhilFile == "" {
		return nil, nil
	}
	f, err := fsys.Open(opts.OpenPhilFile)
	if err != nil {
		return nil, fmt.Errorf("open openphil grants: %w", err)
	}
	defer f.Close()
	return ParseOpenPhil(f, opts.CauseAreas, opts.Organizations)
}

func loadEAFunds(ctx context.Context, fsys fs.FS, opts Options, logger *zap.Logger) ([]Grant, error) {
	if opts.EAFundsGlob == "" {
		return nil, nil
	}
	matches, err := doublestar.Glob(fsys, opts.EAFundsGlob)
	if err != nil {
		return nil, fmt.Errorf("glob %q: %w", opts.EAFundsGlob, err)
	}
	sort.Strings(matches)

	var grants []Grant
	for _, name := range matches {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fundGrants, skipped, err := parseFundFile(fsys, name, opts)
		if err != nil {
			return nil, err
		}
		for _, s := range skipped {
			logger.Warn("skipping unrecognised grant line",
				zap.String("file", s.File), zap.Int("line", s.Line), zap.String("text", s.Text))
		}
		logger.Debug("loaded fund announcements", zap.String("file", name), zap.Int("grants", len(fundGrants)))
		grants = append(grants, fundGrants...)
	}
	return grants, nil
}

func parseFundFile(fsys fs.FS, name string, opts Options) ([]Grant, []*LineError, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, nil, fmt.Errorf("open fund file: %w", err)
	}
	defer f.Close()

	grants, skipped, err := ParseEAFunds(name, f, opts.FundCauseAreas, opts.Strict)
	var lerr *LineError
	if errors.As(err, &lerr) {
		return nil, nil, fmt.Errorf("strict parse: %w", err)
	}
	return grants, skipped, err
}
