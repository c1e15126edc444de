// Package archive moves a validated export file into a dated archive
// folder. The previous archived file's name supplies the "from" date
// of the new import period.
package archive

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	filePrefix    = "financeexport"
	dateSeparator = "_-_"
	fileExt       = ".csv"
)

// ErrNoPriorExport is returned when the destination folder holds no
// previous export to derive the from date from. The operator must
// pass an explicit from date on a first run.
var ErrNoPriorExport = errors.New("no previous export found in the destination folder; pass --from-date for a first run")

// SameDateError reports a from date equal to the to date, which
// indicates a clock or filename error.
type SameDateError struct {
	From string
	To   string
}

func (e *SameDateError) Error() string {
	return fmt.Sprintf("from date (%s) and to date (%s) are the same, this looks like an error", e.From, e.To)
}

// ConflictError reports an already existing destination file. The
// archive step never overwrites.
type ConflictError struct {
	Path string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("destination path %s already exists", e.Path)
}

// timestampLayouts are the accepted ISO-8601 forms, a date or a date
// with a time part.
var timestampLayouts = []string{"2006-01-02", "2006-01-02T15:04:05"}

// ParseTimestamp parses an ISO-8601 date or date-time string.
func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%q is not an ISO-8601 timestamp of the form 2006-01-02 or 2006-01-02T15:04:05", s)
}

// Age returns how old the file at path is, based on its mtime.
func Age(path string, now time.Time) (time.Duration, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("stat input file: %w", err)
	}
	return now.Sub(info.ModTime()), nil
}

// Request describes one archival move.
type Request struct {
	// Source is the current location of the export file.
	Source string
	// Root is the archival root folder; the destination is the
	// subfolder named after the to date's year.
	Root string
	// Now supplies the to date when ToDate is empty.
	Now time.Time
	// ToDate optionally overrides the end of the import period
	// (ISO-8601, used verbatim in the destination filename).
	ToDate string
	// FromDate optionally overrides the start of the import period,
	// bypassing the destination folder scan. Required on a first run.
	FromDate string
}

// Plan is a fully validated move that has not been executed yet.
type Plan struct {
	SourcePath string
	DestPath   string
	FromDate   string
	ToDate     string
	To         time.Time
}

// NewPlan computes and validates the destination of an archival move.
// Nothing is touched on disk beyond reading the destination folder.
func NewPlan(req Request) (*Plan, error) {
	to := req.Now
	toStr := req.Now.Format("2006-01-02")
	if req.ToDate != "" {
		t, err := ParseTimestamp(req.ToDate)
		if err != nil {
			return nil, fmt.Errorf("invalid to date: %w", err)
		}
		to = t
		toStr = req.ToDate
	}

	destDir := filepath.Join(req.Root, to.Format("2006"))

	fromStr := req.FromDate
	if fromStr == "" {
		var err error
		fromStr, err = priorToDate(destDir)
		if err != nil {
			return nil, err
		}
	}

	from, err := ParseTimestamp(fromStr)
	if err != nil {
		return nil, fmt.Errorf("invalid from date: %w", err)
	}
	if from.Equal(to) {
		return nil, &SameDateError{From: fromStr, To: toStr}
	}

	destPath := filepath.Join(destDir, filePrefix+"_"+fromStr+dateSeparator+toStr+fileExt)
	if _, err := os.Stat(destPath); err == nil {
		return nil, &ConflictError{Path: destPath}
	}

	return &Plan{
		SourcePath: req.Source,
		DestPath:   destPath,
		FromDate:   fromStr,
		ToDate:     toStr,
		To:         to,
	}, nil
}

// priorToDate scans the destination folder for the lexicographically
// last file and extracts the trailing date token from its name.
func priorToDate(destDir string) (string, error) {
	entries, err := os.ReadDir(destDir)
	if err != nil {
		return "", fmt.Errorf("list destination folder: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			names = append(names, entry.Name())
		}
	}
	if len(names) == 0 {
		return "", fmt.Errorf("%s: %w", destDir, ErrNoPriorExport)
	}
	sort.Strings(names)
	last := names[len(names)-1]

	name := strings.TrimSuffix(last, fileExt)
	idx := strings.LastIndex(name, dateSeparator)
	if idx < 0 {
		return "", fmt.Errorf("previous export %s does not encode a to date after %q", last, dateSeparator)
	}
	return name[idx+len(dateSeparator):], nil
}

// Move executes the plan with an atomic rename. Source and
// destination must live on the same filesystem.
func (p *Plan) Move() error {
	if err := os.Rename(p.SourcePath, p.DestPath); err != nil {
		return fmt.Errorf("move export file: %w", err)
	}
	return nil
}
