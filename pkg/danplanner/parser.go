// Package danplanner parses Danplanner finance export files into
// typed rows and enforces the zero-sum balance invariant.
package danplanner

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// expectedHeader is the exact first row of a Danplanner finance
// export. Any deviation, including column order, is fatal.
var expectedHeader = []string{"Konti", "Navn", "Beløb eks. moms", "Moms"}

// ExportRow is one data line of a Danplanner finance export.
type ExportRow struct {
	AccountNo     int
	AccountName   string
	AmountExVAT   decimal.Decimal
	AmountVAT     decimal.Decimal
	AmountInclVAT decimal.Decimal
}

// ExportBatch is an ordered sequence of export rows. File order is
// preserved and determines posting order.
type ExportBatch []ExportRow

// HeaderError reports a first row that does not match the expected
// Danplanner export header.
type HeaderError struct {
	Expected []string
	Got      []string
}

func (e *HeaderError) Error() string {
	return fmt.Sprintf("unexpected first row %v, expected the sections %v", e.Got, e.Expected)
}

// AmountError reports a numeric field that could not be parsed.
type AmountError struct {
	Line  int
	Field string
	Value string
	Err   error
}

func (e *AmountError) Error() string {
	return fmt.Sprintf("line %d: field %q: %v", e.Line, e.Field, e.Err)
}

func (e *AmountError) Unwrap() error { return e.Err }

// BalanceError reports a batch whose amounts do not net to zero.
// Diff is the exact signed discrepancy.
type BalanceError struct {
	Diff decimal.Decimal
}

func (e *BalanceError) Error() string {
	return fmt.Sprintf("transactions are out of balance with a difference of %s", e.Diff)
}

// ParseFile reads and parses the export file at path.
func ParseFile(path string, format NumberFormat) (ExportBatch, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open export file: %w", err)
	}
	defer f.Close()

	batch, err := Parse(f, format)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return batch, nil
}

// Parse reads a semicolon-delimited Danplanner export. The first row
// must equal the expected header exactly; every following row becomes
// one ExportRow with AmountInclVAT = AmountExVAT + AmountVAT.
func Parse(r io.Reader, format NumberFormat) (ExportBatch, error) {
	reader := csv.NewReader(r)
	reader.Comma = ';'
	// FieldsPerRecord is left at zero so the header row fixes the
	// field count for the rest of the file.

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header row: %w", err)
	}
	if !headerMatches(header) {
		return nil, &HeaderError{Expected: expectedHeader, Got: header}
	}

	var batch ExportBatch
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		line++

		accountNo, err := strconv.Atoi(strings.TrimSpace(record[0]))
		if err != nil {
			return nil, &AmountError{Line: line, Field: expectedHeader[0], Value: record[0], Err: err}
		}

		amountExVAT, err := format.Parse(record[2])
		if err != nil {
			return nil, &AmountError{Line: line, Field: expectedHeader[2], Value: record[2], Err: err}
		}

		amountVAT, err := format.Parse(record[3])
		if err != nil {
			return nil, &AmountError{Line: line, Field: expectedHeader[3], Value: record[3], Err: err}
		}

		batch = append(batch, ExportRow{
			AccountNo:     accountNo,
			AccountName:   record[1],
			AmountExVAT:   amountExVAT,
			AmountVAT:     amountVAT,
			AmountInclVAT: amountExVAT.Add(amountVAT),
		})
	}

	return batch, nil
}

func headerMatches(got []string) bool {
	if len(got) != len(expectedHeader) {
		return false
	}
	for i, want := range expectedHeader {
		if got[i] != want {
			return false
		}
	}
	return true
}

// Balance returns the exact sum of AmountInclVAT over the batch.
func (b ExportBatch) Balance() decimal.Decimal {
	sum := decimal.Zero
	for _, row := range b {
		sum = sum.Add(row.AmountInclVAT)
	}
	return sum
}

// CheckBalance enforces the zero-sum invariant. It must pass before
// the export is archived and again on the archived copy before any
// remote call is made.
func (b ExportBatch) CheckBalance() error {
	if diff := b.Balance(); !diff.IsZero() {
		return &BalanceError{Diff: diff}
	}
	return nil
}
