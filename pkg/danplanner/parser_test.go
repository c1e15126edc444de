package danplanner

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

const header = "Konti;Navn;Beløb eks. moms;Moms\n"

func TestParseBalancedExport(t *testing.T) {
	input := header +
		"100;Rent;1000.00;0\n" +
		"200;Tax;-1000.00;0\n"

	batch, err := Parse(strings.NewReader(input), mustFormat(t, "en-US"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if len(batch) != 2 {
		t.Fatalf("Parse returned %d rows, expected 2", len(batch))
	}
	// file order is preserved
	if batch[0].AccountNo != 100 || batch[1].AccountNo != 200 {
		t.Errorf("rows out of order: got account nos %d, %d", batch[0].AccountNo, batch[1].AccountNo)
	}
	if batch[0].AccountName != "Rent" {
		t.Errorf("AccountName = %q, expected %q", batch[0].AccountName, "Rent")
	}
	if !batch[0].AmountInclVAT.Equal(decimal.RequireFromString("1000")) {
		t.Errorf("AmountInclVAT = %s, expected 1000", batch[0].AmountInclVAT)
	}

	if err := batch.CheckBalance(); err != nil {
		t.Errorf("CheckBalance failed on a balanced batch: %v", err)
	}
}

func TestParseSumsVAT(t *testing.T) {
	input := header + "100;Sales;800.00;200.00\n"

	batch, err := Parse(strings.NewReader(input), mustFormat(t, "en-US"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if !batch[0].AmountInclVAT.Equal(decimal.RequireFromString("1000")) {
		t.Errorf("AmountInclVAT = %s, expected 1000", batch[0].AmountInclVAT)
	}
}

func TestParseDanishLocale(t *testing.T) {
	input := header + "100;Husleje;\"1.234,50\";\"308,63\"\n"

	batch, err := Parse(strings.NewReader(input), mustFormat(t, "da-DK"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if !batch[0].AmountInclVAT.Equal(decimal.RequireFromString("1543.13")) {
		t.Errorf("AmountInclVAT = %s, expected 1543.13", batch[0].AmountInclVAT)
	}
}

func TestParseHeaderMismatch(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"permuted columns", "Navn;Konti;Beløb eks. moms;Moms"},
		{"renamed column", "Konti;Navn;Beløb;Moms"},
		{"missing column", "Konti;Navn;Beløb eks. moms"},
		{"extra column", "Konti;Navn;Beløb eks. moms;Moms;Ekstra"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := tt.header + "\n100;Rent;1000.00;0\n"
			_, err := Parse(strings.NewReader(input), mustFormat(t, "en-US"))

			var headerErr *HeaderError
			if !errors.As(err, &headerErr) {
				t.Fatalf("Parse returned %v, expected a HeaderError", err)
			}
			if len(headerErr.Expected) != 4 {
				t.Errorf("HeaderError.Expected = %v, expected the four Danplanner sections", headerErr.Expected)
			}
		})
	}
}

func TestParseUnparsableAmount(t *testing.T) {
	input := header + "100;Rent;not-a-number;0\n"

	_, err := Parse(strings.NewReader(input), mustFormat(t, "en-US"))

	var amountErr *AmountError
	if !errors.As(err, &amountErr) {
		t.Fatalf("Parse returned %v, expected an AmountError", err)
	}
	if amountErr.Line != 2 {
		t.Errorf("AmountError.Line = %d, expected 2", amountErr.Line)
	}
}

func TestCheckBalanceDiscrepancy(t *testing.T) {
	input := header +
		"100;Rent;1000.00;0\n" +
		"200;Tax;-999.99;0\n"

	batch, err := Parse(strings.NewReader(input), mustFormat(t, "en-US"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	err = batch.CheckBalance()
	var balanceErr *BalanceError
	if !errors.As(err, &balanceErr) {
		t.Fatalf("CheckBalance returned %v, expected a BalanceError", err)
	}
	if !balanceErr.Diff.Equal(decimal.RequireFromString("0.01")) {
		t.Errorf("BalanceError.Diff = %s, expected 0.01", balanceErr.Diff)
	}
}

// Re-parsing the same bytes after a rename must yield an identical
// batch; the import pipeline depends on this round-trip.
func TestParseFileRoundTripAfterMove(t *testing.T) {
	content := header +
		"100;Rent;1000.00;0\n" +
		"200;Tax;-1000.00;0\n"

	dir := t.TempDir()
	before := filepath.Join(dir, "export.csv")
	after := filepath.Join(dir, "archived.csv")
	if err := os.WriteFile(before, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	format := mustFormat(t, "en-US")
	first, err := ParseFile(before, format)
	if err != nil {
		t.Fatalf("first ParseFile failed: %v", err)
	}

	if err := os.Rename(before, after); err != nil {
		t.Fatal(err)
	}

	second, err := ParseFile(after, format)
	if err != nil {
		t.Fatalf("second ParseFile failed: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("row count changed across the move: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].AccountNo != second[i].AccountNo ||
			first[i].AccountName != second[i].AccountName ||
			!first[i].AmountInclVAT.Equal(second[i].AmountInclVAT) {
			t.Errorf("row %d changed across the move: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestParseFileMissing(t *testing.T) {
	_, err := ParseFile(filepath.Join(t.TempDir(), "nope.csv"), mustFormat(t, "en-US"))
	if err == nil {
		t.Error("ParseFile succeeded on a missing file")
	}
}
