// Package ledger resolves validated export rows against the remote
// chart of accounts and posts them as one daybook transaction.
package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/sman-dk/danplanner2billy/pkg/billy"
	"github.com/sman-dk/danplanner2billy/pkg/danplanner"
)

// TransactionLine is one resolved debit or credit entry, ready to be
// posted. Amount is always a non-negative magnitude; the sign of the
// source row is carried by Side.
type TransactionLine struct {
	AccountNo   int
	AccountID   string
	AccountName string
	Amount      decimal.Decimal
	Side        billy.Side
	TaxRateID   *string
	TaxRateName string
}

// UnknownAccountError reports an export row whose account number does
// not exist in the remote chart of accounts. Posting with unresolved
// accounts would corrupt the ledger, so this is fatal for the run.
type UnknownAccountError struct {
	AccountNo int
}

func (e *UnknownAccountError) Error() string {
	return fmt.Sprintf("account no %d not found in Billy", e.AccountNo)
}

// Resolve maps every batch row to a transaction line, in batch order.
// Accounts and tax rates are indexed once, so lookups stay local no
// matter how large the batch is. A single unknown account number
// fails the whole batch before any mutation happens.
func Resolve(batch danplanner.ExportBatch, accounts []billy.Account, taxRates []billy.TaxRate) ([]TransactionLine, error) {
	accountsByNo := make(map[int]billy.Account, len(accounts))
	for _, account := range accounts {
		accountsByNo[account.AccountNo] = account
	}
	taxRatesByID := make(map[string]billy.TaxRate, len(taxRates))
	for _, rate := range taxRates {
		taxRatesByID[rate.ID] = rate
	}

	lines := make([]TransactionLine, 0, len(batch))
	for _, row := range batch {
		account, ok := accountsByNo[row.AccountNo]
		if !ok {
			return nil, &UnknownAccountError{AccountNo: row.AccountNo}
		}

		amount := row.AmountInclVAT
		side := billy.SideDebit
		if amount.IsNegative() {
			side = billy.SideCredit
			amount = amount.Neg()
		}

		var taxRateName string
		if account.TaxRateID != nil {
			// the name is informational; an id missing from the rate
			// table just leaves the name empty
			taxRateName = taxRatesByID[*account.TaxRateID].Name
		}

		lines = append(lines, TransactionLine{
			AccountNo:   row.AccountNo,
			AccountID:   account.ID,
			AccountName: account.Name,
			Amount:      amount,
			Side:        side,
			TaxRateID:   account.TaxRateID,
			TaxRateName: taxRateName,
		})
	}

	return lines, nil
}
