// Package billy provides a Billy accounting API client and types.
// API documentation: https://www.billy.dk/api/#resource-documentation
package billy

import "encoding/json"

// Side is the debit/credit designation of a transaction line.
type Side string

const (
	SideDebit  Side = "debit"
	SideCredit Side = "credit"
)

// Organization is the organization associated with the API token.
type Organization struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Daybook is a ledger the organization posts daybook transactions into.
// A standard deployment exposes a single "Standardkassekladde".
type Daybook struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TaxRate is one entry of the organization's VAT rate table.
type TaxRate struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Account is one entry of the chart of accounts. AccountNo is the
// human-assigned account number used as join key against import rows.
type Account struct {
	ID        string  `json:"id"`
	AccountNo int     `json:"accountNo"`
	Name      string  `json:"name"`
	TaxRateID *string `json:"taxRateId"`
}

// DaybookTransaction is the parent posting grouping one or more lines.
type DaybookTransaction struct {
	ID          string `json:"id"`
	EntryDate   string `json:"entryDate"`
	State       string `json:"state"`
	Description string `json:"description"`
}

// DaybookTransactionLine is a single debit or credit entry belonging
// to a parent daybook transaction.
type DaybookTransactionLine struct {
	ID                   string      `json:"id"`
	AccountID            string      `json:"accountId"`
	Amount               json.Number `json:"amount"`
	DaybookTransactionID string      `json:"daybookTransactionId"`
	Side                 Side        `json:"side"`
	TaxRateID            *string     `json:"taxRateId"`
}

// DaybookBalanceAccount links a daybook to its balancing account.
type DaybookBalanceAccount struct {
	ID        string `json:"id"`
	DaybookID string `json:"daybookId"`
	AccountID string `json:"accountId"`
}

// Response envelopes. Billy wraps every resource in a keyed object,
// and create calls answer with a one-element collection.

type organizationResponse struct {
	Organization Organization `json:"organization"`
}

type daybooksResponse struct {
	Daybooks []Daybook `json:"daybooks"`
}

type taxRatesResponse struct {
	TaxRates []TaxRate `json:"taxRates"`
}

type accountsResponse struct {
	Accounts []Account `json:"accounts"`
}

type daybookTransactionsResponse struct {
	DaybookTransactions []DaybookTransaction `json:"daybookTransactions"`
}

type daybookTransactionLinesResponse struct {
	DaybookTransactionLines []DaybookTransactionLine `json:"daybookTransactionLines"`
}

type daybookBalanceAccountsResponse struct {
	DaybookBalanceAccounts []DaybookBalanceAccount `json:"daybookBalanceAccounts"`
}
