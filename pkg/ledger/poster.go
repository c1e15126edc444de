package ledger

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/sman-dk/danplanner2billy/pkg/billy"
	"github.com/sman-dk/danplanner2billy/pkg/prompt"
)

// API is the slice of the Billy client the poster needs.
type API interface {
	GetOrganization() (billy.Organization, error)
	ListDaybooks() ([]billy.Daybook, error)
	CreateDaybookTransaction(billy.DaybookTransactionParams) (billy.DaybookTransaction, error)
	CreateDaybookTransactionLine(billy.DaybookTransactionLineParams) (billy.DaybookTransactionLine, error)
}

// Batch is one fully resolved posting batch. It lives for a single
// run; the archive filename is the only durable trace of the period.
type Batch struct {
	EntryDate string // YYYY-MM-DD
	FromDate  string
	ToDate    string
	Lines     []TransactionLine
}

// Result reports what a Post call did. Posted is false when the
// operator declined, which is a clean no-op, not an error.
type Result struct {
	Posted        bool
	TransactionID string
	LineIDs       []string
}

// PartialPostError reports a line creation that failed after the
// parent transaction was already created. There is no rollback; the
// draft stays behind on the remote side.
type PartialPostError struct {
	TransactionID string
	Created       int
	Total         int
	Err           error
}

func (e *PartialPostError) Error() string {
	return fmt.Sprintf(
		"created %d of %d lines before a failure: %v; draft transaction %s is left partially populated in Billy and must be completed or deleted there manually",
		e.Created, e.Total, e.Err, e.TransactionID)
}

func (e *PartialPostError) Unwrap() error { return e.Err }

// Poster creates one parent daybook transaction and its lines, in
// batch order, strictly one call at a time.
type Poster struct {
	api     API
	confirm prompt.Confirmer
	out     io.Writer
	prefix  string
}

// NewPoster creates a Poster. prefix starts the description of the
// created transaction and of every line.
func NewPoster(api API, confirm prompt.Confirmer, out io.Writer, prefix string) *Poster {
	return &Poster{api: api, confirm: confirm, out: out, prefix: prefix}
}

// Post resolves the organization and daybook, shows the operator the
// full batch, and on explicit confirmation creates the draft parent
// transaction followed by its lines. Every call is synchronous; the
// parent id is a hard dependency of every line and partial-success
// order must stay deterministic for reconciliation.
func (p *Poster) Post(batch Batch) (*Result, error) {
	organization, err := p.api.GetOrganization()
	if err != nil {
		return nil, fmt.Errorf("get organization: %w", err)
	}
	fmt.Fprintf(p.out, "%s id: %s\n", organization.Name, organization.ID)

	daybooks, err := p.api.ListDaybooks()
	if err != nil {
		return nil, fmt.Errorf("list daybooks: %w", err)
	}
	if len(daybooks) == 0 {
		return nil, fmt.Errorf("the organization exposes no daybooks")
	}
	// The supported deployment exposes a single standard daybook.
	// When more exist the first one is used; the name is printed so
	// the operator can see which book was chosen.
	daybook := daybooks[0]
	fmt.Fprintf(p.out, "%s id: %s\n", daybook.Name, daybook.ID)

	fmt.Fprintln(p.out, "\n * The following transaction will be uploaded to Billy:")
	for _, line := range batch.Lines {
		taxRateName := line.TaxRateName
		if taxRateName == "" {
			taxRateName = "none"
		}
		fmt.Fprintf(p.out, "   %d: %s %s (VAT: %s) (%s)\n",
			line.AccountNo, line.Amount, line.Side, taxRateName, line.AccountName)
	}

	ok, err := p.confirm.Confirm("\nWould you like to proceed and upload data to Billy?")
	if err != nil {
		return nil, err
	}
	if !ok {
		fmt.Fprintln(p.out, "*** Data is NOT uploaded to Billy ***")
		return &Result{Posted: false}, nil
	}

	description := fmt.Sprintf("%s %s til %s", p.prefix, batch.FromDate, batch.ToDate)
	transaction, err := p.api.CreateDaybookTransaction(billy.DaybookTransactionParams{
		DaybookID:      daybook.ID,
		EntryDate:      batch.EntryDate,
		OrganizationID: organization.ID,
		Description:    description,
	})
	if err != nil {
		return nil, fmt.Errorf("create daybook transaction: %w", err)
	}
	slog.Info("Created daybook transaction", "id", transaction.ID, "state", transaction.State)

	result := &Result{Posted: true, TransactionID: transaction.ID}
	for i, line := range batch.Lines {
		created, err := p.api.CreateDaybookTransactionLine(billy.DaybookTransactionLineParams{
			AccountID:            line.AccountID,
			Amount:               line.Amount,
			DaybookTransactionID: transaction.ID,
			Side:                 line.Side,
			TaxRateID:            line.TaxRateID,
			Text:                 description,
		})
		if err != nil {
			return result, &PartialPostError{
				TransactionID: transaction.ID,
				Created:       i,
				Total:         len(batch.Lines),
				Err:           err,
			}
		}
		result.LineIDs = append(result.LineIDs, created.ID)
		slog.Debug("Created daybook transaction line", "id", created.ID, "account_no", line.AccountNo)
	}

	return result, nil
}
