package billy

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultAPIURL is the production Billy API endpoint.
const DefaultAPIURL = "https://api.billysbilling.com/v2"

// ClientConfig represents the configuration for the Billy API client.
type ClientConfig struct {
	APIURL   string        // Default: DefaultAPIURL
	APIKey   string        // X-Access-Token credential
	Currency string        // Currency id for created lines, e.g. "DKK"
	Timeout  time.Duration // Default: 30 seconds
}

// Client is a Billy API client. The access token is constant for the
// process lifetime.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	currency   string
}

// APIError is a non-2xx answer from the Billy API. Body carries the
// response body verbatim.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("billy API: %s %s failed with %d - %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// NewClient creates a new Billy API client.
func NewClient(config ClientConfig) *Client {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	baseURL := config.APIURL
	if baseURL == "" {
		baseURL = DefaultAPIURL
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:  baseURL,
		apiKey:   config.APIKey,
		currency: config.Currency,
	}
}

// GetOrganization returns the organization associated with the API token.
func (c *Client) GetOrganization() (Organization, error) {
	var resp organizationResponse
	if err := c.get("/organization", &resp); err != nil {
		return Organization{}, err
	}
	return resp.Organization, nil
}

// ListDaybooks lists the organization's daybooks.
func (c *Client) ListDaybooks() ([]Daybook, error) {
	var resp daybooksResponse
	if err := c.get("/daybooks", &resp); err != nil {
		return nil, err
	}
	return resp.Daybooks, nil
}

// ListTaxRates lists the organization's VAT rate table.
func (c *Client) ListTaxRates() ([]TaxRate, error) {
	var resp taxRatesResponse
	if err := c.get("/taxRates", &resp); err != nil {
		return nil, err
	}
	return resp.TaxRates, nil
}

// ListAccounts lists the full chart of accounts ("kontoplan").
func (c *Client) ListAccounts() ([]Account, error) {
	var resp accountsResponse
	if err := c.get("/accounts", &resp); err != nil {
		return nil, err
	}
	return resp.Accounts, nil
}

// ListDaybookBalanceAccounts lists the balance accounts of a daybook.
func (c *Client) ListDaybookBalanceAccounts(daybookID string) ([]DaybookBalanceAccount, error) {
	var resp daybookBalanceAccountsResponse
	if err := c.get("/daybookBalanceAccounts?daybookId="+daybookID, &resp); err != nil {
		return nil, err
	}
	return resp.DaybookBalanceAccounts, nil
}

// ListDaybookTransactionLines lists the lines attached to a daybook
// transaction, e.g. to inspect a draft left behind by a failed run.
func (c *Client) ListDaybookTransactionLines(transactionID string) ([]DaybookTransactionLine, error) {
	var resp daybookTransactionLinesResponse
	if err := c.get("/daybookTransactionLines?daybookTransactionId="+transactionID, &resp); err != nil {
		return nil, err
	}
	return resp.DaybookTransactionLines, nil
}

// DaybookTransactionParams are the inputs for creating a parent
// daybook transaction. The transaction is created in draft state.
type DaybookTransactionParams struct {
	DaybookID      string
	EntryDate      string // YYYY-MM-DD
	OrganizationID string
	Description    string
}

type daybookTransactionBody struct {
	EntryDate      string `json:"entryDate"`
	OrganizationID string `json:"organizationId"`
	State          string `json:"state"`
	DaybookID      string `json:"daybookId"`
	Description    string `json:"description"`
	Priority       int    `json:"priority"`
}

// CreateDaybookTransaction creates one parent daybook transaction in
// draft state and returns it.
func (c *Client) CreateDaybookTransaction(params DaybookTransactionParams) (DaybookTransaction, error) {
	body := struct {
		DaybookTransaction daybookTransactionBody `json:"daybookTransaction"`
	}{
		DaybookTransaction: daybookTransactionBody{
			EntryDate:      params.EntryDate,
			OrganizationID: params.OrganizationID,
			State:          "draft",
			DaybookID:      params.DaybookID,
			Description:    params.Description,
			Priority:       22,
		},
	}

	var resp daybookTransactionsResponse
	if err := c.post("/daybookTransactions", body, &resp); err != nil {
		return DaybookTransaction{}, err
	}
	if len(resp.DaybookTransactions) == 0 {
		return DaybookTransaction{}, fmt.Errorf("billy API: create transaction returned an empty collection")
	}
	return resp.DaybookTransactions[0], nil
}

// DaybookTransactionLineParams are the inputs for creating one child
// line on an existing daybook transaction.
type DaybookTransactionLineParams struct {
	AccountID            string
	Amount               decimal.Decimal // non-negative magnitude
	DaybookTransactionID string
	Side                 Side
	TaxRateID            *string
	Text                 string
}

type daybookTransactionLineBody struct {
	AccountID            string       `json:"accountId"`
	Amount               json.Number  `json:"amount"`
	BaseAmount           *json.Number `json:"baseAmount"`
	CurrencyID           string       `json:"currencyId"`
	DaybookTransactionID string       `json:"daybookTransactionId"`
	Priority             int          `json:"priority"`
	Side                 Side         `json:"side"`
	TaxRateID            *string      `json:"taxRateId"`
	Text                 string       `json:"text"`
}

// CreateDaybookTransactionLine creates one line on a daybook
// transaction. The amount is serialized as an exact JSON number.
func (c *Client) CreateDaybookTransactionLine(params DaybookTransactionLineParams) (DaybookTransactionLine, error) {
	body := struct {
		DaybookTransactionLine daybookTransactionLineBody `json:"daybookTransactionLine"`
	}{
		DaybookTransactionLine: daybookTransactionLineBody{
			AccountID:            params.AccountID,
			Amount:               json.Number(params.Amount.String()),
			BaseAmount:           nil,
			CurrencyID:           c.currency,
			DaybookTransactionID: params.DaybookTransactionID,
			Priority:             1,
			Side:                 params.Side,
			TaxRateID:            params.TaxRateID,
			Text:                 params.Text,
		},
	}

	var resp daybookTransactionLinesResponse
	if err := c.post("/daybookTransactionLines", body, &resp); err != nil {
		return DaybookTransactionLine{}, err
	}
	if len(resp.DaybookTransactionLines) == 0 {
		return DaybookTransactionLine{}, fmt.Errorf("billy API: create transaction line returned an empty collection")
	}
	return resp.DaybookTransactionLines[0], nil
}

func (c *Client) get(path string, out any) error {
	req, err := http.NewRequest(http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req, path, out)
}

func (c *Client) post(path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request body: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, path, out)
}

func (c *Client) do(req *http.Request, path string, out any) error {
	req.Header.Set("X-Access-Token", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.parseError(req.Method, path, resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// parseError turns a non-2xx response into an APIError carrying the
// status code and the body verbatim.
func (c *Client) parseError(method, path string, resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		body = []byte("failed to read error response")
	}

	return &APIError{
		Method:     method,
		Path:       path,
		StatusCode: resp.StatusCode,
		Body:       string(body),
	}
}
