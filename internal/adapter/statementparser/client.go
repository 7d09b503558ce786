package statementparser

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/iho/cardledger/internal/billing"
	"github.com/iho/cardledger/internal/domain"
)

const maxResponseBytes = 4 << 20

type parseRequest struct {
	Text string `json:"text"`
}

type parseResponse struct {
	Items []item `json:"items"`
}

type item struct {
	Description string          `json:"description"`
	Amount      json.RawMessage `json:"amount"`
	Date        string          `json:"date"`
	Category    string          `json:"category"`
	Type        string          `json:"type"`
}

// Client calls the external statement-parsing service. It implements
// usecase.StatementParser.
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxRetries uint64
	interval   time.Duration
	logger     zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// WithRetries sets how many times a transient failure is retried.
func WithRetries(n uint64, interval time.Duration) Option {
	return func(cl *Client) {
		cl.maxRetries = n
		cl.interval = interval
	}
}

// WithLogger sets the logger used for retry warnings.
func WithLogger(logger zerolog.Logger) Option {
	return func(cl *Client) { cl.logger = logger }
}

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		maxRetries: 2,
		interval:   200 * time.Millisecond,
		logger:     log.Logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Parse sends text to POST {baseURL}/parse and maps the returned items to
// import candidates. Network errors and 5xx responses are retried; every
// failure wraps domain.ErrStatementParser.
func (c *Client) Parse(ctx context.Context, text string) ([]billing.Candidate, error) {
	body, err := json.Marshal(parseRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStatementParser, err)
	}

	var parsed parseResponse
	attempt := 0
	operation := func() error {
		attempt++
		err := c.do(ctx, body, &parsed)
		if err != nil && !isPermanent(err) {
			c.logger.Warn().Err(err).Int("attempt", attempt).Msg("statement parser call failed, retrying")
		}
		return err
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(c.interval), c.maxRetries),
		ctx,
	)
	if err := backoff.Retry(operation, b); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStatementParser, err)
	}

	candidates := make([]billing.Candidate, 0, len(parsed.Items))
	for _, it := range parsed.Items {
		candidates = append(candidates, billing.Candidate{
			Description: it.Description,
			Category:    it.Category,
			Date:        it.Date,
			Amount:      parseAmount(it.Amount),
			Income:      strings.EqualFold(it.Type, "INCOME"),
		})
	}
	return candidates, nil
}

func (c *Client) do(ctx context.Context, body []byte, out *parseResponse) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/parse", bytes.NewReader(body))
	if err != nil {
		return backoff.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return err
	}

	switch {
	case resp.StatusCode >= 500:
		return fmt.Errorf("parser returned %d", resp.StatusCode)
	case resp.StatusCode >= 300:
		return backoff.Permanent(fmt.Errorf("parser returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data))))
	}

	*out = parseResponse{}
	if err := json.Unmarshal(data, out); err != nil {
		return backoff.Permanent(fmt.Errorf("decode parser response: %w", err))
	}
	return nil
}

// parseAmount accepts a JSON number or a numeric string. Anything else comes
// back negative so import validation rejects that line as invalid_amount.
func parseAmount(raw json.RawMessage) decimal.Decimal {
	if len(raw) == 0 || string(raw) == "null" {
		return decimal.NewFromInt(-1)
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(raw); err != nil {
		return decimal.NewFromInt(-1)
	}
	return d
}

func isPermanent(err error) bool {
	var perm *backoff.PermanentError
	return errors.As(err, &perm)
}
