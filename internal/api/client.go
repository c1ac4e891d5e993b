package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"duedesk/internal/config"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	salesPath    = "/sales"
	accountsPath = "/payment-accounts"
)

var (
	ErrMissingBaseURL = errors.New("api base url is required")
	ErrMissingToken   = errors.New("api token is required")
	ErrMissingSaleID  = errors.New("sale id is required")
	ErrUnauthorized   = errors.New("api unauthorized")
	ErrNotFound       = errors.New("record not found")
)

type APIError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: %s", e.Status)
	}
	return fmt.Sprintf("api error: %s: %s", e.Status, e.Message)
}

// Client talks to the sales backend. It performs no retries: a failed
// request surfaces exactly once and the caller decides what to report.
type Client struct {
	http   *resty.Client
	logger *zap.Logger
}

func NewClient(cfg config.Config, logger *zap.Logger) *Client {
	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(strings.TrimSpace(cfg.APIBaseURL), "/")).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json").
		SetTimeout(cfg.Timeout).
		OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			req.SetHeader("X-Request-ID", uuid.NewString())
			return nil
		})

	if cfg.APIToken != "" {
		httpClient.SetAuthScheme("Bearer")
		httpClient.SetAuthToken(cfg.APIToken)
	}

	return &Client{
		http:   httpClient,
		logger: logger.Named("api"),
	}
}

// FetchSales reads the sales collection behind path. Distinct report
// views pass different paths against the same client.
func (c *Client) FetchSales(ctx context.Context, path string) ([]SaleRecord, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(path) == "" {
		path = salesPath
	}

	var resp dataEnvelope[[]SaleRecord]
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (c *Client) FetchAccounts(ctx context.Context) ([]PaymentAccount, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}

	var resp dataEnvelope[[]PaymentAccount]
	if err := c.do(ctx, http.MethodGet, accountsPath, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// SubmitPayment applies a due payment to one memo and returns the
// server's updated record. The server owns the business validation;
// callers only pre-check to avoid wasted round trips.
func (c *Client) SubmitPayment(ctx context.Context, saleID string, amount decimal.Decimal, accountID string) (SaleRecord, error) {
	if err := c.ready(); err != nil {
		return SaleRecord{}, err
	}
	if strings.TrimSpace(saleID) == "" {
		return SaleRecord{}, ErrMissingSaleID
	}

	body := paymentRequest{
		PayAmount:        amount.InexactFloat64(),
		PaymentAccountID: accountID,
	}

	var resp dataEnvelope[SaleRecord]
	path := salesPath + "/receive-customer-due/" + url.PathEscape(saleID)
	if err := c.do(ctx, http.MethodPatch, path, body, &resp); err != nil {
		return SaleRecord{}, err
	}
	return resp.Data, nil
}

func (c *Client) DeleteSale(ctx context.Context, saleID string) error {
	if err := c.ready(); err != nil {
		return err
	}
	if strings.TrimSpace(saleID) == "" {
		return ErrMissingSaleID
	}

	path := salesPath + "/" + url.PathEscape(saleID)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	req := c.http.R().SetContext(ctx)
	if body != nil {
		req.SetBody(body)
	}
	if result != nil {
		req.SetResult(result)
	}

	start := time.Now()
	resp, err := req.Execute(method, path)
	elapsed := time.Since(start)

	fields := []zap.Field{
		zap.String("method", method),
		zap.String("path", path),
		zap.Int64("ms", elapsed.Milliseconds()),
	}
	if resp != nil {
		fields = append(fields, zap.Int("status", resp.StatusCode()))
	}

	if err != nil {
		c.logger.Warn("api call failed", append(fields, zap.Error(err))...)
		return fmt.Errorf("api request: %w", err)
	}
	if resp.IsError() {
		apiErr := apiErrorFromResponse(resp)
		c.logger.Warn("api call rejected", append(fields, zap.Error(apiErr))...)
		return apiErr
	}

	c.logger.Info("api call", fields...)
	return nil
}

func (c *Client) ready() error {
	if c.http.BaseURL == "" {
		return ErrMissingBaseURL
	}
	if strings.TrimSpace(c.http.Token) == "" {
		return ErrMissingToken
	}
	return nil
}

func apiErrorFromResponse(resp *resty.Response) error {
	message := strings.TrimSpace(resp.String())
	var body errorBody
	if json.Unmarshal(resp.Body(), &body) == nil && strings.TrimSpace(body.Message) != "" {
		message = strings.TrimSpace(body.Message)
	}

	apiErr := &APIError{
		StatusCode: resp.StatusCode(),
		Status:     resp.Status(),
		Message:    message,
	}

	switch resp.StatusCode() {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrUnauthorized, apiErr.Error())
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, apiErr.Error())
	default:
		return apiErr
	}
}
