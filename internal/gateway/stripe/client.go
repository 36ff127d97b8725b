package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultAPIBase = "https://api.stripe.com"

// Client is a thin HTTP client for the provider's intent API. It speaks
// form-encoded requests and returns typed errors for non-2xx replies.
type Client struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
}

func NewClient(baseURL, secretKey string) *Client {
	if baseURL == "" {
		baseURL = defaultAPIBase
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		secretKey: secretKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// APIError is a provider-side failure: a 4xx/5xx reply carrying the
// provider's error object.
type APIError struct {
	Type       string `json:"type"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Raw        json.RawMessage
}

func (e *APIError) Error() string {
	return fmt.Sprintf("stripe error [%s/%s]: %s (status: %d)", e.Type, e.Code, e.Message, e.StatusCode)
}

// UserMessage is the human-readable text surfaced to callers.
func (e *APIError) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	return "The payment provider rejected the request."
}

func IsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	ok := errors.As(err, &apiErr)
	return apiErr, ok
}

// Intent mirrors the provider's payment-intent object, reduced to the fields
// the adapter consumes.
type Intent struct {
	ID            string `json:"id"`
	Status        string `json:"status"`
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
	PaymentMethod string `json:"payment_method"`
	Customer      string `json:"customer"`
}

type Refund struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type Customer struct {
	ID string `json:"id"`
}

type PaymentMethodCard struct {
	Brand    string `json:"brand"`
	Last4    string `json:"last4"`
	ExpMonth int    `json:"exp_month"`
	ExpYear  int    `json:"exp_year"`
}

type PaymentMethod struct {
	ID   string            `json:"id"`
	Card PaymentMethodCard `json:"card"`
}

type paymentMethodList struct {
	Data []PaymentMethod `json:"data"`
}

func (c *Client) CreateIntent(ctx context.Context, params url.Values) (*Intent, json.RawMessage, error) {
	return send[Intent](c, ctx, http.MethodPost, "/v1/payment_intents", params)
}

func (c *Client) RetrieveIntent(ctx context.Context, id string) (*Intent, json.RawMessage, error) {
	return send[Intent](c, ctx, http.MethodGet, "/v1/payment_intents/"+url.PathEscape(id), nil)
}

func (c *Client) CaptureIntent(ctx context.Context, id string, params url.Values) (*Intent, json.RawMessage, error) {
	return send[Intent](c, ctx, http.MethodPost, "/v1/payment_intents/"+url.PathEscape(id)+"/capture", params)
}

func (c *Client) ConfirmIntent(ctx context.Context, id string) (*Intent, json.RawMessage, error) {
	return send[Intent](c, ctx, http.MethodPost, "/v1/payment_intents/"+url.PathEscape(id)+"/confirm", nil)
}

func (c *Client) CancelIntent(ctx context.Context, id string) (*Intent, json.RawMessage, error) {
	return send[Intent](c, ctx, http.MethodPost, "/v1/payment_intents/"+url.PathEscape(id)+"/cancel", nil)
}

func (c *Client) CreateRefund(ctx context.Context, params url.Values) (*Refund, json.RawMessage, error) {
	return send[Refund](c, ctx, http.MethodPost, "/v1/refunds", params)
}

func (c *Client) CreateCustomer(ctx context.Context, params url.Values) (*Customer, json.RawMessage, error) {
	return send[Customer](c, ctx, http.MethodPost, "/v1/customers", params)
}

func (c *Client) ListPaymentMethods(ctx context.Context, customerID string) ([]PaymentMethod, error) {
	params := url.Values{}
	params.Set("customer", customerID)
	params.Set("type", "card")

	list, _, err := send[paymentMethodList](c, ctx, http.MethodGet, "/v1/payment_methods?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	return list.Data, nil
}

func send[Resp any](c *Client, ctx context.Context, method, path string, params url.Values) (*Resp, json.RawMessage, error) {
	var bodyReader io.Reader
	if params != nil {
		bodyReader = strings.NewReader(params.Encode())
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, nil, fmt.Errorf("error creating request: %w", err)
	}

	httpReq.Header.Set("Authorization", "Bearer "+c.secretKey)
	if params != nil {
		httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, nil, fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("error reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var envelope struct {
			Error APIError `json:"error"`
		}
		if err := json.Unmarshal(body, &envelope); err != nil {
			return nil, body, fmt.Errorf("stripe returned status %d: %s", resp.StatusCode, string(body))
		}
		apiErr := envelope.Error
		apiErr.StatusCode = resp.StatusCode
		apiErr.Raw = body
		return nil, body, &apiErr
	}

	var decoded Resp
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, body, fmt.Errorf("error decoding json response: %w", err)
	}

	return &decoded, body, nil
}
