package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrGateway covers any failure while creating a remote payment intent. The
// caller surfaces it as a generic initialization failure and may start a
// fresh checkout; this layer never retries on its own because a blind resend
// risks a double charge.
var ErrGateway = errors.New("payment initialization failed")

// Intent is the gateway-side record of an amount to be collected. Amount is
// in the currency's minor unit.
type Intent struct {
	OrderID  string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type Gateway interface {
	// CreateOrder requests a remote payment intent. receipt is a
	// merchant-generated identifier the provider treats as idempotent.
	CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string) (Intent, error)
}

// Client talks to a Razorpay-style orders API using key/secret basic auth.
type Client struct {
	baseURL   string
	keyID     string
	keySecret string
	http      *http.Client
}

func NewClient(baseURL, keyID, keySecret string, timeout time.Duration) *Client {
	return &Client{
		baseURL:   baseURL,
		keyID:     keyID,
		keySecret: keySecret,
		http:      &http.Client{Timeout: timeout},
	}
}

// KeyID is the public half of the credential pair; the client page needs it
// to open the provider's payment widget.
func (c *Client) KeyID() string { return c.keyID }

type createOrderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

func (c *Client) CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string) (Intent, error) {
	body, err := json.Marshal(createOrderRequest{Amount: amountMinor, Currency: currency, Receipt: receipt})
	if err != nil {
		return Intent{}, fmt.Errorf("marshal order request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return Intent{}, fmt.Errorf("build request: %w", err)
	}
	req.SetBasicAuth(c.keyID, c.keySecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Intent{}, fmt.Errorf("create remote order: %v: %w", err, ErrGateway)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Intent{}, fmt.Errorf("gateway responded %d: %w", resp.StatusCode, ErrGateway)
	}

	var intent Intent
	if err := json.NewDecoder(resp.Body).Decode(&intent); err != nil {
		return Intent{}, fmt.Errorf("decode gateway response: %v: %w", err, ErrGateway)
	}
	if intent.OrderID == "" {
		return Intent{}, fmt.Errorf("gateway response missing order id: %w", ErrGateway)
	}

	return intent, nil
}
