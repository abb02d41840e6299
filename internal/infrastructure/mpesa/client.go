package mpesa

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"chamapay/internal/config"
)

// ============================================================================
// Daraja (Safaricom M-Pesa) STK push client
// ============================================================================
//
// Flow: POST /mpesa/stkpush/v1/processrequest with an OAuth bearer token and a
// timestamped password. Safaricom pushes a PIN prompt to the payer's phone and
// later calls our callback URL with the result, correlated by
// CheckoutRequestID. Amounts on the wire are whole KES shillings.

// Client calls the Daraja API. Safe for concurrent use; the OAuth token is
// cached until shortly before expiry.
type Client struct {
	cfg  *config.MpesaConfig
	http *http.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

func NewClient(cfg *config.MpesaConfig) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: timeout},
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   string `json:"expires_in"`
}

func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.cfg.BaseURL+"/oauth/v1/generate?grant_type=client_credentials", nil)
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.cfg.ConsumerKey, c.cfg.ConsumerSecret)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("daraja token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("daraja token request failed: status %d", resp.StatusCode)
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("daraja token decode failed: %w", err)
	}

	c.accessToken = tr.AccessToken
	// Daraja tokens last 3600s; refresh a minute early.
	c.tokenExpiry = time.Now().Add(59 * time.Minute)
	return c.accessToken, nil
}

// Password builds the Daraja transaction password for a given timestamp:
// base64(shortcode + passkey + timestamp), timestamp format yyyyMMddHHmmss.
func Password(shortCode, passkey string, t time.Time) (password, timestamp string) {
	timestamp = t.Format("20060102150405")
	password = base64.StdEncoding.EncodeToString([]byte(shortCode + passkey + timestamp))
	return password, timestamp
}

type stkPushRequest struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	TransactionType   string `json:"TransactionType"`
	Amount            int64  `json:"Amount"`
	PartyA            string `json:"PartyA"`
	PartyB            string `json:"PartyB"`
	PhoneNumber       string `json:"PhoneNumber"`
	CallBackURL       string `json:"CallBackURL"`
	AccountReference  string `json:"AccountReference"`
	TransactionDesc   string `json:"TransactionDesc"`
}

// STKPushResult is Daraja's synchronous acknowledgement of a push request.
type STKPushResult struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CustomerMessage     string `json:"CustomerMessage"`
}

// STKPush initiates a customer-pay-bill-online push. amountKES is whole
// shillings; phone is MSISDN format (2547XXXXXXXX).
func (c *Client) STKPush(ctx context.Context, phone string, amountKES int64, accountRef, desc string) (*STKPushResult, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}

	password, timestamp := Password(c.cfg.ShortCode, c.cfg.Passkey, time.Now())
	body := stkPushRequest{
		BusinessShortCode: c.cfg.ShortCode,
		Password:          password,
		Timestamp:         timestamp,
		TransactionType:   "CustomerPayBillOnline",
		Amount:            amountKES,
		PartyA:            phone,
		PartyB:            c.cfg.ShortCode,
		PhoneNumber:       phone,
		CallBackURL:       c.cfg.CallbackURL,
		AccountReference:  accountRef,
		TransactionDesc:   desc,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/mpesa/stkpush/v1/processrequest", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stk push request failed: %w", err)
	}
	defer resp.Body.Close()

	var result STKPushResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("stk push decode failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK || result.ResponseCode != "0" {
		return nil, fmt.Errorf("stk push rejected: code=%s desc=%s", result.ResponseCode, result.ResponseDescription)
	}

	return &result, nil
}

// ============================================================================
// Callback payload
// ============================================================================

// CallbackEnvelope is the JSON Safaricom posts to our callback URL.
type CallbackEnvelope struct {
	Body struct {
		StkCallback StkCallback `json:"stkCallback"`
	} `json:"Body"`
}

type StkCallback struct {
	MerchantRequestID string `json:"MerchantRequestID"`
	CheckoutRequestID string `json:"CheckoutRequestID"`
	ResultCode        int    `json:"ResultCode"`
	ResultDesc        string `json:"ResultDesc"`
	CallbackMetadata  struct {
		Item []CallbackItem `json:"Item"`
	} `json:"CallbackMetadata"`
}

type CallbackItem struct {
	Name  string      `json:"Name"`
	Value interface{} `json:"Value"`
}

// Success reports whether the payer completed the payment.
func (c *StkCallback) Success() bool {
	return c.ResultCode == 0
}

// Metadata extracts the receipt number, payer phone and paid amount (KES
// cents) from the callback item list. Fields absent on failure callbacks come
// back zero-valued.
func (c *StkCallback) Metadata() (receipt, phone string, amountCents int64) {
	for _, item := range c.CallbackMetadata.Item {
		switch item.Name {
		case "MpesaReceiptNumber":
			if s, ok := item.Value.(string); ok {
				receipt = s
			}
		case "PhoneNumber":
			switch v := item.Value.(type) {
			case string:
				phone = v
			case float64:
				phone = fmt.Sprintf("%.0f", v)
			}
		case "Amount":
			if f, ok := item.Value.(float64); ok {
				amountCents = int64(f * 100)
			}
		}
	}
	return receipt, phone, amountCents
}
