package mpesa

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"chamapay/internal/config"
)

func TestPassword(t *testing.T) {
	ts := time.Date(2024, 3, 15, 10, 30, 45, 0, time.UTC)
	password, timestamp := Password("174379", "passkey123", ts)

	if timestamp != "20240315103045" {
		t.Errorf("timestamp = %s, want 20240315103045", timestamp)
	}

	decoded, err := base64.StdEncoding.DecodeString(password)
	if err != nil {
		t.Fatalf("password is not valid base64: %v", err)
	}
	if string(decoded) != "174379passkey12320240315103045" {
		t.Errorf("decoded password = %s, want shortcode+passkey+timestamp", decoded)
	}
}

func TestSTKPush(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oauth/v1/generate":
			user, pass, ok := r.BasicAuth()
			if !ok || user != "key" || pass != "secret" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			json.NewEncoder(w).Encode(map[string]string{
				"access_token": "test-token",
				"expires_in":   "3599",
			})
		case "/mpesa/stkpush/v1/processrequest":
			if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
				t.Errorf("Authorization = %q, want Bearer test-token", got)
			}
			var req stkPushRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("bad push body: %v", err)
			}
			if req.Amount != 500 {
				t.Errorf("push amount = %d, want 500", req.Amount)
			}
			if req.TransactionType != "CustomerPayBillOnline" {
				t.Errorf("transaction type = %s", req.TransactionType)
			}
			json.NewEncoder(w).Encode(STKPushResult{
				MerchantRequestID:   "mr-1",
				CheckoutRequestID:   "ws_CO_123",
				ResponseCode:        "0",
				ResponseDescription: "Success",
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := NewClient(&config.MpesaConfig{
		BaseURL:        server.URL,
		ConsumerKey:    "key",
		ConsumerSecret: "secret",
		ShortCode:      "174379",
		Passkey:        "passkey123",
		CallbackURL:    "https://example.com/api/mpesa/callback",
	})

	result, err := client.STKPush(context.Background(), "254712345678", 500, "CTB123", "contribution")
	if err != nil {
		t.Fatalf("STKPush failed: %v", err)
	}
	if result.CheckoutRequestID != "ws_CO_123" {
		t.Errorf("CheckoutRequestID = %s, want ws_CO_123", result.CheckoutRequestID)
	}
}

func TestSTKPushRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/oauth/v1/generate" {
			json.NewEncoder(w).Encode(map[string]string{"access_token": "t", "expires_in": "3599"})
			return
		}
		json.NewEncoder(w).Encode(STKPushResult{
			ResponseCode:        "1",
			ResponseDescription: "Insufficient funds on short code",
		})
	}))
	defer server.Close()

	client := NewClient(&config.MpesaConfig{BaseURL: server.URL})

	if _, err := client.STKPush(context.Background(), "254712345678", 100, "ref", "desc"); err == nil {
		t.Fatal("expected error for non-zero response code")
	}
}

func TestCallbackParsing(t *testing.T) {
	t.Run("success callback", func(t *testing.T) {
		raw := `{
			"Body": {
				"stkCallback": {
					"MerchantRequestID": "mr-1",
					"CheckoutRequestID": "ws_CO_123",
					"ResultCode": 0,
					"ResultDesc": "The service request is processed successfully.",
					"CallbackMetadata": {
						"Item": [
							{"Name": "Amount", "Value": 500.0},
							{"Name": "MpesaReceiptNumber", "Value": "SC4XMPS001"},
							{"Name": "TransactionDate", "Value": 20240315103045},
							{"Name": "PhoneNumber", "Value": 254712345678}
						]
					}
				}
			}
		}`

		var envelope CallbackEnvelope
		if err := json.Unmarshal([]byte(raw), &envelope); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}

		cb := envelope.Body.StkCallback
		if !cb.Success() {
			t.Error("Success() = false for ResultCode 0")
		}
		if cb.CheckoutRequestID != "ws_CO_123" {
			t.Errorf("CheckoutRequestID = %s", cb.CheckoutRequestID)
		}

		receipt, phone, amountCents := cb.Metadata()
		if receipt != "SC4XMPS001" {
			t.Errorf("receipt = %s, want SC4XMPS001", receipt)
		}
		if phone != "254712345678" {
			t.Errorf("phone = %s, want 254712345678", phone)
		}
		if amountCents != 50000 {
			t.Errorf("amountCents = %d, want 50000", amountCents)
		}
	})

	t.Run("cancelled callback has no metadata", func(t *testing.T) {
		raw := `{
			"Body": {
				"stkCallback": {
					"MerchantRequestID": "mr-2",
					"CheckoutRequestID": "ws_CO_456",
					"ResultCode": 1032,
					"ResultDesc": "Request cancelled by user"
				}
			}
		}`

		var envelope CallbackEnvelope
		if err := json.Unmarshal([]byte(raw), &envelope); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}

		cb := envelope.Body.StkCallback
		if cb.Success() {
			t.Error("Success() = true for ResultCode 1032")
		}
		receipt, phone, amountCents := cb.Metadata()
		if receipt != "" || phone != "" || amountCents != 0 {
			t.Errorf("Metadata() = (%q, %q, %d), want zero values", receipt, phone, amountCents)
		}
	})
}
