package razorpay

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/arunmurugan-dev/kadai-backend/pkg/config"
	pkgerrors "github.com/arunmurugan-dev/kadai-backend/pkg/errors"
	"github.com/arunmurugan-dev/kadai-backend/pkg/logger"
)

func testClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	client, err := NewClient(context.Background(), config.RazorpayConfig{
		KeyID:         "rzp_test_key",
		KeySecret:     "key_secret",
		WebhookSecret: "webhook_secret",
		BaseURL:       baseURL,
	}, logger.New(logger.Options{ServiceName: "test", Output: io.Discard}))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestNewClientRejectsBlankCredentials(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})

	cases := []config.RazorpayConfig{
		{KeySecret: "s", WebhookSecret: "w"},
		{KeyID: "k", WebhookSecret: "w"},
		{KeyID: "k", KeySecret: "s"},
		{KeyID: "   ", KeySecret: "s", WebhookSecret: "w"},
	}
	for i, cfg := range cases {
		if _, err := NewClient(context.Background(), cfg, logg); err == nil {
			t.Errorf("case %d: expected error", i)
		}
	}
}

func TestVerifyWebhookSignature(t *testing.T) {
	client := testClient(t, "http://gateway.invalid")
	body := []byte(`{"event":"payment.captured"}`)

	if err := client.VerifyWebhookSignature(body, sign("webhook_secret", body)); err != nil {
		t.Fatalf("valid signature rejected: %v", err)
	}

	cases := map[string]string{
		"missing":      "",
		"malformed":    "not-hex",
		"wrong secret": sign("other_secret", body),
		"wrong body":   sign("webhook_secret", []byte("tampered")),
	}
	for name, signature := range cases {
		err := client.VerifyWebhookSignature(body, signature)
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeSignature {
			t.Errorf("%s: expected signature error, got %v", name, err)
		}
	}
}

func TestVerifyPaymentSignature(t *testing.T) {
	client := testClient(t, "http://gateway.invalid")
	payload := []byte("order_abc|pay_xyz")

	if err := client.VerifyPaymentSignature("order_abc", "pay_xyz", sign("key_secret", payload)); err != nil {
		t.Fatalf("valid handback signature rejected: %v", err)
	}
	if err := client.VerifyPaymentSignature("order_abc", "pay_other", sign("key_secret", payload)); err == nil {
		t.Fatalf("signature over wrong payment id must fail")
	}
}

func TestCreateOrder(t *testing.T) {
	var gotAuthUser, gotAuthPass string
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuthUser, gotAuthPass, _ = r.BasicAuth()
		if r.Method != http.MethodPost || r.URL.Path != "/orders" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"order_123","amount":59000,"currency":"INR","receipt":"1042","status":"created"}`))
	}))
	defer server.Close()

	client := testClient(t, server.URL)
	order, err := client.CreateOrder(context.Background(), OrderCreateParams{
		AmountPaise: 59000,
		Receipt:     "1042",
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	if order.ID != "order_123" || order.AmountPaise != 59000 || order.Status != "created" {
		t.Errorf("order = %+v", order)
	}
	if gotAuthUser != "rzp_test_key" || gotAuthPass != "key_secret" {
		t.Errorf("basic auth = %s:%s", gotAuthUser, gotAuthPass)
	}
	if gotBody["currency"] != "INR" {
		t.Errorf("currency must default to INR, body = %v", gotBody)
	}
	if gotBody["amount"] != float64(59000) {
		t.Errorf("amount = %v", gotBody["amount"])
	}
}

func TestCreateOrderMapsAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"amount must be at least 100"}}`))
	}))
	defer server.Close()

	client := testClient(t, server.URL)
	_, err := client.CreateOrder(context.Background(), OrderCreateParams{AmountPaise: 1})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateOrderGatewayOutage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := testClient(t, server.URL)
	_, err := client.CreateOrder(context.Background(), OrderCreateParams{AmountPaise: 59000})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestFetchOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/orders/order_123" {
			t.Errorf("path = %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"id":"order_123","amount":59000,"currency":"INR","status":"paid"}`))
	}))
	defer server.Close()

	client := testClient(t, server.URL)
	order, err := client.FetchOrder(context.Background(), "order_123")
	if err != nil {
		t.Fatalf("FetchOrder: %v", err)
	}
	if order.Status != "paid" {
		t.Errorf("status = %s", order.Status)
	}

	if _, err := client.FetchOrder(context.Background(), "  "); err == nil {
		t.Fatalf("blank order id must fail")
	}
}
