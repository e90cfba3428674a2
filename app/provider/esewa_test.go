package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Youndhen-tamang/kundcoffee-sub002/app/types"
)

func newTestESewaProvider(t *testing.T, statusURL string) *ESewaProvider {
	t.Helper()
	p, err := NewESewaProvider(ESewaConfig{
		SecretKey:   testSecret,
		ProductCode: "EPAYTEST",
		FormURL:     "https://rc-epay.esewa.com.np/api/epay/main/v2/form",
		StatusURL:   statusURL,
		SuccessURL:  "https://pos.example.com/payment/success",
		FailureURL:  "https://pos.example.com/payment/failure",
	})
	if err != nil {
		t.Fatalf("unexpected provider error: %v", err)
	}
	return p
}

func TestESewaCreatePaymentIssuesTransactionUUID(t *testing.T) {
	p := newTestESewaProvider(t, "")

	out, err := p.CreatePayment(context.Background(), &CreateInput{AmountCents: 45000, Currency: "NPR"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.TransactionUUID == "" {
		t.Fatal("expected transaction uuid")
	}
	if out.InitialStatus != int32(types.PaymentStatusPending) {
		t.Fatalf("unexpected initial status: %d", out.InitialStatus)
	}

	if _, err := p.CreatePayment(context.Background(), &CreateInput{AmountCents: 45000, Currency: "USD"}); err == nil {
		t.Fatal("expected error for unsupported currency")
	}
	if _, err := p.CreatePayment(context.Background(), &CreateInput{AmountCents: 0, Currency: "NPR"}); err == nil {
		t.Fatal("expected error for zero amount")
	}
}

func TestESewaGatewayConfig(t *testing.T) {
	p := newTestESewaProvider(t, "")

	cfg, err := p.GatewayConfig(context.Background(), &GatewayConfigInput{AmountCents: 45000, TransactionUUID: "TXN-001"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Signature != sign(testSecret, "total_amount=450,transaction_uuid=TXN-001,product_code=EPAYTEST") {
		t.Fatalf("unexpected signature: %s", cfg.Signature)
	}
	if cfg.Amount != "450" || cfg.TotalAmount != "450" || cfg.TaxAmount != "0" {
		t.Fatalf("unexpected amounts: %+v", cfg)
	}
	if cfg.SuccessURL != "https://pos.example.com/payment/success" || cfg.FailureURL != "https://pos.example.com/payment/failure" {
		t.Fatalf("unexpected redirect urls: %+v", cfg)
	}
	if cfg.GatewayURL != "https://rc-epay.esewa.com.np/api/epay/main/v2/form" {
		t.Fatalf("unexpected gateway url: %s", cfg.GatewayURL)
	}
}

func TestESewaVerifyAndParseCallback(t *testing.T) {
	p := newTestESewaProvider(t, "")

	event, err := p.VerifyAndParseCallback(context.Background(), encode(completePayload(completeSignature(testSecret))))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event.NewStatus != int32(types.PaymentStatusPaid) || event.GatewayStatus != ESewaStatusComplete {
		t.Fatalf("unexpected event status: %+v", event)
	}
	if event.ProviderRef == nil || *event.ProviderRef != "000AWEO" {
		t.Fatalf("unexpected provider ref: %v", event.ProviderRef)
	}
	if event.TransactionUUID != "TXN-001" || event.TotalAmount != "450" {
		t.Fatalf("unexpected event: %+v", event)
	}
	if event.PayloadJSON == "" {
		t.Fatal("expected payload json")
	}

	_, err = p.VerifyAndParseCallback(context.Background(), encode(completePayload(completeSignature("wrong"))))
	if !errors.Is(err, ErrInvalidCallback) {
		t.Fatalf("expected ErrInvalidCallback, got %v", err)
	}
}

func TestESewaVerifyRejectsOtherProductCode(t *testing.T) {
	p := newTestESewaProvider(t, "")

	signature := sign(testSecret, "total_amount=450,transaction_uuid=TXN-001,product_code=OTHER")
	raw := `{"status":"COMPLETE","total_amount":"450","transaction_uuid":"TXN-001","product_code":"OTHER","signed_field_names":"total_amount,transaction_uuid,product_code","signature":"` + signature + `"}`

	if _, err := p.VerifyAndParseCallback(context.Background(), encode(raw)); !errors.Is(err, ErrInvalidCallback) {
		t.Fatalf("expected ErrInvalidCallback, got %v", err)
	}
}

func TestESewaGetPaymentStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("product_code") != "EPAYTEST" || q.Get("total_amount") != "450" || q.Get("transaction_uuid") != "TXN-001" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"code":0,"error_message":"bad query"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"product_code":"EPAYTEST","transaction_uuid":"TXN-001","total_amount":450.0,"status":"COMPLETE","ref_id":"0007G36"}`))
	}))
	defer server.Close()

	p := newTestESewaProvider(t, server.URL)

	result, err := p.GetPaymentStatus(context.Background(), &StatusQuery{TransactionUUID: "TXN-001", AmountCents: 45000})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.GatewayStatus != ESewaStatusComplete || result.NewStatus != int32(types.PaymentStatusPaid) {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.ProviderRef == nil || *result.ProviderRef != "0007G36" {
		t.Fatalf("unexpected ref id: %v", result.ProviderRef)
	}

	if _, err := p.GetPaymentStatus(context.Background(), &StatusQuery{TransactionUUID: "TXN-001", AmountCents: 100}); err == nil {
		t.Fatal("expected error for gateway failure response")
	}
}

func TestESewaGetPaymentStatusNoChangeStates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":"NOT_FOUND","ref_id":null}`))
	}))
	defer server.Close()

	p := newTestESewaProvider(t, server.URL)
	result, err := p.GetPaymentStatus(context.Background(), &StatusQuery{TransactionUUID: "TXN-404", AmountCents: 45000})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.NewStatus != 0 || result.ProviderRef != nil {
		t.Fatalf("expected no status change, got %+v", result)
	}
}

func TestMapESewaStatus(t *testing.T) {
	cases := map[string]int32{
		ESewaStatusComplete:      int32(types.PaymentStatusPaid),
		ESewaStatusCanceled:      int32(types.PaymentStatusCanceled),
		ESewaStatusFullRefund:    int32(types.PaymentStatusRefunded),
		ESewaStatusPending:       0,
		ESewaStatusAmbiguous:     0,
		ESewaStatusPartialRefund: 0,
		ESewaStatusNotFound:      0,
	}
	for status, expected := range cases {
		if got := mapESewaStatus(status); got != expected {
			t.Fatalf("mapESewaStatus(%s) = %d, expected %d", status, got, expected)
		}
	}
}

func TestRegistryGet(t *testing.T) {
	p := newTestESewaProvider(t, "")
	registry := NewRegistry(p)

	got, err := registry.Get(int32(types.ProviderTypeESewa))
	if err != nil || got != p {
		t.Fatalf("expected esewa provider, got %v err=%v", got, err)
	}
	if _, err := registry.Get(99); !errors.Is(err, ErrProviderNotSupported) {
		t.Fatalf("expected ErrProviderNotSupported, got %v", err)
	}
	if codes := registry.Codes(); len(codes) != 1 || codes[0] != int32(types.ProviderTypeESewa) {
		t.Fatalf("unexpected registered codes: %v", codes)
	}
}
