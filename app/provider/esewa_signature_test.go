package provider

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

const testSecret = "8gBm/:&EnhH.1/q"

func newTestCodec(t *testing.T) *SignatureCodec {
	t.Helper()
	codec, err := NewSignatureCodec(testSecret, "EPAYTEST", "https://rc-epay.esewa.com.np/api/epay/main/v2/form")
	if err != nil {
		t.Fatalf("unexpected codec error: %v", err)
	}
	return codec
}

func sign(secret, message string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write([]byte(message))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func encode(raw string) string {
	return base64.StdEncoding.EncodeToString([]byte(raw))
}

// completePayload mimics what the gateway appends to its success redirect.
func completePayload(signature string) string {
	return `{"transaction_code":"000AWEO","status":"COMPLETE","total_amount":"450","transaction_uuid":"TXN-001","product_code":"EPAYTEST","signed_field_names":"transaction_code,status,total_amount,transaction_uuid,product_code,signed_field_names","signature":"` + signature + `"}`
}

func completeSignature(secret string) string {
	return sign(secret, "transaction_code=000AWEO,status=COMPLETE,total_amount=450,transaction_uuid=TXN-001,product_code=EPAYTEST,signed_field_names=transaction_code,status,total_amount,transaction_uuid,product_code,signed_field_names")
}

func TestNewSignatureCodecRequiresSecretAndProductCode(t *testing.T) {
	if _, err := NewSignatureCodec("", "EPAYTEST", ""); err == nil {
		t.Fatal("expected error for missing secret")
	}
	if _, err := NewSignatureCodec(testSecret, " ", ""); err == nil {
		t.Fatal("expected error for missing product code")
	}
}

func TestGenerateSignsFixedFieldOrder(t *testing.T) {
	codec := newTestCodec(t)

	signed, err := codec.Generate(decimal.NewFromInt(450), "TXN-001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := sign(testSecret, "total_amount=450,transaction_uuid=TXN-001,product_code=EPAYTEST")
	if signed.Signature != expected {
		t.Fatalf("unexpected signature: %s", signed.Signature)
	}
	if signed.SignedFieldNames != "total_amount,transaction_uuid,product_code" {
		t.Fatalf("unexpected signed field names: %s", signed.SignedFieldNames)
	}
	if signed.ProductCode != "EPAYTEST" || signed.TotalAmount != "450" || signed.TransactionUUID != "TXN-001" {
		t.Fatalf("unexpected signed request: %+v", signed)
	}
	if signed.GatewayURL == "" {
		t.Fatal("expected gateway url")
	}
}

func TestGenerateRejectsInvalidInput(t *testing.T) {
	codec := newTestCodec(t)

	if _, err := codec.Generate(decimal.Zero, "TXN-001"); err == nil {
		t.Fatal("expected error for zero amount")
	}
	if _, err := codec.Generate(decimal.NewFromInt(-5), "TXN-001"); err == nil {
		t.Fatal("expected error for negative amount")
	}
	if _, err := codec.Generate(decimal.NewFromInt(450), "  "); err == nil {
		t.Fatal("expected error for empty transaction uuid")
	}
}

func TestGenerateThenVerifyRoundTrip(t *testing.T) {
	codec := newTestCodec(t)

	signed, err := codec.Generate(decimal.RequireFromString("1250.5"), "TXN-RT")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	raw := `{"total_amount":"` + signed.TotalAmount + `","transaction_uuid":"` + signed.TransactionUUID +
		`","product_code":"` + signed.ProductCode + `","signed_field_names":"` + signed.SignedFieldNames +
		`","signature":"` + signed.Signature + `"}`

	payload := codec.Verify(encode(raw))
	if payload == nil {
		t.Fatal("expected generated signature to verify")
	}
	if payload.TotalAmount() != "1250.5" || payload.TransactionUUID() != "TXN-RT" {
		t.Fatalf("unexpected payload fields: %s %s", payload.TotalAmount(), payload.TransactionUUID())
	}
}

func TestVerifyAcceptsScenarioPayload(t *testing.T) {
	codec := newTestCodec(t)
	signature := sign(testSecret, "total_amount=450,transaction_uuid=TXN-001,product_code=EPAYTEST")
	raw := `{"status":"COMPLETE","total_amount":"450","transaction_uuid":"TXN-001","product_code":"EPAYTEST","signed_field_names":"total_amount,transaction_uuid,product_code","signature":"` + signature + `"}`

	payload := codec.Verify(encode(raw))
	if payload == nil {
		t.Fatal("expected payload to verify")
	}
	if payload.Status() != "COMPLETE" || payload.ProductCode() != "EPAYTEST" {
		t.Fatalf("unexpected payload: status=%s product=%s", payload.Status(), payload.ProductCode())
	}
}

func TestVerifyAcceptsGatewayFieldList(t *testing.T) {
	codec := newTestCodec(t)

	payload := codec.Verify(encode(completePayload(completeSignature(testSecret))))
	if payload == nil {
		t.Fatal("expected gateway payload to verify")
	}
	if payload.TransactionCode() != "000AWEO" {
		t.Fatalf("unexpected transaction code: %s", payload.TransactionCode())
	}
}

func TestVerifyKeepsNumericLiterals(t *testing.T) {
	codec := newTestCodec(t)
	signature := sign(testSecret, "total_amount=1,000.0,transaction_uuid=TXN-9,product_code=EPAYTEST")
	raw := `{"total_amount":"1,000.0","transaction_uuid":"TXN-9","product_code":"EPAYTEST","signed_field_names":"total_amount,transaction_uuid,product_code","signature":"` + signature + `"}`
	if payload := codec.Verify(encode(raw)); payload == nil || payload.TotalAmount() != "1,000.0" {
		t.Fatal("expected comma formatted amount to verify unchanged")
	}

	signature = sign(testSecret, "total_amount=450.0,transaction_uuid=TXN-10,product_code=EPAYTEST")
	raw = `{"total_amount":450.0,"transaction_uuid":"TXN-10","product_code":"EPAYTEST","signed_field_names":"total_amount,transaction_uuid,product_code","signature":"` + signature + `"}`
	if payload := codec.Verify(encode(raw)); payload == nil || payload.TotalAmount() != "450.0" {
		t.Fatal("expected numeric amount to keep its literal form")
	}
}

func TestVerifyRejectsTamperedPayloads(t *testing.T) {
	codec := newTestCodec(t)
	signature := completeSignature(testSecret)

	mutated := []byte(signature)
	if mutated[0] == 'A' {
		mutated[0] = 'B'
	} else {
		mutated[0] = 'A'
	}

	cases := map[string]string{
		"one character of signature": completePayload(string(mutated)),
		"wrong secret":               completePayload(completeSignature("other-secret")),
		"amount changed":             strings.Replace(completePayload(signature), `"total_amount":"450"`, `"total_amount":"45"`, 1),
		"status changed":             strings.Replace(completePayload(signature), `"status":"COMPLETE"`, `"status":"PENDING"`, 1),
		"field order changed": strings.Replace(completePayload(signature),
			"transaction_code,status,total_amount", "status,transaction_code,total_amount", 1),
		"signed field omitted": strings.Replace(completePayload(signature), `"transaction_code":"000AWEO",`, "", 1),
	}

	for name, raw := range cases {
		if payload := codec.Verify(encode(raw)); payload != nil {
			t.Fatalf("%s: expected verification to fail", name)
		}
	}
}

func TestVerifyRequiresCoreSignedFields(t *testing.T) {
	codec := newTestCodec(t)

	signature := sign(testSecret, "status=COMPLETE,transaction_uuid=TXN-001")
	raw := `{"status":"COMPLETE","total_amount":"450","transaction_uuid":"TXN-001","product_code":"EPAYTEST","signed_field_names":"status,transaction_uuid","signature":"` + signature + `"}`
	if codec.Verify(encode(raw)) != nil {
		t.Fatal("expected field list without total_amount to be rejected")
	}

	signature = sign(testSecret, "total_amount=450,total_amount=450,transaction_uuid=TXN-001,product_code=EPAYTEST")
	raw = `{"total_amount":"450","transaction_uuid":"TXN-001","product_code":"EPAYTEST","signed_field_names":"total_amount,total_amount,transaction_uuid,product_code","signature":"` + signature + `"}`
	if codec.Verify(encode(raw)) != nil {
		t.Fatal("expected duplicated field list to be rejected")
	}
}

func TestVerifyFailsClosedOnMalformedInput(t *testing.T) {
	codec := newTestCodec(t)

	inputs := []string{
		"",
		"not base64 !!",
		encode("not json"),
		encode(`["array"]`),
		encode(`{"total_amount":"450"}`),
		encode(`{"nested":{"a":1},"signed_field_names":"nested","signature":"x"}`),
		base64.StdEncoding.EncodeToString([]byte{0xff, 0xfe, 0xfd}),
		encode(completePayload(completeSignature(testSecret)) + `{}`),
	}
	for _, input := range inputs {
		if payload := codec.Verify(input); payload != nil {
			t.Fatalf("expected nil payload for %q", input)
		}
	}
}

func TestGatewayPayloadNilSafe(t *testing.T) {
	var payload *GatewayPayload
	if payload.Status() != "" || payload.Field("x") != "" {
		t.Fatal("expected empty values from nil payload")
	}
}
