package provider

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const ESewaSignedFieldNames = "total_amount,transaction_uuid,product_code"

var esewaRequiredSignedFields = []string{"total_amount", "transaction_uuid", "product_code"}

// SignedRequest is the signed part of a gateway form submission.
type SignedRequest struct {
	Signature        string
	SignedFieldNames string
	ProductCode      string
	TotalAmount      string
	TransactionUUID  string
	GatewayURL       string
}

// GatewayPayload is a decoded gateway result whose signature has been checked.
type GatewayPayload struct {
	fields map[string]string
}

func (p *GatewayPayload) Field(name string) string {
	if p == nil {
		return ""
	}
	return p.fields[name]
}

func (p *GatewayPayload) TransactionUUID() string { return p.Field("transaction_uuid") }
func (p *GatewayPayload) TotalAmount() string { return p.Field("total_amount") }
func (p *GatewayPayload) ProductCode() string { return p.Field("product_code") }
func (p *GatewayPayload) Status() string { return p.Field("status") }
func (p *GatewayPayload) TransactionCode() string { return p.Field("transaction_code") }

type SignatureCodec struct {
	secret      []byte
	productCode string
	gatewayURL  string
}

func NewSignatureCodec(secret, productCode, gatewayURL string) (*SignatureCodec, error) {
	if secret == "" {
		return nil, errors.New("esewa secret key is not configured")
	}
	productCode = strings.TrimSpace(productCode)
	if productCode == "" {
		return nil, errors.New("esewa product code is not configured")
	}
	return &SignatureCodec{
		secret:      []byte(secret),
		productCode: productCode,
		gatewayURL:  strings.TrimSpace(gatewayURL),
	}, nil
}

func (c *SignatureCodec) ProductCode() string {
	return c.productCode
}

// Generate signs total_amount, transaction_uuid and product_code in that order.
func (c *SignatureCodec) Generate(amount decimal.Decimal, transactionUUID string) (*SignedRequest, error) {
	if !amount.IsPositive() {
		return nil, errors.New("amount must be greater than zero")
	}
	transactionUUID = strings.TrimSpace(transactionUUID)
	if transactionUUID == "" {
		return nil, errors.New("transaction uuid is required")
	}

	totalAmount := amount.String()
	message := "total_amount=" + totalAmount + ",transaction_uuid=" + transactionUUID + ",product_code=" + c.productCode

	return &SignedRequest{
		Signature:        base64.StdEncoding.EncodeToString(c.sum(message)),
		SignedFieldNames: ESewaSignedFieldNames,
		ProductCode:      c.productCode,
		TotalAmount:      totalAmount,
		TransactionUUID:  transactionUUID,
		GatewayURL:       c.gatewayURL,
	}, nil
}

// Verify decodes a base64 JSON gateway result and checks its signature over
// the fields it claims to have signed, in the claimed order. It returns nil
// for anything that cannot be trusted.
func (c *SignatureCodec) Verify(encoded string) *GatewayPayload {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil || !utf8.Valid(raw) {
		return nil
	}

	fields, ok := decodeGatewayFields(raw)
	if !ok {
		return nil
	}

	names, ok := parseSignedFieldNames(fields["signed_field_names"])
	if !ok {
		return nil
	}

	claimed, err := base64.StdEncoding.DecodeString(strings.TrimSpace(fields["signature"]))
	if err != nil || len(claimed) == 0 {
		return nil
	}

	parts := make([]string, 0, len(names))
	for _, name := range names {
		value, present := fields[name]
		if !present {
			return nil
		}
		parts = append(parts, name+"="+value)
	}

	if !hmac.Equal(c.sum(strings.Join(parts, ",")), claimed) {
		return nil
	}
	return &GatewayPayload{fields: fields}
}

func (c *SignatureCodec) sum(message string) []byte {
	mac := hmac.New(sha256.New, c.secret)
	_, _ = mac.Write([]byte(message))
	return mac.Sum(nil)
}

// decodeGatewayFields flattens a JSON object of scalars into strings, keeping
// numbers in their literal form so the signed text is reproduced exactly.
func decodeGatewayFields(raw []byte) (map[string]string, bool) {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()

	var object map[string]any
	if err := decoder.Decode(&object); err != nil || object == nil {
		return nil, false
	}
	if decoder.More() {
		return nil, false
	}

	fields := make(map[string]string, len(object))
	for key, value := range object {
		switch v := value.(type) {
		case string:
			fields[key] = v
		case json.Number:
			fields[key] = v.String()
		case bool:
			fields[key] = strconv.FormatBool(v)
		case nil:
			fields[key] = ""
		default:
			return nil, false
		}
	}
	return fields, true
}

func parseSignedFieldNames(raw string) ([]string, bool) {
	if strings.TrimSpace(raw) == "" {
		return nil, false
	}

	names := strings.Split(raw, ",")
	seen := make(map[string]struct{}, len(names))
	for i, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || name == "signature" {
			return nil, false
		}
		if _, dup := seen[name]; dup {
			return nil, false
		}
		seen[name] = struct{}{}
		names[i] = name
	}

	for _, required := range esewaRequiredSignedFields {
		if _, ok := seen[required]; !ok {
			return nil, false
		}
	}
	return names, true
}
