package mapper

import (
	"time"

	"github.com/Youndhen-tamang/kundcoffee-sub002/app/entity"
	"github.com/Youndhen-tamang/kundcoffee-sub002/app/provider"
	"github.com/Youndhen-tamang/kundcoffee-sub002/app/types"
)

func PaymentToProto(item *entity.Payment) *types.Payment {
	if item == nil {
		return nil
	}

	result := &types.Payment{
		Id:                item.ID,
		StoreId:           item.StoreID,
		RequestId:         item.RequestID,
		Amount:            provider.FormatAmount(item.AmountCents),
		AmountCents:       item.AmountCents,
		Currency:          item.Currency,
		Status:            types.PaymentStatus(item.Status).String(),
		StatusCode:        item.Status,
		Provider:          types.ProviderType(item.Provider).String(),
		TransactionUuid:   item.TransactionUUID,
		ProviderRef:       derefString(item.ProviderRef),
		StatusCallbackUrl: item.StatusCallbackURL,
		Metadata:          cloneMetadata(item.Metadata),
		CreatedAt:         item.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:         item.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if item.SessionID != nil {
		result.SessionId = *item.SessionID
	}
	if item.SettledAt != nil {
		result.SettledAt = item.SettledAt.UTC().Format(time.RFC3339)
	}

	return result
}

func PaymentsToProto(items []*entity.Payment) []*types.Payment {
	result := make([]*types.Payment, 0, len(items))
	for _, item := range items {
		result = append(result, PaymentToProto(item))
	}
	return result
}

func GatewayConfigToProto(cfg *provider.GatewayConfig) *types.GatewayConfigResponse {
	if cfg == nil {
		return &types.GatewayConfigResponse{Success: false}
	}

	return &types.GatewayConfigResponse{
		Success:               true,
		Signature:             cfg.Signature,
		ProductCode:           cfg.ProductCode,
		SignedFieldNames:      cfg.SignedFieldNames,
		Amount:                cfg.Amount,
		TaxAmount:             cfg.TaxAmount,
		TotalAmount:           cfg.TotalAmount,
		ProductServiceCharge:  cfg.ProductServiceCharge,
		ProductDeliveryCharge: cfg.ProductDeliveryCharge,
		TransactionUuid:       cfg.TransactionUUID,
		SuccessUrl:            cfg.SuccessURL,
		FailureUrl:            cfg.FailureURL,
		GatewayUrl:            cfg.GatewayURL,
	}
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func cloneMetadata(src map[string]string) map[string]string {
	if len(src) == 0 {
		return map[string]string{}
	}
	dst := make(map[string]string, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
