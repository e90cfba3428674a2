package notifier

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/Youndhen-tamang/kundcoffee-sub002/app/entity"
	"github.com/Youndhen-tamang/kundcoffee-sub002/app/mapper"
	"github.com/Youndhen-tamang/kundcoffee-sub002/app/types"
)

// ErrNoDestination means the payment can never be delivered by this
// notifier. Retrying will not help.
var ErrNoDestination = errors.New("notification destination is not configured")

type Notifier interface {
	Notify(ctx context.Context, payment *entity.Payment) error
}

func encodePayment(payment *entity.Payment) ([]byte, error) {
	return json.Marshal(&types.PaymentEnvelopeResponse{Payment: mapper.PaymentToProto(payment)})
}
