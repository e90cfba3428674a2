package notifier

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Youndhen-tamang/kundcoffee-sub002/app/entity"
)

// HTTPNotifier posts the payment to the status_callback_url it was created with.
type HTTPNotifier struct {
	client *http.Client
	apiKey string
}

func NewHTTPNotifier(timeout time.Duration, apiKey string) *HTTPNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPNotifier{
		client: &http.Client{Timeout: timeout},
		apiKey: strings.TrimSpace(apiKey),
	}
}

func (n *HTTPNotifier) Notify(ctx context.Context, payment *entity.Payment) error {
	target := strings.TrimSpace(payment.StatusCallbackURL)
	if target == "" {
		return ErrNoDestination
	}

	body, err := encodePayment(payment)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", payment.RequestID)
	req.Header.Set("X-Store-ID", payment.StoreID)
	if n.apiKey != "" {
		req.Header.Set("X-API-Key", n.apiKey)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("callback endpoint returned status=%d", resp.StatusCode)
	}
	return nil
}
