package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/Wahyuw1j4/ziyad-book/internal/config"
	"github.com/Wahyuw1j4/ziyad-book/internal/domain"
	"github.com/Wahyuw1j4/ziyad-book/internal/services/borrow"
)

// Ensure WebhookNotifier implements borrow.Publisher
var _ borrow.Publisher = (*WebhookNotifier)(nil)

// WebhookNotifier POSTs borrow events as JSON to a configured URL. Failed
// deliveries are reported as domain.HTTPError so the error mapper classifies
// them as HTTP_REQUEST_ERROR with the upstream status.
type WebhookNotifier struct {
	url    string
	client *http.Client
	logger *zap.Logger
}

// NewWebhookNotifier creates a webhook notifier for the given configuration.
func NewWebhookNotifier(cfg config.WebhookConfig, logger *zap.Logger) *WebhookNotifier {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &WebhookNotifier{
		url:    cfg.URL,
		client: &http.Client{Timeout: timeout},
		logger: logger.Named("webhook-notifier"),
	}
}

// Publish delivers the event, expecting a 2xx response.
func (n *WebhookNotifier) Publish(ctx context.Context, event borrow.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(payload))
	if err != nil {
		return &domain.HTTPError{Method: http.MethodPost, URL: n.url, Message: err.Error(), Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return &domain.HTTPError{Method: http.MethodPost, URL: n.url, Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &domain.HTTPError{
			Method:  http.MethodPost,
			URL:     n.url,
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("webhook returned status %d", resp.StatusCode),
		}
	}

	n.logger.Debug("Delivered event", zap.String("type", event.Type))
	return nil
}
