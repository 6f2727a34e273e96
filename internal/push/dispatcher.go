// Package push implements the Web Push notification dispatcher.
//
// It encrypts and delivers payloads to subscriber endpoints using VAPID
// authentication, and classifies every provider response into a delivery
// outcome. The two "endpoint no longer valid" status codes (410 Gone and
// 404 Not Found) are terminal: the orchestrator reacts by retiring the
// subscription. Everything else -- network errors, 5xx, 429, other 4xx --
// is transient and retried implicitly on the next daily tick.
package push

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"

	"weatherwatch/internal/config"
	"weatherwatch/internal/security"
	"weatherwatch/internal/types"
)

// maxResponseBodyRead limits how much of a provider response body is drained.
const maxResponseBodyRead = 4096

// sendFunc matches webpush.SendNotificationWithContext and is injectable for
// tests, which exercise the outcome classification without the encryption
// round trip.
type sendFunc func(ctx context.Context, message []byte, s *webpush.Subscription, options *webpush.Options) (*http.Response, error)

// Compile-time assertion that Dispatcher implements types.PushTransport.
var _ types.PushTransport = (*Dispatcher)(nil)

// Dispatcher delivers notification payloads over Web Push.
type Dispatcher struct {
	cfg        *config.PushConfig
	httpClient *http.Client
	send       sendFunc
	logger     *slog.Logger
}

// NewDispatcher creates a Dispatcher with an SSRF-guarded HTTP client.
// Subscriber endpoints are untrusted URLs; the guard refuses private,
// loopback, and link-local destinations and requires HTTPS.
func NewDispatcher(cfg *config.PushConfig, logger *slog.Logger) (*Dispatcher, error) {
	if cfg == nil {
		return nil, fmt.Errorf("push dispatcher: config is nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	httpClient := security.NewSafeHTTPClient(cfg.Timeout, 3)
	if cfg.AllowInsecureEndpoints {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Dispatcher{
		cfg:        cfg,
		httpClient: httpClient,
		send:       webpush.SendNotificationWithContext,
		logger:     logger,
	}, nil
}

// newDispatcherWithSend exists for testing; it injects a fake send function.
func newDispatcherWithSend(cfg *config.PushConfig, send sendFunc, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		send:       send,
		logger:     logger,
	}
}

// Deliver encrypts and posts the payload to the subscription endpoint and
// returns the classified outcome. Expected provider failures are reported in
// the result, never as an error; the error return covers only faults before
// the request is made, such as an unencodable payload or broken key material.
func (d *Dispatcher) Deliver(ctx context.Context, sub types.PushSubscription, payload types.NotificationPayload) (*types.DeliveryResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("push deliver: encoding payload: %w", err)
	}

	resp, err := d.send(ctx, body, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			Auth:   sub.Keys.Auth,
			P256dh: sub.Keys.P256dh,
		},
	}, &webpush.Options{
		HTTPClient:      d.httpClient,
		Subscriber:      d.cfg.ContactEmail,
		TTL:             d.cfg.TTL,
		Urgency:         webpush.UrgencyNormal,
		VAPIDPublicKey:  d.cfg.VAPIDPublicKey,
		VAPIDPrivateKey: d.cfg.VAPIDPrivateKey.Unmask(),
	})
	if err != nil {
		// Transport-level failure: DNS, TLS, timeout, SSRF block. All are
		// transient from the scheduler's point of view; an SSRF block for a
		// hostile endpoint resolves itself when registration is replaced.
		d.logger.WarnContext(ctx, "push network error",
			"endpoint", sub.Endpoint,
			"error", err.Error(),
		)
		return &types.DeliveryResult{
			Status:        types.DeliveryStatusFailed,
			FailureReason: fmt.Sprintf("network_error: %v", err),
			Retryable:     true,
		}, nil
	}
	defer resp.Body.Close()

	// Drain a bounded amount so the connection can be reused.
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodyRead))

	return d.classify(ctx, sub.Endpoint, resp.StatusCode, respBody), nil
}

// classify maps a push service status code onto a delivery outcome.
func (d *Dispatcher) classify(ctx context.Context, endpoint string, status int, body []byte) *types.DeliveryResult {
	switch {
	case status >= 200 && status < 300:
		d.logger.InfoContext(ctx, "push delivered",
			"endpoint", endpoint,
			"status", status,
		)
		return &types.DeliveryResult{Status: types.DeliveryStatusSent}

	case status == http.StatusGone, status == http.StatusNotFound:
		// The subscription no longer exists at the push service.
		d.logger.WarnContext(ctx, "push endpoint permanently invalid",
			"endpoint", endpoint,
			"status", status,
		)
		return &types.DeliveryResult{
			Status:        types.DeliveryStatusFailed,
			FailureReason: fmt.Sprintf("endpoint_invalid_%d", status),
			Terminal:      true,
		}

	default:
		// 429, other 4xx, 5xx: transient. The next daily fire retries.
		d.logger.WarnContext(ctx, "push delivery failed",
			"endpoint", endpoint,
			"status", status,
			"body", truncate(string(body), 256),
		)
		return &types.DeliveryResult{
			Status:        types.DeliveryStatusFailed,
			FailureReason: fmt.Sprintf("provider_status_%d", status),
			Retryable:     true,
		}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
