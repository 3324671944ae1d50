package trmnl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/carlos-sqds/travel-buddy/config"
	"github.com/carlos-sqds/travel-buddy/internal/logger"
	"github.com/carlos-sqds/travel-buddy/internal/metrics"
	"go.uber.org/zap"
)

// Pusher POSTs payloads to TRMNL custom plugin webhooks.
type Pusher struct {
	client   *http.Client
	attempts int
	backoff  time.Duration
	log      *zap.Logger
}

func NewPusher(cfg config.TrmnlConfig, log *zap.Logger) *Pusher {
	timeout := time.Duration(cfg.PushTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	attempts := cfg.PushRetries
	if attempts <= 0 {
		attempts = 3
	}
	return &Pusher{
		client:   &http.Client{Timeout: timeout},
		attempts: attempts,
		backoff:  2 * time.Second,
		log:      logger.OrNop(log),
	}
}

// Push delivers payload to webhookURL, retrying transport errors and 5xx responses.
func (p *Pusher) Push(ctx context.Context, webhookURL string, payload Payload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	start := time.Now()
	var lastErr error
	for i := 1; i <= p.attempts; i++ {
		status, err := p.post(ctx, webhookURL, body)
		switch {
		case err == nil && status >= 200 && status < 300:
			metrics.WebhookPushes.WithLabelValues("success").Inc()
			p.log.Info("trmnl webhook delivered",
				zap.Int("status", status),
				zap.Int("attempt", i),
				zap.Duration("duration", time.Since(start)))
			return nil
		case err == nil && status < 500:
			// client errors will not improve on retry
			metrics.WebhookPushes.WithLabelValues("rejected").Inc()
			return fmt.Errorf("webhook rejected payload: status %d", status)
		case err == nil:
			lastErr = fmt.Errorf("webhook returned status %d", status)
		default:
			lastErr = err
		}

		p.log.Warn("trmnl webhook POST failed", zap.Int("attempt", i), zap.Error(lastErr))
		if i < p.attempts {
			select {
			case <-ctx.Done():
				metrics.WebhookPushes.WithLabelValues("failed").Inc()
				return ctx.Err()
			case <-time.After(p.backoff):
			}
		}
	}

	metrics.WebhookPushes.WithLabelValues("failed").Inc()
	return fmt.Errorf("webhook failed after %d attempts: %w", p.attempts, lastErr)
}

func (p *Pusher) post(ctx context.Context, webhookURL string, body []byte) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, err
	}
	resp.Body.Close()
	return resp.StatusCode, nil
}
