package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/narrato/internal/common"
	"github.com/ternarybob/narrato/internal/interfaces"
	"github.com/ternarybob/narrato/internal/models"
)

// SignatureHeader carries the hex-encoded HMAC-SHA256 of the request body
const SignatureHeader = "X-Narrato-Signature"

// Dispatcher posts a signed payload to the configured webhook URL when a job
// reaches a terminal status. Exactly one attempt per terminal transition,
// best effort: failures are logged, never retried, and never affect the job.
type Dispatcher struct {
	config *common.WebhookConfig
	client *http.Client
	logger arbor.ILogger
}

// NewDispatcher creates a webhook dispatcher
func NewDispatcher(config *common.WebhookConfig, client *http.Client, logger arbor.ILogger) *Dispatcher {
	return &Dispatcher{
		config: config,
		client: client,
		logger: logger,
	}
}

// Register wires the dispatcher to terminal job events on the bus
func (d *Dispatcher) Register(events interfaces.EventService) error {
	if err := events.Subscribe(interfaces.EventJobCompleted, d.handleTerminal); err != nil {
		return err
	}
	return events.Subscribe(interfaces.EventJobFailed, d.handleTerminal)
}

// handleTerminal fires the webhook in the background so the publisher is
// never blocked on the remote endpoint.
func (d *Dispatcher) handleTerminal(ctx context.Context, event interfaces.Event) error {
	jobEvent, ok := event.Payload.(*models.JobEvent)
	if !ok {
		return fmt.Errorf("unexpected payload type %T", event.Payload)
	}

	if !jobEvent.IsTerminal() {
		return nil
	}

	payload := &models.WebhookPayload{
		JobID:     jobEvent.JobID,
		Status:    jobEvent.Status,
		ResultRef: jobEvent.ResultRef,
		Duration:  jobEvent.DurationSeconds,
		Error:     jobEvent.Error,
		Timestamp: jobEvent.Timestamp,
	}

	common.SafeGo(d.logger, "webhook-dispatch", func() {
		d.Dispatch(context.Background(), payload)
	})

	return nil
}

// Dispatch serializes, signs and posts the payload. One attempt only.
func (d *Dispatcher) Dispatch(ctx context.Context, payload *models.WebhookPayload) {
	if d.config == nil || d.config.URL == "" {
		return
	}

	body, err := json.Marshal(payload)
	if err != nil {
		d.logger.Error().
			Err(err).
			Str("job_id", payload.JobID).
			Msg("Failed to serialize webhook payload")
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.config.URL, bytes.NewReader(body))
	if err != nil {
		d.logger.Error().
			Err(err).
			Str("job_id", payload.JobID).
			Msg("Failed to build webhook request")
		return
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SignatureHeader, Sign(d.config.Secret, body))

	resp, err := d.client.Do(req)
	if err != nil {
		d.logger.Warn().
			Err(err).
			Str("job_id", payload.JobID).
			Str("url", d.config.URL).
			Msg("Webhook delivery failed")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		d.logger.Warn().
			Str("job_id", payload.JobID).
			Int("status_code", resp.StatusCode).
			Msg("Webhook endpoint returned non-success")
		return
	}

	d.logger.Info().
		Str("job_id", payload.JobID).
		Str("status", string(payload.Status)).
		Msg("Webhook delivered")
}

// Sign returns the hex-encoded HMAC-SHA256 of body under secret
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a received signature against the body. Intended for
// webhook consumers; comparison is constant time.
func VerifySignature(secret string, body []byte, signature string) bool {
	expected, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), expected)
}
