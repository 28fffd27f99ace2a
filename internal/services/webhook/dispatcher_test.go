package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/narrato/internal/common"
	"github.com/ternarybob/narrato/internal/models"
)

func TestSignAndVerify(t *testing.T) {
	body := []byte(`{"jobId":"job_1","status":"completed"}`)

	sig := Sign("secret", body)
	assert.True(t, VerifySignature("secret", body, sig))
	assert.False(t, VerifySignature("wrong", body, sig))
	assert.False(t, VerifySignature("secret", []byte("tampered"), sig))
	assert.False(t, VerifySignature("secret", body, "not-hex"))
}

func TestSignDeterministic(t *testing.T) {
	body := []byte(`{"jobId":"job_1"}`)
	assert.Equal(t, Sign("secret", body), Sign("secret", body))
	assert.NotEqual(t, Sign("secret", body), Sign("other", body))
}

func TestDispatchPostsSignedPayload(t *testing.T) {
	var calls atomic.Int32
	var gotBody []byte
	var gotSig, gotContentType string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		gotSig = r.Header.Get(SignatureHeader)
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := &common.WebhookConfig{URL: srv.URL, Secret: "secret", Timeout: "5s"}
	d := NewDispatcher(cfg, srv.Client(), common.GetLogger())

	payload := &models.WebhookPayload{
		JobID:     "job_1",
		Status:    models.JobStatusCompleted,
		ResultRef: "vid_abc",
		Duration:  42,
		Timestamp: time.Now(),
	}
	d.Dispatch(context.Background(), payload)

	require.Equal(t, int32(1), calls.Load())
	assert.Equal(t, "application/json", gotContentType)
	assert.True(t, VerifySignature("secret", gotBody, gotSig))

	var decoded models.WebhookPayload
	require.NoError(t, json.Unmarshal(gotBody, &decoded))
	assert.Equal(t, "job_1", decoded.JobID)
	assert.Equal(t, "vid_abc", decoded.ResultRef)
	assert.Equal(t, 42, decoded.Duration)
	assert.Empty(t, decoded.Error)
}

func TestDispatchSingleAttemptOnFailure(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := &common.WebhookConfig{URL: srv.URL, Secret: "secret", Timeout: "5s"}
	d := NewDispatcher(cfg, srv.Client(), common.GetLogger())

	d.Dispatch(context.Background(), &models.WebhookPayload{JobID: "job_1", Status: "failed", Error: "boom"})

	// No retry on a non-success response
	assert.Equal(t, int32(1), calls.Load())
}

func TestDispatchDisabledWithoutURL(t *testing.T) {
	cfg := &common.WebhookConfig{URL: "", Secret: "secret", Timeout: "5s"}
	d := NewDispatcher(cfg, http.DefaultClient, common.GetLogger())

	// Must not panic or attempt any request
	d.Dispatch(context.Background(), &models.WebhookPayload{JobID: "job_1", Status: "completed"})
}
