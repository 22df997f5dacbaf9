package handlers

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/upliftingvibes/backend/internal/payments"
)

type fakeEventVerifier struct {
	event payments.Event
	err   error

	lastPayload   []byte
	lastSignature string
}

func (v *fakeEventVerifier) Verify(payload []byte, signatureHeader string) (payments.Event, error) {
	v.lastPayload = payload
	v.lastSignature = signatureHeader
	if v.err != nil {
		return nil, v.err
	}
	return v.event, nil
}

type recordingProcessor struct {
	events []payments.Event
	err    error
}

func (p *recordingProcessor) Process(_ context.Context, event payments.Event) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func TestWebhookHandlerProcessesVerifiedEvent(t *testing.T) {
	verifier := &fakeEventVerifier{event: payments.AccountUpdated{Account: payments.Account{ID: "acct_123"}}}
	processor := &recordingProcessor{}
	handler := WebhookHandler{Verifier: verifier, Processor: processor}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/stripe/webhook", bytes.NewReader([]byte(`{"id":"evt_1"}`)))
	req.Header.Set("Stripe-Signature", "t=1,v1=abc")
	rec := httptest.NewRecorder()

	handler.Handle(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
	if verifier.lastSignature != "t=1,v1=abc" {
		t.Fatalf("expected signature header to reach verifier, got %q", verifier.lastSignature)
	}
	if string(verifier.lastPayload) != `{"id":"evt_1"}` {
		t.Fatalf("expected raw payload to reach verifier, got %q", verifier.lastPayload)
	}
	if len(processor.events) != 1 {
		t.Fatalf("expected one processed event, got %d", len(processor.events))
	}
	if _, ok := processor.events[0].(payments.AccountUpdated); !ok {
		t.Fatalf("expected AccountUpdated, got %T", processor.events[0])
	}
}

func TestWebhookHandlerRejectsBadSignature(t *testing.T) {
	verifier := &fakeEventVerifier{err: errors.New("signature mismatch")}
	processor := &recordingProcessor{}
	handler := WebhookHandler{Verifier: verifier, Processor: processor}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/stripe/webhook", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Stripe-Signature", "t=1,v1=bogus")
	rec := httptest.NewRecorder()

	handler.Handle(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d got %d", http.StatusBadRequest, rec.Code)
	}
	if len(processor.events) != 0 {
		t.Fatalf("expected no processed events, got %d", len(processor.events))
	}
}

func TestWebhookHandlerProcessorFailureTriggersRedelivery(t *testing.T) {
	verifier := &fakeEventVerifier{event: payments.IgnoredEvent{Type: "charge.updated"}}
	processor := &recordingProcessor{err: errors.New("database unavailable")}
	handler := WebhookHandler{Verifier: verifier, Processor: processor}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/stripe/webhook", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Stripe-Signature", "t=1,v1=abc")
	rec := httptest.NewRecorder()

	handler.Handle(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status %d got %d", http.StatusInternalServerError, rec.Code)
	}
}

func TestWebhookHandlerRejectsNonPost(t *testing.T) {
	handler := WebhookHandler{Verifier: &fakeEventVerifier{}, Processor: &recordingProcessor{}}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stripe/webhook", nil)
	rec := httptest.NewRecorder()

	handler.Handle(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status %d got %d", http.StatusMethodNotAllowed, rec.Code)
	}
}
