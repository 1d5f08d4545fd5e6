package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/formataedigita/formata-bot/internal/classifier"
	"github.com/formataedigita/formata-bot/internal/metrics"
	"github.com/formataedigita/formata-bot/internal/replies"
	"github.com/formataedigita/formata-bot/internal/whatsapp"
)

const testVerifyToken = "s3cret"

type fakeSender struct {
	mu   sync.Mutex
	sent []whatsapp.OutboundMessage
	err  error
}

func (f *fakeSender) Send(ctx context.Context, msg whatsapp.OutboundMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	return f.err
}

func (f *fakeSender) messages() []whatsapp.OutboundMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]whatsapp.OutboundMessage(nil), f.sent...)
}

func testHandler(t *testing.T, sender whatsapp.Sender, cfg Config) (*Handler, *chi.Mux) {
	t.Helper()
	if cfg.VerifyToken == "" {
		cfg.VerifyToken = testVerifyToken
	}
	h := New(classifier.New(replies.Default()), sender, cfg, zap.NewNop())
	r := chi.NewRouter()
	h.Routes(r)
	return h, r
}

func textPayload(from, body string) string {
	p := map[string]any{
		"object": "whatsapp_business_account",
		"entry": []any{map[string]any{
			"id": "WABA",
			"changes": []any{map[string]any{
				"field": "messages",
				"value": map[string]any{
					"messaging_product": "whatsapp",
					"messages": []any{map[string]any{
						"from": from,
						"id":   "wamid.in",
						"type": "text",
						"text": map[string]any{"body": body},
					}},
				},
			}},
		}},
	}
	b, _ := json.Marshal(p)
	return string(b)
}

func post(r http.Handler, body string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func verify(r http.Handler, mode, token, challenge string) *httptest.ResponseRecorder {
	q := url.Values{}
	q.Set("hub.mode", mode)
	q.Set("hub.verify_token", token)
	q.Set("hub.challenge", challenge)
	req := httptest.NewRequest(http.MethodGet, "/webhook?"+q.Encode(), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestVerifyAccepts(t *testing.T) {
	_, r := testHandler(t, &fakeSender{}, Config{})
	before := testutil.ToFloat64(metrics.WebhookVerifications.WithLabelValues(metrics.VerifyAccepted))

	w := verify(r, "subscribe", testVerifyToken, "abc123")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "abc123", w.Body.String())
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.WebhookVerifications.WithLabelValues(metrics.VerifyAccepted)))
}

func TestVerifyRejects(t *testing.T) {
	_, r := testHandler(t, &fakeSender{}, Config{})

	tests := []struct {
		name  string
		mode  string
		token string
	}{
		{"wrong token", "subscribe", "guess"},
		{"empty token", "subscribe", ""},
		{"wrong mode", "unsubscribe", testVerifyToken},
		{"missing mode", "", testVerifyToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := verify(r, tt.mode, tt.token, "abc123")
			assert.Equal(t, http.StatusForbidden, w.Code)
			assert.NotContains(t, w.Body.String(), "abc123")
		})
	}
}

func TestReceiveSendsClassifiedReply(t *testing.T) {
	sender := &fakeSender{}
	_, r := testHandler(t, sender, Config{})
	cat := replies.Default()

	tests := []struct {
		body string
		want replies.Category
	}{
		{"oi", replies.Welcome},
		{"2", replies.Budget},
		{"quero saber o preço", replies.Budget},
		{"falar com atendente", replies.Contact},
		{"MENU", replies.Menu},
	}
	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			before := len(sender.messages())
			w := post(r, textPayload("5524999990000", tt.body), nil)
			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "OK", w.Body.String())

			sent := sender.messages()
			require.Len(t, sent, before+1)
			got := sent[len(sent)-1]
			assert.Equal(t, "5524999990000", got.To)
			assert.Equal(t, cat.Text(tt.want), got.Body)
			assert.NotEmpty(t, got.ID)
		})
	}
}

func TestReceiveFallbackEchoesInput(t *testing.T) {
	sender := &fakeSender{}
	_, r := testHandler(t, sender, Config{})

	w := post(r, textPayload("5524999990000", "xyz qualquer"), nil)
	require.Equal(t, http.StatusOK, w.Code)

	sent := sender.messages()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].Body, `"xyz qualquer"`)
}

func TestReceiveSkipsWithoutSending(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		reason string
	}{
		{"no messages", `{"entry":[{"changes":[{"value":{"statuses":[{"status":"read"}]}}]}]}`, metrics.SkipNoText},
		{"empty entry", `{"entry":[]}`, metrics.SkipNoText},
		{"empty object", `{}`, metrics.SkipNoText},
		{"non-text message", `{"entry":[{"changes":[{"value":{"messages":[{"from":"1","type":"image"}]}}]}]}`, metrics.SkipNoText},
		{"malformed json", `{"entry":`, metrics.SkipMalformed},
		{"wrong shape", `{"entry":"nope"}`, metrics.SkipNoText},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := &fakeSender{}
			_, r := testHandler(t, sender, Config{})
			before := testutil.ToFloat64(metrics.EventsSkipped.WithLabelValues(tt.reason))

			w := post(r, tt.body, nil)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Empty(t, sender.messages())
			assert.Equal(t, before+1, testutil.ToFloat64(metrics.EventsSkipped.WithLabelValues(tt.reason)))
		})
	}
}

func TestReceiveIgnoresFieldsOffTheReadPath(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"numeric timestamp", `{"entry":[{"changes":[{"value":{"messages":[{"from":"55","timestamp":1700000000,"text":{"body":"oi"}}]}}]}]}`},
		{"numeric object", `{"object":1,"entry":[{"changes":[{"value":{"messages":[{"from":"55","text":{"body":"oi"}}]}}]}]}`},
		{"string second entry", `{"entry":[{"changes":[{"value":{"messages":[{"from":"55","text":{"body":"oi"}}]}}]},"x"]}`},
		{"string text on second message", `{"entry":[{"changes":[{"value":{"messages":[{"from":"55","text":{"body":"oi"}},{"from":"66","text":"hi"}]}}]}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := &fakeSender{}
			_, r := testHandler(t, sender, Config{})

			w := post(r, tt.body, nil)

			assert.Equal(t, http.StatusOK, w.Code)
			sent := sender.messages()
			require.Len(t, sent, 1)
			assert.Equal(t, "55", sent[0].To)
			assert.Equal(t, replies.Default().Text(replies.Welcome), sent[0].Body)
		})
	}
}

func TestReceiveSendFailureStillAcknowledges(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	sender := &fakeSender{err: errors.New("connection refused")}
	h := New(classifier.New(replies.Default()), sender, Config{VerifyToken: testVerifyToken}, zap.New(core))
	r := chi.NewRouter()
	h.Routes(r)
	before := testutil.ToFloat64(metrics.RepliesSent.WithLabelValues(metrics.ResultError))

	w := post(r, textPayload("5524999990000", "oi"), nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, sender.messages(), 1)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.RepliesSent.WithLabelValues(metrics.ResultError)))
	require.Equal(t, 1, logs.FilterMessage("failed to send reply").Len())
}

func TestReceiveSignature(t *testing.T) {
	const secret = "app-secret"
	body := textPayload("5524999990000", "oi")

	t.Run("valid", func(t *testing.T) {
		sender := &fakeSender{}
		_, r := testHandler(t, sender, Config{AppSecret: secret})
		h := http.Header{}
		h.Set(whatsapp.SignatureHeader, whatsapp.Sign(secret, []byte(body)))

		w := post(r, body, h)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, sender.messages(), 1)
	})

	t.Run("invalid", func(t *testing.T) {
		sender := &fakeSender{}
		_, r := testHandler(t, sender, Config{AppSecret: secret})
		h := http.Header{}
		h.Set(whatsapp.SignatureHeader, whatsapp.Sign("other", []byte(body)))
		before := testutil.ToFloat64(metrics.EventsSkipped.WithLabelValues(metrics.SkipBadSignature))

		w := post(r, body, h)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, sender.messages())
		assert.Equal(t, before+1, testutil.ToFloat64(metrics.EventsSkipped.WithLabelValues(metrics.SkipBadSignature)))
	})

	t.Run("missing", func(t *testing.T) {
		sender := &fakeSender{}
		_, r := testHandler(t, sender, Config{AppSecret: secret})

		w := post(r, body, nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, sender.messages())
	})

	t.Run("not configured", func(t *testing.T) {
		sender := &fakeSender{}
		_, r := testHandler(t, sender, Config{})

		w := post(r, body, nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, sender.messages(), 1)
	})
}

func TestReceiveOversizedBody(t *testing.T) {
	sender := &fakeSender{}
	_, r := testHandler(t, sender, Config{})

	w := post(r, `{"entry":"`+strings.Repeat("a", maxWebhookBytes)+`"}`, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, sender.messages())
}

func TestHealth(t *testing.T) {
	h, r := testHandler(t, &fakeSender{}, Config{ServiceName: "Formata e Digita Bot", Version: "1.0.0"})
	h.now = func() time.Time {
		return time.Date(2026, 3, 4, 12, 30, 0, 500_000_000, time.FixedZone("BRT", -3*3600))
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")

	var got healthResp
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, healthResp{
		Status:    "online",
		Service:   "Formata e Digita Bot",
		Version:   "1.0.0",
		Timestamp: "2026-03-04T15:30:00.500Z",
	}, got)
}
