// formata-bot - WhatsApp auto-responder for Formata e Digita
// Copyright (C) 2026  formata-bot contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.

// Package handlers serves the WhatsApp webhook and the liveness endpoint.
package handlers

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"go.uber.org/zap"

	"github.com/formataedigita/formata-bot/internal/classifier"
	"github.com/formataedigita/formata-bot/internal/metrics"
	"github.com/formataedigita/formata-bot/internal/whatsapp"
)

const (
	modeSubscribe   = "subscribe"
	maxWebhookBytes = 1 << 20
	timestampLayout = "2006-01-02T15:04:05.000Z07:00"
)

// Classifier picks the reply for inbound text.
type Classifier interface {
	Match(text string) classifier.Result
}

// Config holds the webhook secrets and the metadata reported by GET /.
type Config struct {
	VerifyToken string
	// AppSecret enables X-Hub-Signature-256 checks when non-empty.
	AppSecret   string
	ServiceName string
	Version     string
}

// Handler holds HTTP handler dependencies.
type Handler struct {
	classifier Classifier
	sender     whatsapp.Sender
	cfg        Config
	logger     *zap.Logger
	now        func() time.Time
}

// New creates a Handler.
func New(c Classifier, sender whatsapp.Sender, cfg Config, logger *zap.Logger) *Handler {
	return &Handler{
		classifier: c,
		sender:     sender,
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
	}
}

// Routes registers the liveness and webhook endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.Health)
	r.Get("/webhook", h.Verify)
	r.Post("/webhook", h.Receive)
}

type healthResp struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
}

// Health handles GET /.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, healthResp{
		Status:    "online",
		Service:   h.cfg.ServiceName,
		Version:   h.cfg.Version,
		Timestamp: h.now().UTC().Format(timestampLayout),
	})
}

// Verify handles GET /webhook, the subscription handshake.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	mode := q.Get("hub.mode")
	token := q.Get("hub.verify_token")

	if mode != modeSubscribe || subtle.ConstantTimeCompare([]byte(token), []byte(h.cfg.VerifyToken)) != 1 {
		metrics.WebhookVerifications.WithLabelValues(metrics.VerifyRejected).Inc()
		h.logger.Warn("webhook verification rejected", zap.String("mode", mode))
		w.WriteHeader(http.StatusForbidden)
		return
	}

	metrics.WebhookVerifications.WithLabelValues(metrics.VerifyAccepted).Inc()
	h.logger.Info("webhook verified")
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, q.Get("hub.challenge"))
}

// Receive handles POST /webhook. It always answers 200 so the platform
// does not redeliver; problems are logged and counted.
func (h *Handler) Receive(w http.ResponseWriter, r *http.Request) {
	h.process(w, r)
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, "OK")
}

func (h *Handler) process(w http.ResponseWriter, r *http.Request) {
	log := h.logger.With(zap.String("request_id", middleware.GetReqID(r.Context())))

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		h.skip(log, metrics.SkipUnreadable, zap.Error(err))
		return
	}

	if h.cfg.AppSecret != "" && !whatsapp.VerifySignature(h.cfg.AppSecret, body, r.Header.Get(whatsapp.SignatureHeader)) {
		log.Warn("webhook signature mismatch", zap.String("header", whatsapp.SignatureHeader))
		h.skip(log, metrics.SkipBadSignature)
		return
	}

	if !json.Valid(body) {
		h.skip(log, metrics.SkipMalformed)
		return
	}

	msg, ok := whatsapp.ParseTextMessage(body)
	if !ok {
		h.skip(log, metrics.SkipNoText)
		return
	}

	res := h.classifier.Match(msg.Body)
	metrics.MessagesClassified.WithLabelValues(string(res.Category)).Inc()
	log = log.With(
		zap.String("from", msg.From),
		zap.String("wamid", msg.ID),
		zap.String("category", string(res.Category)),
		zap.String("rule", res.Rule),
	)
	log.Info("message classified")

	out := whatsapp.NewOutboundMessage(msg.From, res.Text)
	start := time.Now()
	err = h.sender.Send(context.WithoutCancel(r.Context()), out)
	metrics.ReplyDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.RepliesSent.WithLabelValues(metrics.ResultError).Inc()
		log.Error("failed to send reply", zap.String("reply_id", out.ID), zap.Error(err))
		return
	}
	metrics.RepliesSent.WithLabelValues(metrics.ResultOK).Inc()
	log.Info("reply sent", zap.String("reply_id", out.ID))
}

func (h *Handler) skip(log *zap.Logger, reason string, fields ...zap.Field) {
	metrics.EventsSkipped.WithLabelValues(reason).Inc()
	log.Debug("webhook event skipped", append(fields, zap.String("reason", reason))...)
}
