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

// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "formata_bot"

// Label values.
const (
	ResultOK    = "ok"
	ResultError = "error"

	VerifyAccepted = "accepted"
	VerifyRejected = "rejected"

	SkipUnreadable   = "unreadable"
	SkipBadSignature = "bad_signature"
	SkipMalformed    = "malformed"
	SkipNoText       = "no_text"
)

var (
	MessagesClassified = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_classified_total",
			Help:      "Inbound text messages by reply category.",
		},
		[]string{"category"},
	)

	RepliesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "replies_sent_total",
			Help:      "Outbound replies by result.",
		},
		[]string{"result"},
	)

	ReplyDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reply_duration_seconds",
			Help:      "Duration of Cloud API send calls.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2, 5, 10, 15},
		},
	)

	WebhookVerifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_verifications_total",
			Help:      "Webhook verification handshakes by result.",
		},
		[]string{"result"},
	)

	EventsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_events_skipped_total",
			Help:      "Webhook deliveries acknowledged without sending a reply.",
		},
		[]string{"reason"},
	)
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
