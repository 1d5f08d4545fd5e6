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

package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultBaseURL    = "https://graph.facebook.com"
	DefaultAPIVersion = "v21.0"
)

// ErrAPI is matched by every error the Cloud API itself reports.
var ErrAPI = errors.New("whatsapp api error")

// Sender is the interface the webhook handler sends replies through.
type Sender interface {
	Send(ctx context.Context, msg OutboundMessage) error
}

// APIError is a non-2xx answer from the Cloud API.
type APIError struct {
	StatusCode int
	Code       int
	Type       string
	Message    string
	TraceID    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("whatsapp api returned %d", e.StatusCode)
	}
	return fmt.Sprintf("whatsapp api returned %d: %s (type=%s code=%d trace=%s)",
		e.StatusCode, e.Message, e.Type, e.Code, e.TraceID)
}

func (e *APIError) Unwrap() error { return ErrAPI }

// Client sends text messages from one business phone number via the
// Cloud API, authenticating with a bearer access token.
type Client struct {
	baseURL       string
	apiVersion    string
	phoneNumberID string
	token         string
	httpClient    *http.Client
	logger        *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another Graph API host (tests, proxies).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

func WithAPIVersion(v string) Option {
	return func(c *Client) { c.apiVersion = v }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a Client for phoneNumberID.
//
// token is a system-user or temporary access token with the
// whatsapp_business_messaging permission.
func NewClient(token, phoneNumberID string, opts ...Option) *Client {
	c := &Client{
		baseURL:       DefaultBaseURL,
		apiVersion:    DefaultAPIVersion,
		phoneNumberID: phoneNumberID,
		token:         token,
		httpClient:    &http.Client{Timeout: 15 * time.Second},
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// MessagesURL is the endpoint replies are POSTed to.
func (c *Client) MessagesURL() string {
	return fmt.Sprintf("%s/%s/%s/messages", c.baseURL, c.apiVersion, c.phoneNumberID)
}

// sendRequest is the JSON body of POST /{phone-number-id}/messages.
type sendRequest struct {
	MessagingProduct string   `json:"messaging_product"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Text             sendText `json:"text"`
}

type sendText struct {
	Body string `json:"body"`
}

// sendResponse captures the fields we log on success and failure.
type sendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
	Error *struct {
		Message   string `json:"message"`
		Type      string `json:"type"`
		Code      int    `json:"code"`
		FBTraceID string `json:"fbtrace_id"`
	} `json:"error"`
}

// Send delivers msg as a text message. It returns an *APIError when the API
// answers with a non-2xx status, and a wrapped transport error when the
// request could not be made. Send never retries.
func (c *Client) Send(ctx context.Context, msg OutboundMessage) error {
	body, err := json.Marshal(sendRequest{
		MessagingProduct: "whatsapp",
		To:               msg.To,
		Type:             "text",
		Text:             sendText{Body: msg.Body},
	})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.MessagesURL(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http post: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var parsed sendResponse
	_ = json.Unmarshal(respBody, &parsed)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if parsed.Error != nil {
			apiErr.Code = parsed.Error.Code
			apiErr.Type = parsed.Error.Type
			apiErr.Message = parsed.Error.Message
			apiErr.TraceID = parsed.Error.FBTraceID
		} else {
			apiErr.Message = strings.TrimSpace(string(respBody))
		}
		return apiErr
	}

	var wamid string
	if len(parsed.Messages) > 0 {
		wamid = parsed.Messages[0].ID
	}
	c.logger.Debug("whatsapp message accepted",
		zap.String("id", msg.ID),
		zap.String("to", msg.To),
		zap.String("wamid", wamid),
		zap.Duration("duration", time.Since(start)))

	return nil
}
