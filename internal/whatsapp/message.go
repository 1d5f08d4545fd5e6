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

// Package whatsapp provides the WhatsApp Cloud API types and client used to
// receive webhook events and send text replies.
package whatsapp

import (
	"encoding/json"

	"github.com/google/uuid"
)

// InboundMessage is the part of a webhook event the bot acts on.
type InboundMessage struct {
	ID   string
	From string
	Body string
}

// ParseTextMessage extracts entry[0].changes[0].value.messages[0] from a
// webhook body Meta POSTs:
//
//	{
//	  "object": "whatsapp_business_account",
//	  "entry": [{
//	    "id": "WABA_ID",
//	    "changes": [{
//	      "field": "messages",
//	      "value": {
//	        "messaging_product": "whatsapp",
//	        "messages": [{"from": "5524999999999", "id": "wamid...", "type": "text", "text": {"body": "oi"}}]
//	      }
//	    }]
//	  }]
//	}
//
// The payload is walked one level at a time and only the read path is
// decoded, so other fields and sibling elements may hold anything. A level
// that is missing or has an unexpected type counts as absent. ok is false
// when the message is not text or when sender or body is empty.
func ParseTextMessage(body []byte) (InboundMessage, bool) {
	value := field(first(field(first(field(json.RawMessage(body), "entry")), "changes")), "value")
	m := first(field(value, "messages"))

	msg := InboundMessage{
		ID:   str(field(m, "id")),
		From: str(field(m, "from")),
		Body: str(field(field(m, "text"), "body")),
	}
	if msg.From == "" || msg.Body == "" {
		return InboundMessage{}, false
	}
	return msg, true
}

// field returns the member name of a JSON object, or nil.
func field(raw json.RawMessage, name string) json.RawMessage {
	var obj map[string]json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &obj) != nil {
		return nil
	}
	return obj[name]
}

// first returns element 0 of a JSON array, or nil.
func first(raw json.RawMessage) json.RawMessage {
	var arr []json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &arr) != nil || len(arr) == 0 {
		return nil
	}
	return arr[0]
}

func str(raw json.RawMessage) string {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}

// OutboundMessage is a text reply to send through the Cloud API.
type OutboundMessage struct {
	// ID is generated locally and only correlates the log lines of one send.
	// Meta assigns its own message id, which is logged on success.
	ID string `json:"id"`

	// To is the recipient's WhatsApp id, as received in the "from" field.
	To string `json:"to"`

	// Body is the UTF-8 text. Cloud API text messages are limited to 4096 characters.
	Body string `json:"body"`
}

// NewOutboundMessage creates an OutboundMessage with a fresh correlation ID.
func NewOutboundMessage(to, body string) OutboundMessage {
	return OutboundMessage{ID: uuid.New().String(), To: to, Body: body}
}
