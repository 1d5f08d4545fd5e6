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

// Package classifier decides which canned reply answers an inbound message.
//
// Classification is a walk over an ordered list of rules. Each rule is a
// predicate over the normalized text plus the category it selects; the first
// rule that matches wins and the fallback category covers everything else.
// The walk has no state, so one Classifier is shared by all requests.
package classifier

import (
	"strings"
	"unicode"

	"github.com/samber/lo"
	"golang.org/x/text/unicode/norm"

	"github.com/formataedigita/formata-bot/internal/replies"
)

// FallbackRule is the rule name reported when nothing matched.
const FallbackRule = "fallback"

// Rule pairs a predicate over normalized text with the category it selects.
type Rule struct {
	Name     string
	Match    func(normalized string) bool
	Category replies.Category
}

// Result describes how a message was classified and what to answer.
type Result struct {
	Category replies.Category
	Rule     string
	Text     string
}

// Classifier maps inbound text to a reply.
type Classifier struct {
	rules   []Rule
	catalog *replies.Catalog
}

// New creates a Classifier using DefaultRules.
func New(catalog *replies.Catalog) *Classifier {
	return NewWithRules(catalog, DefaultRules())
}

// NewWithRules creates a Classifier that evaluates rules in the given order.
func NewWithRules(catalog *replies.Catalog, rules []Rule) *Classifier {
	return &Classifier{rules: rules, catalog: catalog}
}

// Normalize returns the form rules are evaluated against: NFC, so that
// composed and decomposed accents compare equal, then lowercased and trimmed.
func Normalize(s string) string {
	return strings.TrimFunc(strings.ToLower(norm.NFC.String(s)), isTrimmable)
}

// isTrimmable reports whether r is stripped from both ends of a message.
// The byte order mark counts as space; NEL does not.
func isTrimmable(r rune) bool {
	return r == '\ufeff' || (unicode.IsSpace(r) && r != '\u0085')
}

// Match returns the first rule matching text, or the fallback, together
// with the rendered reply.
func (c *Classifier) Match(text string) Result {
	res := Result{Category: replies.Fallback, Rule: FallbackRule}
	normalized := Normalize(text)
	for _, r := range c.rules {
		if r.Match(normalized) {
			res = Result{Category: r.Category, Rule: r.Name}
			break
		}
	}
	res.Text = c.catalog.Render(res.Category, text)
	return res
}

// Classify returns the reply category for text. It never fails.
func (c *Classifier) Classify(text string) replies.Category {
	return c.Match(text).Category
}

// Reply returns the reply text for text.
func (c *Classifier) Reply(text string) string {
	return c.Match(text).Text
}

// Exact matches when the normalized text equals one of terms.
func Exact(terms ...string) func(string) bool {
	terms = normalizeAll(terms)
	return func(s string) bool {
		return lo.Contains(terms, s)
	}
}

// Contains matches when the normalized text contains one of terms.
func Contains(terms ...string) func(string) bool {
	terms = normalizeAll(terms)
	return func(s string) bool {
		return lo.SomeBy(terms, func(t string) bool {
			return strings.Contains(s, t)
		})
	}
}

func normalizeAll(terms []string) []string {
	return lo.Map(terms, func(t string, _ int) string { return Normalize(t) })
}
