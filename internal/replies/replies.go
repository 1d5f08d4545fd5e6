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

// Package replies holds the canned messages the bot answers with.
//
// The catalog is read once at startup, either from the embedded
// messages.yaml or from an operator-supplied file with the same shape,
// and is read-only afterwards.
package replies

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

// Category identifies one canned reply.
type Category string

const (
	Welcome  Category = "welcome"
	Menu     Category = "menu"
	Services Category = "services"
	Budget   Category = "budget"
	Payment  Category = "payment"
	Contact  Category = "contact"
	Fallback Category = "fallback"
)

// Categories lists every category a catalog must define.
var Categories = []Category{Welcome, Menu, Services, Budget, Payment, Contact, Fallback}

// Placeholder is replaced in the fallback reply with the customer's text.
const Placeholder = "{text}"

var (
	ErrMissingCategory = errors.New("missing category")
	ErrUnknownCategory = errors.New("unknown category")
	ErrNoPlaceholder   = errors.New("fallback reply has no " + Placeholder + " placeholder")
)

//go:embed messages.yaml
var defaultCatalog []byte

// Catalog maps every Category to its reply text.
type Catalog struct {
	messages map[Category]string
}

// Default returns the catalog embedded in the binary.
// The embedded file is covered by tests, so a parse failure here is a build defect.
func Default() *Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("replies: embedded catalog: %v", err))
	}
	return c
}

// LoadFile reads a YAML catalog from path.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes a YAML mapping of category name to reply text. Every
// category must be present with non-empty text, and nothing else may be.
// Duplicate keys are rejected by the YAML decoder.
func Parse(data []byte) (*Catalog, error) {
	var raw map[string]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}

	for key := range raw {
		if !lo.Contains(Categories, Category(key)) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, key)
		}
	}

	missing := lo.Filter(Categories, func(c Category, _ int) bool {
		return strings.TrimSpace(raw[string(c)]) == ""
	})
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %v", ErrMissingCategory, missing)
	}

	if !strings.Contains(raw[string(Fallback)], Placeholder) {
		return nil, ErrNoPlaceholder
	}

	messages := make(map[Category]string, len(Categories))
	for _, c := range Categories {
		messages[c] = raw[string(c)]
	}
	return &Catalog{messages: messages}, nil
}

// Text returns the reply for c as stored, placeholder included.
func (c *Catalog) Text(cat Category) string {
	return c.messages[cat]
}

// Render returns the reply for cat. For the fallback category the
// placeholder is replaced by input exactly as the customer sent it.
func (c *Catalog) Render(cat Category, input string) string {
	text := c.messages[cat]
	if cat == Fallback {
		return strings.ReplaceAll(text, Placeholder, input)
	}
	return text
}

// ParseCategory converts a name such as "menu" to a Category.
func ParseCategory(name string) (Category, error) {
	cat := Category(strings.ToLower(strings.TrimSpace(name)))
	if !lo.Contains(Categories, cat) {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, name)
	}
	return cat, nil
}
