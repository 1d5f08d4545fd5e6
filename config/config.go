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

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"regexp"
	"strconv"

	"github.com/caarlos0/env/v9"
	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
)

const (
	EnvProduction  = "production"
	EnvDevelopment = "development"
)

// DotEnvFile is read from the working directory before the environment is
// parsed. Variables already set in the process environment win.
const DotEnvFile = ".env"

var (
	apiVersionPattern = regexp.MustCompile(`^v\d+\.\d+$`)
	digitsPattern     = regexp.MustCompile(`^\d+$`)
)

// Config holds service configuration.
type Config struct {
	Port         string `env:"PORT" envDefault:"3000"`
	Env          string `env:"ENV" envDefault:"production"`
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`
	MessagesFile string `env:"MESSAGES_FILE"`

	WhatsApp WhatsAppConfig
}

// WhatsAppConfig holds the Cloud API credentials and webhook secrets.
type WhatsAppConfig struct {
	Token         string `env:"WHATSAPP_TOKEN,required,notEmpty"`
	PhoneNumberID string `env:"PHONE_NUMBER_ID,required,notEmpty"`
	VerifyToken   string `env:"WEBHOOK_VERIFY_TOKEN,required,notEmpty"`
	AppSecret     string `env:"WHATSAPP_APP_SECRET"`
	APIURL        string `env:"WHATSAPP_API_URL" envDefault:"https://graph.facebook.com"`
	APIVersion    string `env:"WHATSAPP_API_VERSION" envDefault:"v21.0"`
}

// Load reads dotenv (if it exists) into the environment, then parses and
// validates the configuration. An empty dotenv skips the file.
func Load(dotenv string) (*Config, error) {
	if dotenv != "" {
		if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", dotenv, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parsing env config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var result error

	if p, err := strconv.Atoi(c.Port); err != nil || p < 1 || p > 65535 {
		result = multierror.Append(result, fmt.Errorf("PORT: %q is not a valid port", c.Port))
	}
	if c.Env != EnvProduction && c.Env != EnvDevelopment {
		result = multierror.Append(result, fmt.Errorf("ENV: must be %q or %q, got %q", EnvProduction, EnvDevelopment, c.Env))
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		result = multierror.Append(result, fmt.Errorf("LOG_LEVEL: %w", err))
	}
	if u, err := url.Parse(c.WhatsApp.APIURL); err != nil || u.Scheme == "" || u.Host == "" {
		result = multierror.Append(result, fmt.Errorf("WHATSAPP_API_URL: %q is not an absolute URL", c.WhatsApp.APIURL))
	}
	if !apiVersionPattern.MatchString(c.WhatsApp.APIVersion) {
		result = multierror.Append(result, fmt.Errorf("WHATSAPP_API_VERSION: %q does not look like v21.0", c.WhatsApp.APIVersion))
	}
	if !digitsPattern.MatchString(c.WhatsApp.PhoneNumberID) {
		result = multierror.Append(result, fmt.Errorf("PHONE_NUMBER_ID: %q must be numeric", c.WhatsApp.PhoneNumberID))
	}

	return result
}

// Addr is the listen address for Port.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// Development reports whether ENV selects development logging.
func (c *Config) Development() bool {
	return c.Env == EnvDevelopment
}
