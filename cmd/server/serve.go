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

package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/formataedigita/formata-bot/config"
	"github.com/formataedigita/formata-bot/internal/classifier"
	"github.com/formataedigita/formata-bot/internal/handlers"
	"github.com/formataedigita/formata-bot/internal/logging"
	"github.com/formataedigita/formata-bot/internal/server"
	"github.com/formataedigita/formata-bot/internal/whatsapp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the webhook server",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(config.DotEnvFile)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	path := messagesFile
	if path == "" {
		path = cfg.MessagesFile
	}
	catalog, err := loadCatalog(path)
	if err != nil {
		return fmt.Errorf("loading reply catalog: %w", err)
	}

	client := newClient(cfg, logger)
	h := handlers.New(classifier.New(catalog), client, handlers.Config{
		VerifyToken: cfg.WhatsApp.VerifyToken,
		AppSecret:   cfg.WhatsApp.AppSecret,
		ServiceName: serviceName,
		Version:     version,
	}, logger)

	srv := server.New(logger)
	h.Routes(srv.Router)

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("formata-bot starting",
		zap.String("version", version),
		zap.String("commit", commit),
		zap.String("addr", cfg.Addr()),
		zap.String("messages_url", client.MessagesURL()),
		zap.Bool("signature_check", cfg.WhatsApp.AppSecret != ""))

	return srv.ListenAndServe(ctx, cfg.Addr())
}

func newClient(cfg *config.Config, logger *zap.Logger) *whatsapp.Client {
	return whatsapp.NewClient(cfg.WhatsApp.Token, cfg.WhatsApp.PhoneNumberID,
		whatsapp.WithBaseURL(cfg.WhatsApp.APIURL),
		whatsapp.WithAPIVersion(cfg.WhatsApp.APIVersion),
		whatsapp.WithLogger(logger),
	)
}
