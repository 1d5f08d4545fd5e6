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
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/formataedigita/formata-bot/config"
	"github.com/formataedigita/formata-bot/internal/logging"
	"github.com/formataedigita/formata-bot/internal/replies"
	"github.com/formataedigita/formata-bot/internal/whatsapp"
)

var (
	sendTo       string
	sendCategory string
	sendText     string
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send one canned reply through the Cloud API",
	Long: `Send a single reply from the catalog to a phone number, using the same
credentials as the server. Useful to check a token or phone number ID
without waiting for an inbound message.`,
	Example: `  formata-bot send --to 5524999990000 --category menu`,
	Args:    cobra.NoArgs,
	RunE:    runSend,
}

func runSend(cmd *cobra.Command, _ []string) error {
	cat, err := replies.ParseCategory(sendCategory)
	if err != nil {
		return err
	}

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

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	msg := whatsapp.NewOutboundMessage(sendTo, catalog.Render(cat, sendText))
	if err := deliver(ctx, newClient(cfg, logger), msg); err != nil {
		return err
	}

	logger.Info("message sent", zap.String("id", msg.ID), zap.String("to", msg.To), zap.String("category", string(cat)))
	fmt.Fprintf(cmd.OutOrStdout(), "sent %s to %s\n", cat, msg.To)
	return nil
}

func deliver(ctx context.Context, s whatsapp.Sender, msg whatsapp.OutboundMessage) error {
	if err := s.Send(ctx, msg); err != nil {
		return fmt.Errorf("sending to %s: %w", msg.To, err)
	}
	return nil
}
