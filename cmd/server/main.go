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

// formata-bot answers WhatsApp messages sent to the Formata e Digita business
// number with canned replies chosen by keyword.
//
// Running the binary without a subcommand starts the webhook server.
// Configuration comes from the environment (and a .env file, if present):
//
//	WHATSAPP_TOKEN        Cloud API access token
//	PHONE_NUMBER_ID       business phone number ID replies are sent from
//	WEBHOOK_VERIFY_TOKEN  secret echoed back by the subscription handshake
//	WHATSAPP_APP_SECRET   optional; enables X-Hub-Signature-256 checks
//	PORT                  listen port, default 3000
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/formataedigita/formata-bot/internal/replies"
)

const serviceName = "Formata e Digita Bot"

var (
	version   = "1.0.0"
	commit    = "unknown"
	buildDate = "unknown"
)

// rootCmd starts the server when no subcommand is given.
var rootCmd = &cobra.Command{
	Use:           "formata-bot",
	Short:         "WhatsApp keyword auto-responder for Formata e Digita",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "formata-bot %s\n", version)
		fmt.Fprintf(out, "Commit: %s\n", commit)
		fmt.Fprintf(out, "Built: %s\n", buildDate)
	},
}

// messagesFile overrides the embedded reply catalog for classify and send.
var messagesFile string

func init() {
	rootCmd.PersistentFlags().StringVar(&messagesFile, "messages", "", "YAML reply catalog (default: MESSAGES_FILE or the built-in catalog)")

	sendCmd.Flags().StringVar(&sendTo, "to", "", "recipient phone number in international format, digits only")
	sendCmd.Flags().StringVar(&sendCategory, "category", string(replies.Menu), "reply category to send")
	sendCmd.Flags().StringVar(&sendText, "text", "", "input echoed by the fallback reply")
	_ = sendCmd.MarkFlagRequired("to")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(sendCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "formata-bot: %v\n", err)
		os.Exit(1)
	}
}

// loadCatalog returns the catalog at path, falling back to MESSAGES_FILE and
// then to the embedded default.
func loadCatalog(path string) (*replies.Catalog, error) {
	if path == "" {
		path = os.Getenv("MESSAGES_FILE")
	}
	if path == "" {
		return replies.Default(), nil
	}
	return replies.LoadFile(path)
}
