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
	"strings"

	"github.com/spf13/cobra"

	"github.com/formataedigita/formata-bot/internal/classifier"
)

var classifyCmd = &cobra.Command{
	Use:   "classify [text...]",
	Short: "Show which reply a message would get",
	Long: `Classify text offline and print the category, the rule that matched
and the reply that would be sent. Arguments are joined with spaces.`,
	Example: `  formata-bot classify oi
  formata-bot classify "quero saber o preço"`,
	RunE: runClassify,
}

func runClassify(cmd *cobra.Command, args []string) error {
	catalog, err := loadCatalog(messagesFile)
	if err != nil {
		return fmt.Errorf("loading reply catalog: %w", err)
	}

	res := classifier.New(catalog).Match(strings.Join(args, " "))

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "category: %s\n", res.Category)
	fmt.Fprintf(out, "rule: %s\n\n", res.Rule)
	fmt.Fprintln(out, res.Text)
	return nil
}
