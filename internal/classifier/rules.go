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

package classifier

import "github.com/formataedigita/formata-bot/internal/replies"

// DefaultRules returns the production rule list in evaluation order.
//
// Menu commands are exact matches and always run before the keyword rules,
// so "1" is never looked at as a substring. Keyword groups are independent
// of each other; when a message hits more than one group the earlier group
// wins ("pagar o orçamento" is a budget question, not a payment one).
// Options 3 and 4 of the menu have no canned reply and fall through.
func DefaultRules() []Rule {
	return []Rule{
		// Menu commands
		{Name: "menu", Match: Exact("menu", "início", "inicio"), Category: replies.Menu},
		{Name: "option-1", Match: Exact("1"), Category: replies.Services},
		{Name: "option-2", Match: Exact("2"), Category: replies.Budget},
		{Name: "option-5", Match: Exact("5"), Category: replies.Payment},
		{Name: "option-6", Match: Exact("6", "atendente"), Category: replies.Contact},

		// Keywords
		{Name: "budget-keywords", Match: Contains("orçamento", "orcamento", "preço", "preco"), Category: replies.Budget},
		{Name: "service-keywords", Match: Contains("serviço", "servico", "formatação", "formatacao"), Category: replies.Services},
		{Name: "payment-keywords", Match: Contains("pagamento", "pagar", "pix"), Category: replies.Payment},
		{Name: "contact-keywords", Match: Contains("atendente", "humano", "pessoa"), Category: replies.Contact},

		// Greetings
		{Name: "greeting", Match: Contains("oi", "olá", "ola", "bom dia", "boa tarde", "boa noite"), Category: replies.Welcome},
	}
}
