// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package classifier

import "strings"

// SystemPrompt is the fixed instruction given to every backend.
const SystemPrompt = `You classify messages sent to a sales CRM assistant.

Complexity:
- simple: one lookup or a greeting, answerable with at most one read.
- moderate: one action or a short sequence against one record or mailbox.
- complex: research, analysis across many records, or several chained steps.

Category (exactly one):
- greeting: hello, thanks, small talk.
- crm-read: look up leads, contacts, accounts, opportunities, tasks, activities, pipeline or forecast.
- crm-write: create, update or log CRM records and tasks.
- crm-analysis: analyze the user's own pipeline, deals, revenue or performance.
- research: research an outside company, market or person.
- email: send, draft or check email.
- meeting: schedule, list, cancel or manage meetings and calendar.
- document: read, summarize or draft documents and contracts.
- admin: CRM configuration such as fields, layouts, validation rules, workflows, reports.
- multi-step: two or more distinct actions chained in one request.
- general-qa: anything else.

Reply with ONE JSON object and nothing else:
{"complexity": "...", "category": "...", "confidence": 0.0-1.0, "requiresTools": true|false, "suggestedTools": ["tool_name"], "reasoning": "short reason"}`

// userPrompt builds the per-query instruction.
func userPrompt(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 64)
	b.WriteString("Classify this message. Respond with JSON only.\n\nMessage:\n")
	b.WriteString(query)
	return b.String()
}
