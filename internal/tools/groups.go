// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tools

// =============================================================================
// GROUP NAMES
// =============================================================================

// Group names used by catalog entries.
const (
	GroupRead     = "read"
	GroupWrite    = "write"
	GroupResearch = "research"
	GroupDocument = "document"
	GroupEmail    = "email"
	GroupMeeting  = "meeting"
	GroupAdmin    = "admin"
	GroupQuotes   = "quotes"
)

// =============================================================================
// NAMED GROUPS
// =============================================================================
// Groups are fixed at build time. They overlap freely and are combined by
// Union in the decision engine; nothing mutates them after init.

// ReadGroup holds the read-only CRM lookups.
var ReadGroup = NewSet(
	"search_leads",
	"get_top_leads",
	"search_opportunities",
	"get_opportunity",
	"get_pipeline_stats",
	"get_forecast",
	"search_tasks",
	"get_my_tasks",
	"search_accounts",
	"get_account",
	"get_account_signals",
	"search_contacts",
	"get_activities",
	"get_record_details",
	"get_next_best_actions",
)

// WriteGroup holds the CRM record mutations.
var WriteGroup = NewSet(
	"create_lead",
	"create_task",
	"create_opportunity",
	"create_contact",
	"create_account",
	"update_record",
	"log_activity",
)

// ResearchGroup holds external research tools.
var ResearchGroup = NewSet(
	"web_search",
	"research_company",
	"get_company_financials",
	"get_stock_quote",
)

// DocumentGroup holds document search and generation tools.
var DocumentGroup = NewSet(
	"search_documents",
	"summarize_document",
	"generate_document",
)

// EmailGroup holds mailbox tools.
var EmailGroup = NewSet(
	"send_email",
	"check_inbox",
	"draft_email",
)

// MeetingGroup holds calendar tools.
var MeetingGroup = NewSet(
	"schedule_meeting",
	"list_meetings",
	"get_meeting_rsvps",
	"get_meeting_participants",
	"cancel_meeting",
)

// AdminGroup holds org metadata tools.
var AdminGroup = NewSet(
	"list_validation_rules",
	"create_validation_rule",
	"list_workflow_rules",
	"create_workflow_rule",
	"list_approval_processes",
	"create_approval_process",
	"get_page_layouts",
	"update_page_layout",
	"list_apex_classes",
	"deploy_apex",
	"deploy_component",
	"list_reports",
	"create_report",
	"create_dashboard",
	"describe_object",
	"create_custom_field",
	"create_custom_object",
)

// QuotesGroup holds quoting tools.
var QuotesGroup = NewSet(
	"create_quote",
	"get_quote",
	"list_quotes",
	"add_quote_line_items",
)

// Groups returns the named groups keyed by group name.
func Groups() map[string]*Set {
	return map[string]*Set{
		GroupRead:     ReadGroup,
		GroupWrite:    WriteGroup,
		GroupResearch: ResearchGroup,
		GroupDocument: DocumentGroup,
		GroupEmail:    EmailGroup,
		GroupMeeting:  MeetingGroup,
		GroupAdmin:    AdminGroup,
		GroupQuotes:   QuotesGroup,
	}
}

// GroupNames returns the group names in catalog order.
func GroupNames() []string {
	return []string{
		GroupRead, GroupWrite, GroupResearch, GroupDocument,
		GroupEmail, GroupMeeting, GroupAdmin, GroupQuotes,
	}
}
