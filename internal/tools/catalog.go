// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tools

// Catalog supplies the full ordered tool list the filter works against.
type Catalog interface {
	Tools() []Tool
}

// builtinCatalog is the compiled-in CRM catalog.
type builtinCatalog struct{}

// Builtin returns the compiled-in catalog.
func Builtin() Catalog {
	return builtinCatalog{}
}

// Tools returns a fresh copy of the default catalog.
func (builtinCatalog) Tools() []Tool {
	return DefaultCatalog()
}

func def(group string, risk RiskLevel, name, desc string, params ...Parameter) Tool {
	return Tool{
		Name:        name,
		Description: desc,
		Group:       group,
		Schema:      Schema{Parameters: params},
		RiskLevel:   risk,
	}
}

// DefaultCatalog returns the built-in CRM tool catalog in presentation order.
// Every call returns a new slice.
func DefaultCatalog() []Tool {
	return []Tool{
		// Read
		def(GroupRead, RiskLow, "search_leads", "Search leads by name, company, status or owner.",
			str("query", "Free-text search", false), str("status", "Lead status filter", false), num("limit", "Maximum results")),
		def(GroupRead, RiskLow, "get_top_leads", "Return the highest-scoring open leads.",
			num("limit", "Maximum results")),
		def(GroupRead, RiskLow, "search_opportunities", "Search opportunities by stage, owner, amount or close date.",
			str("query", "Free-text search", false), str("stage", "Opportunity stage", false), num("limit", "Maximum results")),
		def(GroupRead, RiskLow, "get_opportunity", "Fetch one opportunity with line items and history.",
			str("id", "Opportunity id", true)),
		def(GroupRead, RiskLow, "get_pipeline_stats", "Summarize pipeline value and counts by stage.",
			str("period", "Reporting period", false)),
		def(GroupRead, RiskLow, "get_forecast", "Return the sales forecast for a period.",
			str("period", "Forecast period", false)),
		def(GroupRead, RiskLow, "search_tasks", "Search tasks by subject, status or due date.",
			str("query", "Free-text search", false), str("status", "Task status", false)),
		def(GroupRead, RiskLow, "get_my_tasks", "List the current user's open tasks.",
			str("due", "Due window such as today or this_week", false)),
		def(GroupRead, RiskLow, "search_accounts", "Search accounts by name, industry or owner.",
			str("query", "Free-text search", false), num("limit", "Maximum results")),
		def(GroupRead, RiskLow, "get_account", "Fetch one account with contacts and open opportunities.",
			str("id", "Account id", true)),
		def(GroupRead, RiskLow, "get_account_signals", "Return engagement and risk signals for an account.",
			str("id", "Account id", true)),
		def(GroupRead, RiskLow, "search_contacts", "Search contacts by name, email or account.",
			str("query", "Free-text search", false), num("limit", "Maximum results")),
		def(GroupRead, RiskLow, "get_activities", "List recent activities for a record or the current user.",
			str("record_id", "Related record id", false), num("limit", "Maximum results")),
		def(GroupRead, RiskLow, "get_record_details", "Fetch any CRM record by id.",
			str("id", "Record id", true), str("type", "Record type", false)),
		def(GroupRead, RiskLow, "get_next_best_actions", "Suggest the next actions for the user's book of business."),

		// Write
		def(GroupWrite, RiskMedium, "create_lead", "Create a lead.",
			str("name", "Lead name", true), str("company", "Company name", false), str("email", "Email address", false)),
		def(GroupWrite, RiskMedium, "create_task", "Create a task.",
			str("subject", "Task subject", true), str("due_date", "Due date", false), str("related_to", "Related record id", false)),
		def(GroupWrite, RiskMedium, "create_opportunity", "Create an opportunity.",
			str("name", "Opportunity name", true), str("account_id", "Account id", false), num("amount", "Amount"), str("stage", "Stage", false)),
		def(GroupWrite, RiskMedium, "create_contact", "Create a contact.",
			str("name", "Contact name", true), str("account_id", "Account id", false), str("email", "Email address", false)),
		def(GroupWrite, RiskMedium, "create_account", "Create an account.",
			str("name", "Account name", true), str("industry", "Industry", false)),
		def(GroupWrite, RiskMedium, "update_record", "Update fields on any CRM record.",
			str("id", "Record id", true), Parameter{Name: "fields", Type: "object", Required: true, Description: "Field values to set"}),
		def(GroupWrite, RiskMedium, "log_activity", "Log a call, meeting or note against a record.",
			str("record_id", "Related record id", true), str("type", "Activity type", true), str("notes", "Notes", false)),

		// Research
		def(GroupResearch, RiskLow, "web_search", "Search the public web.",
			str("query", "Search query", true)),
		def(GroupResearch, RiskLow, "research_company", "Compile a research brief on a company.",
			str("company", "Company name", true)),
		def(GroupResearch, RiskLow, "get_company_financials", "Fetch reported financials for a public company.",
			str("company", "Company name or ticker", true), str("period", "Fiscal period", false)),
		def(GroupResearch, RiskLow, "get_stock_quote", "Fetch the latest stock quote.",
			str("ticker", "Ticker symbol", true)),

		// Document
		def(GroupDocument, RiskLow, "search_documents", "Search uploaded documents.",
			str("query", "Search query", true)),
		def(GroupDocument, RiskLow, "summarize_document", "Summarize an uploaded document.",
			str("document_id", "Document id", true)),
		def(GroupDocument, RiskMedium, "generate_document", "Generate a document from a template.",
			str("template", "Template name", true), str("record_id", "Source record id", false)),

		// Email
		def(GroupEmail, RiskHigh, "send_email", "Send an email on the user's behalf.",
			str("to", "Recipients", true), str("subject", "Subject", true), str("body", "Body", true)),
		def(GroupEmail, RiskLow, "check_inbox", "List recent inbox messages.",
			str("query", "Filter", false), num("limit", "Maximum results")),
		def(GroupEmail, RiskLow, "draft_email", "Draft an email without sending it.",
			str("to", "Recipients", false), str("subject", "Subject", false), str("body", "Body", true)),

		// Meeting
		def(GroupMeeting, RiskMedium, "schedule_meeting", "Schedule a meeting and send invites.",
			str("title", "Meeting title", true), str("start", "Start time", true), str("attendees", "Attendee emails", false)),
		def(GroupMeeting, RiskLow, "list_meetings", "List upcoming meetings.",
			str("range", "Date range", false)),
		def(GroupMeeting, RiskLow, "get_meeting_rsvps", "Return RSVP status for a meeting.",
			str("meeting_id", "Meeting id", true)),
		def(GroupMeeting, RiskLow, "get_meeting_participants", "List participants of a meeting.",
			str("meeting_id", "Meeting id", true)),
		def(GroupMeeting, RiskMedium, "cancel_meeting", "Cancel a meeting and notify attendees.",
			str("meeting_id", "Meeting id", true)),

		// Admin
		def(GroupAdmin, RiskLow, "list_validation_rules", "List validation rules on an object.",
			str("object", "Object API name", true)),
		def(GroupAdmin, RiskHigh, "create_validation_rule", "Create a validation rule.",
			str("object", "Object API name", true), str("formula", "Error condition formula", true), str("message", "Error message", true)),
		def(GroupAdmin, RiskLow, "list_workflow_rules", "List workflow rules on an object.",
			str("object", "Object API name", true)),
		def(GroupAdmin, RiskHigh, "create_workflow_rule", "Create a workflow rule.",
			str("object", "Object API name", true), str("criteria", "Rule criteria", true)),
		def(GroupAdmin, RiskLow, "list_approval_processes", "List approval processes on an object.",
			str("object", "Object API name", true)),
		def(GroupAdmin, RiskHigh, "create_approval_process", "Create an approval process.",
			str("object", "Object API name", true), str("definition", "Process definition", true)),
		def(GroupAdmin, RiskLow, "get_page_layouts", "List page layouts for an object.",
			str("object", "Object API name", true)),
		def(GroupAdmin, RiskHigh, "update_page_layout", "Modify a page layout.",
			str("layout", "Layout name", true), str("changes", "Layout changes", true)),
		def(GroupAdmin, RiskLow, "list_apex_classes", "List Apex classes in the org."),
		def(GroupAdmin, RiskHigh, "deploy_apex", "Deploy Apex code to the org.",
			str("name", "Class or trigger name", true), str("body", "Source", true)),
		def(GroupAdmin, RiskHigh, "deploy_component", "Deploy a UI component to the org.",
			str("name", "Component name", true), str("bundle", "Component bundle", true)),
		def(GroupAdmin, RiskLow, "list_reports", "List saved reports.",
			str("folder", "Report folder", false)),
		def(GroupAdmin, RiskMedium, "create_report", "Create a report.",
			str("name", "Report name", true), str("object", "Primary object", true)),
		def(GroupAdmin, RiskMedium, "create_dashboard", "Create a dashboard.",
			str("name", "Dashboard name", true)),
		def(GroupAdmin, RiskLow, "describe_object", "Describe an object's fields and relationships.",
			str("object", "Object API name", true)),
		def(GroupAdmin, RiskHigh, "create_custom_field", "Create a custom field.",
			str("object", "Object API name", true), str("label", "Field label", true), str("type", "Field type", true)),
		def(GroupAdmin, RiskHigh, "create_custom_object", "Create a custom object.",
			str("label", "Object label", true)),

		// Quotes
		def(GroupQuotes, RiskMedium, "create_quote", "Create a quote for an opportunity.",
			str("opportunity_id", "Opportunity id", true)),
		def(GroupQuotes, RiskLow, "get_quote", "Fetch a quote with line items.",
			str("id", "Quote id", true)),
		def(GroupQuotes, RiskLow, "list_quotes", "List quotes for an opportunity.",
			str("opportunity_id", "Opportunity id", false)),
		def(GroupQuotes, RiskMedium, "add_quote_line_items", "Add products to a quote.",
			str("quote_id", "Quote id", true), Parameter{Name: "items", Type: "array", Required: true, Description: "Line items"}),
	}
}
