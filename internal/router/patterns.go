// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package router

import (
	"regexp"
	"strings"
)

// ============================================================================
// RULES
// ============================================================================

// Rule maps a query pattern to a fixed classification.
//
// A rule matches when Match matches and Unless (if set) does not. Unless
// keeps broad rules from claiming queries that belong to a later, more
// specific rule.
type Rule struct {
	Name   string
	Match  *regexp.Regexp
	Unless *regexp.Regexp
	Result QueryClassification
}

// Matches reports whether the rule claims query.
func (r Rule) Matches(query string) bool {
	if !r.Match.MatchString(query) {
		return false
	}
	return r.Unless == nil || !r.Unless.MatchString(query)
}

// PatternClassifier is the fast path: an ordered, first-match-wins rule list.
// It is read-only after construction and safe for concurrent use.
type PatternClassifier struct {
	rules []Rule
}

// NewPatternClassifier builds a classifier over rules. The slice is copied.
func NewPatternClassifier(rules []Rule) *PatternClassifier {
	cp := make([]Rule, len(rules))
	copy(cp, rules)
	return &PatternClassifier{rules: cp}
}

// DefaultPatternClassifier returns a classifier over DefaultRules.
func DefaultPatternClassifier() *PatternClassifier {
	return NewPatternClassifier(DefaultRules())
}

// Classify returns the classification of the first matching rule.
// The bool is false when no rule matches.
func (p *PatternClassifier) Classify(query string) (QueryClassification, bool) {
	q := strings.TrimSpace(query)
	if q == "" {
		return QueryClassification{}, false
	}
	for _, r := range p.rules {
		if r.Matches(q) {
			out := r.Result.Clone()
			out.Reasoning = "pattern:" + r.Name
			return out, true
		}
	}
	return QueryClassification{}, false
}

// Rules returns a copy of the rule list in priority order.
func (p *PatternClassifier) Rules() []Rule {
	cp := make([]Rule, len(p.rules))
	copy(cp, p.rules)
	return cp
}

// ============================================================================
// SHARED FRAGMENTS
// ============================================================================

const (
	// readVerbs introduce a lookup.
	readVerbs = `(?:show|list|get|find|search(?:\s+for)?|display|view|pull\s+up|give\s+me|fetch|look\s+up|see|what\s+are|what's|what\s+is|which|how\s+many|do\s+i\s+have)`

	// chainMarkers signal more than one step.
	chainMarkers = `\band\s+then\b|\bthen\b|\bafter\s+that\b|\bafterwards\b|\bfollowed\s+by\b|\band\s+also\b|\band\s+(?:send|email|create|update|schedule|log|draft|notify|add|book|assign)\b`

	// adminNouns name org metadata rather than records.
	adminNouns = `\b(?:validation\s+rules?|workflows?|approval\s+process(?:es)?|page\s+layouts?|layouts?|apex|triggers?|components?|custom\s+(?:fields?|objects?)|fields?\s+on|objects?\s+(?:schema|metadata|fields?))\b`

	// researchMarkers name external research requests.
	researchMarkers = `\b(?:research|deep[-\s]?dive|investigate|look\s+into|find\s+out\s+about|background\s+on|briefing|competitive\s+(?:analysis|landscape)|report\s+(?:on|about))\b`
)

func re(pattern string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + pattern)
}

var (
	chainRe    = re(chainMarkers)
	recordGate = re(chainMarkers + `|` + adminNouns)
)

func result(complexity Complexity, category Category, confidence float64, requiresTools bool, suggested ...string) QueryClassification {
	if suggested == nil {
		suggested = []string{}
	}
	return QueryClassification{
		Complexity:     complexity,
		Category:       category,
		Confidence:     confidence,
		RequiresTools:  requiresTools,
		SuggestedTools: suggested,
	}
}

func readRule(name, noun string, suggested ...string) Rule {
	return Rule{
		Name:   name,
		Match:  re(`\b` + readVerbs + `\b.*\b(?:` + noun + `)\b`),
		Unless: recordGate,
		Result: result(ComplexitySimple, CategoryCRMRead, 0.9, true, suggested...),
	}
}

func writeRule(name, pattern string, suggested ...string) Rule {
	return Rule{
		Name:   name,
		Match:  re(pattern),
		Unless: recordGate,
		Result: result(ComplexityModerate, CategoryCRMWrite, 0.85, true, suggested...),
	}
}

func opRule(name, pattern string, category Category, suggested ...string) Rule {
	return Rule{
		Name:   name,
		Match:  re(pattern),
		Unless: chainRe,
		Result: result(ComplexityModerate, category, 0.85, true, suggested...),
	}
}

// adminRules yields a read-only listing rule and a change rule for one
// kind of org metadata.
func adminRules(name, noun string, unless string, list, change []string) []Rule {
	listUnless := chainMarkers
	changeUnless := chainMarkers
	if unless != "" {
		listUnless += `|` + unless
		changeUnless += `|` + unless
	}
	return []Rule{
		{
			Name:   "admin-" + name + "-list",
			Match:  re(`\b` + readVerbs + `\b.*\b(?:` + noun + `)\b`),
			Unless: re(listUnless),
			Result: result(ComplexitySimple, CategoryAdmin, 0.85, true, list...),
		},
		{
			Name:   "admin-" + name,
			Match:  re(`\b(?:` + noun + `)\b`),
			Unless: re(changeUnless),
			Result: result(ComplexityModerate, CategoryAdmin, 0.85, true, change...),
		},
	}
}

// ============================================================================
// DEFAULT RULE LIST
// ============================================================================

// DefaultRules returns the built-in rule list, most specific first:
// greetings, CRM reads, CRM writes, domain operations, then complex intent.
func DefaultRules() []Rule {
	var rules []Rule

	// Greetings: the whole message is a pleasantry.
	rules = append(rules, Rule{
		Name: "greeting",
		Match: re(`^(?:hi|hello|hey|hiya|howdy|yo|greetings|good\s+(?:morning|afternoon|evening|day)|thanks|thank\s+you|thx|cheers|bye|goodbye|see\s+you|how\s+are\s+you|how's\s+it\s+going|what's\s+up)` +
			`(?:[\s,]+(?:there|all|everyone|team|again|so\s+much|a\s+lot|very\s+much|buddy|friend|today))*[\s!.,?]*$`),
		Result: result(ComplexitySimple, CategoryGreeting, 0.95, false),
	})

	// CRM reads, one rule per entity.
	rules = append(rules,
		readRule("crm-read-pipeline-stats", `pipeline\s+(?:stats|statistics|summary|value|totals?|numbers)|deals?\s+by\s+stage`, "get_pipeline_stats"),
		readRule("crm-read-forecast", `forecasts?`, "get_forecast"),
		readRule("crm-read-leads", `leads?`, "search_leads", "get_top_leads"),
		readRule("crm-read-opportunities", `opportunit(?:y|ies)|opps?|deals?|pipeline`, "search_opportunities", "get_opportunity"),
		readRule("crm-read-tasks", `tasks?|to-?dos?|follow[-\s]?ups?`, "search_tasks", "get_my_tasks"),
		readRule("crm-read-account-signals", `account\s+signals?|buying\s+signals?|intent\s+signals?|signals?\s+(?:for|on)`, "get_account_signals"),
		readRule("crm-read-accounts", `accounts?`, "search_accounts", "get_account"),
		readRule("crm-read-contacts", `contacts?`, "search_contacts"),
		readRule("crm-read-activities", `activit(?:y|ies)|call\s+log|recent\s+calls`, "get_activities"),
		Rule{
			Name:   "crm-read-details",
			Match:  re(`\b(?:get|show|pull\s+up|give\s+me)\s+(?:me\s+)?(?:the\s+|more\s+)?details\b|\bdetails\s+(?:on|for|about)\b`),
			Unless: recordGate,
			Result: result(ComplexitySimple, CategoryCRMRead, 0.85, true, "get_record_details"),
		},
		Rule{
			Name:   "crm-read-next-actions",
			Match:  re(`\bwhat\s+should\s+i\s+(?:do|focus\s+on|work\s+on)\b|\bnext\s+best\s+actions?\b`),
			Unless: chainRe,
			Result: result(ComplexitySimple, CategoryCRMRead, 0.85, true, "get_next_best_actions"),
		},
	)

	// CRM writes.
	const create = `\b(?:create|add|make|enter|new)\s+(?:a\s+|an\s+)?(?:new\s+)?`
	rules = append(rules,
		writeRule("crm-write-log-activity", `\blog\s+(?:a\s+|an\s+|my\s+|the\s+)?(?:call|activity|meeting|note|visit)\b|\badd\s+(?:a\s+)?note\b`, "log_activity"),
		writeRule("crm-write-create-lead", create+`leads?\b`, "create_lead"),
		writeRule("crm-write-create-task", create+`(?:tasks?|to-?dos?|reminders?|follow[-\s]?ups?)\b|\bremind\s+me\b`, "create_task"),
		writeRule("crm-write-create-opportunity", create+`(?:opportunit(?:y|ies)|opps?|deals?)\b`, "create_opportunity"),
		writeRule("crm-write-create-contact", create+`contacts?\b`, "create_contact"),
		writeRule("crm-write-create-account", create+`accounts?\b`, "create_account"),
		writeRule("crm-write-update-record",
			`\b(?:update|change|edit|modify|mark|rename|reassign)\b.*\b(?:leads?|opportunit(?:y|ies)|opps?|deals?|accounts?|contacts?|tasks?|records?|stage|status|amount|close\s+date|owner)\b`+
				`|\bset\s+(?:the\s+)?(?:stage|status|amount|close\s+date|owner)\b|\bmove\b.*\bto\s+(?:stage|closed|negotiation|proposal|won|lost)\b`,
			"update_record"),
	)

	// Domain operations: email, meetings, documents, org admin.
	rules = append(rules,
		opRule("email-send", `\b(?:send|write|compose|draft|reply(?:\s+to)?)\b.*\b(?:e-?mails?|messages?|replies)\b|\be-?mail\s+(?:him|her|them|the|my|all|every)\b`,
			CategoryEmail, "send_email", "draft_email"),
		opRule("email-check", `\b(?:check|read|show|any|new|unread|recent|latest)\b.*\b(?:e-?mails?|inbox)\b|\binbox\b`,
			CategoryEmail, "check_inbox"),
		opRule("meeting-schedule", `\b(?:schedule|book|set\s+up|arrange|organi[sz]e)\b.*\b(?:meetings?|calls?|demos?|syncs?|appointments?)\b`,
			CategoryMeeting, "schedule_meeting"),
		opRule("meeting-rsvp", `\brsvps?\b|\bwho\s+(?:has\s+|have\s+)?(?:accepted|declined|responded)\b`,
			CategoryMeeting, "get_meeting_rsvps"),
		opRule("meeting-participants", `\b(?:participants|attendees)\b|\bwho(?:'s|\s+is)\s+(?:attending|coming|joining)\b`,
			CategoryMeeting, "get_meeting_participants"),
		opRule("meeting-cancel", `\b(?:cancel|call\s+off)\b.*\b(?:meetings?|calls?|demos?|appointments?)\b`,
			CategoryMeeting, "cancel_meeting"),
		opRule("meeting-list", `\b(?:meetings?|calendar|agenda|appointments?)\b`,
			CategoryMeeting, "list_meetings"),
		opRule("document", `\b(?:summari[sz]e|search|find|generate|create|draft|write|prepare)\b.*\b(?:documents?|docs?|pdfs?|files?|contracts?|proposals?|attachments?)\b`,
			CategoryDocument, "search_documents", "summarize_document", "generate_document"),
	)
	rules = append(rules, adminRules("validation", `validation\s+rules?`, "",
		[]string{"list_validation_rules"}, []string{"create_validation_rule"})...)
	rules = append(rules, adminRules("workflow", `workflows?(?:\s+rules?)?`, "",
		[]string{"list_workflow_rules"}, []string{"create_workflow_rule"})...)
	rules = append(rules, adminRules("approval", `approval\s+(?:process(?:es)?|steps?)`, "",
		[]string{"list_approval_processes"}, []string{"create_approval_process"})...)
	rules = append(rules, adminRules("layout", `page\s+layouts?|layouts?`, "",
		[]string{"get_page_layouts"}, []string{"update_page_layout"})...)
	rules = append(rules, adminRules("apex", `apex(?:\s+(?:class(?:es)?|triggers?|code))?|triggers?`, "",
		[]string{"list_apex_classes"}, []string{"deploy_apex"})...)
	rules = append(rules, adminRules("component", `(?:lightning|lwc|aura|ui)\s+components?`, "",
		nil, []string{"deploy_component"})...)
	rules = append(rules, adminRules("report", `reports?|dashboards?`, researchMarkers,
		[]string{"list_reports"}, []string{"create_report", "create_dashboard"})...)
	rules = append(rules, adminRules("schema", `custom\s+(?:fields?|objects?)|fields?\s+on|objects?\s+(?:schema|metadata|fields?)`, "",
		[]string{"describe_object"}, []string{"create_custom_field", "create_custom_object"})...)

	// Complex intent, in priority order.
	rules = append(rules,
		Rule{
			Name:   "research",
			Match:  re(researchMarkers),
			Result: result(ComplexityComplex, CategoryResearch, 0.85, true, "web_search", "research_company"),
		},
		Rule{
			Name: "research-company-financials",
			Match: re(`\b(?:analy[sz]e|analysis\s+of|review|assess|evaluate|compare|break\s+down)\b.*` +
				`\b(?:financials?|financial\s+(?:performance|results|health|statements?)|revenue|earnings|quarterly|annual\s+report|10-?[kq]|balance\s+sheet|stock|market\s+cap|profit(?:ability)?|margins?)\b`),
			Unless: re(`\b(?:my|our|mine)\b|\bpipeline\b|\bdeals?\b|\bforecasts?\b|\bquota\b`),
			Result: result(ComplexityComplex, CategoryResearch, 0.85, true, "get_company_financials", "research_company"),
		},
		Rule{
			Name:   "multi-step",
			Match:  chainRe,
			Result: result(ComplexityComplex, CategoryMultiStep, 0.8, true),
		},
		Rule{
			Name: "crm-analysis",
			Match: re(`\b(?:analy[sz]e|analysis|assess|evaluate|review|compare|break\s+down|breakdown|insights?|trends?|why)\b.*` +
				`\b(?:pipeline|deals?|opportunit(?:y|ies)|leads?|accounts?|forecasts?|quota|sales|territory|book\s+of\s+business|win\s+rates?|conversion)\b` +
				`|\b(?:pipeline|deals?|forecast|sales|territory|accounts?)\s+(?:health|trends?|analysis|risks?|performance|velocity)\b` +
				`|\bat[-\s]risk\b`),
			Result: result(ComplexityComplex, CategoryCRMAnalysis, 0.85, true, "get_pipeline_stats", "search_opportunities"),
		},
		Rule{
			Name:   "analysis",
			Match:  re(`\b(?:analy[sz]e|analysis|assess|evaluate|compare|insights?|trends?)\b`),
			Result: result(ComplexityComplex, CategoryCRMAnalysis, 0.7, true),
		},
	)

	return rules
}
