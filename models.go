package main

import (
	"strings"
	"time"
)

// Priority buckets an accepted complaint by severity. PriorityNormal is the
// fallback when the oracle answer cannot be mapped onto the enum.
type Priority string

const (
	PriorityHigh     Priority = "High"
	PriorityModerate Priority = "Moderate"
	PriorityNormal   Priority = "Normal"
)

// Category buckets an accepted complaint by topic.
type Category string

const (
	CategoryBilling        Category = "Billing"
	CategoryTechnicalIssue Category = "Technical Issue"
	CategoryProductQuery   Category = "Product Query"
	CategoryFeedback       Category = "Feedback"
)

type TriageStatus string

const (
	StatusProcessed TriageStatus = "processed"
	StatusDuplicate TriageStatus = "duplicate"
)

// TriageResult is the terminal outcome of one pipeline run. Priority and
// Category are only set when Status is StatusProcessed.
type TriageResult struct {
	Status   TriageStatus `json:"status"`
	Priority Priority     `json:"priority,omitempty"`
	Category Category     `json:"category,omitempty"`
}

type ActionKind string

const (
	ActionTaken  ActionKind = "action_taken"
	ActionFailed ActionKind = "action_failed"
	NoAction     ActionKind = "no_action"
)

// ActionOutcome reports what the dispatcher did for one ticket. Detail carries
// the sink error text on failure, or the composed reply when no sink call was
// made.
type ActionOutcome struct {
	Kind     ActionKind
	Detail   string
	SinkBody map[string]any
}

// TicketContext is the slice of ticket data the dispatcher needs when it
// escalates or replies.
type TicketContext struct {
	TicketID      int64
	CustomerEmail string
	Complaint     string
	Category      Category
}

type Ticket struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
}

// Escalation status tokens reported to the caller and recorded in the audit
// trail alongside a high-priority triage result.
const (
	escalationTriggered = "Triggered"
	escalationFailed    = "Failed"
)

// TriageRecord is one row of the triage audit trail.
type TriageRecord struct {
	ID               int64
	Complaint        string
	Status           TriageStatus
	Priority         Priority
	Category         Category
	EscalationStatus string
	Model            string
	CreatedAt        time.Time
}

// ParsePriority maps a raw oracle answer onto the priority enum. The answer is
// trimmed and matched case-insensitively; anything else is rejected so the
// caller can fall back to PriorityNormal.
func ParsePriority(raw string) (Priority, bool) {
	raw = strings.TrimSpace(raw)
	for _, p := range []Priority{PriorityHigh, PriorityModerate, PriorityNormal} {
		if strings.EqualFold(raw, string(p)) {
			return p, true
		}
	}
	return "", false
}

// ParseCategory maps a raw oracle answer onto the category enum. Answers match
// case-insensitively, with or without the space ("TechnicalIssue" is accepted
// for "Technical Issue").
func ParseCategory(raw string) (Category, bool) {
	raw = strings.TrimSpace(raw)
	for _, c := range []Category{CategoryBilling, CategoryTechnicalIssue, CategoryProductQuery, CategoryFeedback} {
		if strings.EqualFold(raw, string(c)) || strings.EqualFold(raw, strings.ReplaceAll(string(c), " ", "")) {
			return c, true
		}
	}
	return "", false
}
