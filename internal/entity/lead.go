package entity

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
)

type LeadOutcome string

const (
	OutcomeOpen LeadOutcome = "open"
	OutcomeWon  LeadOutcome = "won"
	OutcomeLost LeadOutcome = "lost"
)

func ParseLeadOutcome(s string) (LeadOutcome, error) {
	switch o := LeadOutcome(strings.ToLower(strings.TrimSpace(s))); o {
	case OutcomeOpen, OutcomeWon, OutcomeLost:
		return o, nil
	}
	return "", fmt.Errorf("unknown outcome %q", s)
}

const (
	DefaultCountryCode = "32"
	SourceManual       = "manual"
	SourceIngest       = "scrapping n8n"
)

type Lead struct {
	ID               string      `json:"id"`
	PipelineID       string      `json:"pipeline_id"`
	StageID          string      `json:"stage_id"`
	Title            string      `json:"title"`
	Email            *string     `json:"email"`
	Phone            *string     `json:"phone"`
	PhoneCountryCode *string     `json:"phone_country_code"`
	WhatsApp         *string     `json:"whatsapp"`
	Website          *string     `json:"website"`
	Source           string      `json:"source"`
	AssigneeUserID   *string     `json:"assignee_user_id"`
	Notes            *string     `json:"notes"`
	Summary          *string     `json:"resumo"`
	Nationality      *string     `json:"nacionalidade"`
	Value            *float64    `json:"valor"`
	Outcome          LeadOutcome `json:"outcome"`
	Position         int         `json:"position"`
	Tags             []string    `json:"tags"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

// DedupeField names the single lead attribute used to reject duplicate
// inbound leads inside a pipeline.
type DedupeField string

const (
	DedupeEmail   DedupeField = "email"
	DedupePhone   DedupeField = "phone"
	DedupeWebsite DedupeField = "website"
)

func ParseDedupeField(s string) (DedupeField, error) {
	if strings.TrimSpace(s) == "" {
		return DedupeEmail, nil
	}
	switch f := DedupeField(strings.ToLower(strings.TrimSpace(s))); f {
	case DedupeEmail, DedupePhone, DedupeWebsite:
		return f, nil
	}
	return "", fmt.Errorf("unknown dedupe field %q", s)
}

// DedupeValue returns the lead's value for field, or "" when the lead does not
// carry it (no dedupe check applies then).
func (l *Lead) DedupeValue(field DedupeField) string {
	var v *string
	switch field {
	case DedupeEmail:
		v = l.Email
	case DedupePhone:
		v = l.Phone
	case DedupeWebsite:
		v = l.Website
	}
	if v == nil {
		return ""
	}
	return *v
}

// NullIfEmpty trims s and returns nil for blank input.
func NullIfEmpty(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// NormalizeTag trims and lowercases a tag.
func NormalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}

// FullPhone joins a country code with the digits of phone, e.g. ("32", "470 12 34 56")
// -> "32470123456".
func FullPhone(countryCode, phone string) string {
	digits := onlyDigits(phone)
	if digits == "" {
		return ""
	}
	return onlyDigits(countryCode) + digits
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ParseLocaleAmount reads a currency amount typed with dots as thousands
// separators and a comma as decimal separator ("1.234,56" -> 1234.56).
// Blank input yields nil.
func ParseLocaleAmount(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	normalized := strings.ReplaceAll(s, ".", "")
	normalized = strings.Replace(normalized, ",", ".", 1)
	v, err := strconv.ParseFloat(normalized, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	return &v, nil
}

// LeadFilter scopes lead listings. An empty MemberUserID lists every lead.
type LeadFilter struct {
	MemberUserID string
}

type LeadRepositoryInterface interface {
	Create(ctx context.Context, lead *Lead) error
	// CreateDeduplicated inserts lead unless another lead of the same pipeline
	// already holds the same value for field. Returns ErrDuplicateLead then.
	CreateDeduplicated(ctx context.Context, lead *Lead, field DedupeField) error
	FindByID(ctx context.Context, id string) (*Lead, error)
	ListByPipeline(ctx context.Context, pipelineID string) ([]Lead, error)
	List(ctx context.Context, filter LeadFilter) ([]Lead, error)
	Update(ctx context.Context, lead *Lead) error
	// UpdateStage moves lead id into stageID and renumbers that column's
	// positions following order.
	UpdateStage(ctx context.Context, id, stageID string, order []string) error
	UpdateAssignee(ctx context.Context, id string, assignee *string) error
	UpdateNotes(ctx context.Context, id string, notes *string) error
	UpdateOutcome(ctx context.Context, id string, outcome LeadOutcome) error
	Delete(ctx context.Context, id string) error
	AddTags(ctx context.Context, leadID string, tags []string) error
	RemoveTag(ctx context.Context, leadID, tag string) error
}
