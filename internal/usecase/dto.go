package usecase

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/xavierca1/pipeline-crm/internal/entity"
)

// noneOption is what select inputs send for "no value".
const noneOption = "__none__"

// Amount accepts a JSON number, a numeric string or null. Strings are read
// in the 1.234,56 format, so "1.500" is fifteen hundred.
type Amount struct {
	Value   *float64
	Raw     string
	Invalid bool
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	*a = Amount{}
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		a.Raw = s
		a.Value, a.Invalid = parseAmountString(s)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		a.Raw = string(data)
		a.Invalid = true
		return nil
	}
	a.Value = &f
	return nil
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.Value)
}

func parseAmountString(s string) (*float64, bool) {
	v, err := entity.ParseLocaleAmount(s)
	return v, err != nil
}

// LeadInput is the editable shape of a lead shared by create and update.
type LeadInput struct {
	ID               string   `json:"id"`
	PipelineID       string   `json:"pipeline_id"`
	StageID          string   `json:"stage_id"`
	Title            string   `json:"title"`
	Email            string   `json:"email"`
	Phone            string   `json:"phone"`
	PhoneCountryCode string   `json:"phone_country_code"`
	WhatsApp         string   `json:"whatsapp"`
	Website          string   `json:"website"`
	Source           string   `json:"source"`
	Notes            string   `json:"notes"`
	AssigneeUserID   string   `json:"assignee_user_id"`
	Summary          string   `json:"resumo"`
	Nationality      string   `json:"nacionalidade"`
	Value            Amount   `json:"valor"`
	Position         *int     `json:"position"`
	Tags             []string `json:"tags"`
}

// selectValue maps an empty or "__none__" select value to nil.
func selectValue(s string) *string {
	if strings.TrimSpace(s) == noneOption {
		return nil
	}
	return entity.NullIfEmpty(s)
}

// countryCodeFor defaults the country code only when a phone is present.
func countryCodeFor(phone *string, code string) *string {
	if phone == nil {
		return nil
	}
	if c := entity.NullIfEmpty(code); c != nil {
		return c
	}
	return strPtr(entity.DefaultCountryCode)
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = entity.NormalizeTag(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
