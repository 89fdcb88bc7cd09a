package usecase

import (
	"fmt"
	"net/mail"
	"net/url"
	"sort"
	"strings"

	"github.com/google/uuid"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// validationFailed folds a list of field errors into a DomainError whose
// Fields maps each field to its messages.
func validationFailed(errs []ValidationError) error {
	fields := make(map[string][]string, len(errs))
	names := make([]string, 0, len(errs))
	for _, e := range errs {
		if _, seen := fields[e.Field]; !seen {
			names = append(names, e.Field)
		}
		fields[e.Field] = append(fields[e.Field], e.Message)
	}
	sort.Strings(names)
	return &DomainError{
		Code:    CodeValidation,
		Message: "validation failed: " + strings.Join(names, ", "),
		Fields:  fields,
	}
}

func isUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

func isEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

func isURL(s string) bool {
	u, err := url.ParseRequestURI(s)
	return err == nil && u.Scheme != "" && u.Host != ""
}
