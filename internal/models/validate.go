package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ErrNameEmpty is returned when a location or activity name is empty or
// whitespace-only after trim.
var ErrNameEmpty = errors.New("name is required")

// ErrNameTooLong is returned when a name exceeds the maximum length.
var ErrNameTooLong = errors.New("name too long")

// ErrNameInvalidChars is returned when a name contains disallowed characters.
var ErrNameInvalidChars = errors.New("name contains invalid characters")

const maxNameLen = 64

// ValidationError reports malformed criteria or coordinates. It is raised at
// definition time; the matcher assumes pre-validated criteria.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ValidateName trims the input, enforces the length bound, and restricts to
// letters (Unicode), digits, space, comma, hyphen. Returns the trimmed name.
func ValidateName(input string) (string, error) {
	s := strings.TrimSpace(input)
	r := []rune(s)
	if len(r) == 0 {
		return "", ErrNameEmpty
	}
	if len(r) > maxNameLen {
		return "", ErrNameTooLong
	}
	for _, c := range r {
		if !isAllowedNameRune(c) {
			return "", ErrNameInvalidChars
		}
	}
	return s, nil
}

func isAllowedNameRune(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsNumber(r) {
		return true
	}
	switch r {
	case ' ', ',', '-':
		return true
	}
	return false
}

// ValidateLocation checks the name and coordinate ranges of a location.
func ValidateLocation(l Location) error {
	if _, err := ValidateName(l.Name); err != nil {
		return &ValidationError{Field: "name", Reason: err.Error()}
	}
	if err := validate.Struct(l); err != nil {
		return &ValidationError{Field: "coordinates", Reason: err.Error()}
	}
	return nil
}

// ValidateCriteria checks the struct tags plus the cross-field rules the tags
// cannot express: min <= max for temperature and wind, and well-formed
// "HH:MM" time bounds that are either both set or both absent.
func ValidateCriteria(c Criteria) error {
	if err := validate.Struct(c); err != nil {
		return &ValidationError{Field: "criteria", Reason: err.Error()}
	}
	if c.TempMin != nil && c.TempMax != nil && *c.TempMin > *c.TempMax {
		return &ValidationError{Field: "temperature", Reason: "min exceeds max"}
	}
	if c.WindMin != nil && c.WindMax != nil && *c.WindMin > *c.WindMax {
		return &ValidationError{Field: "wind", Reason: "min exceeds max"}
	}
	if (c.TimeStart == "") != (c.TimeEnd == "") {
		return &ValidationError{Field: "time window", Reason: "start and end must both be set"}
	}
	if c.HasTimeWindow() {
		for _, v := range []string{c.TimeStart, c.TimeEnd} {
			if _, err := time.Parse("15:04", v); err != nil {
				return &ValidationError{Field: "time window", Reason: fmt.Sprintf("%q is not HH:MM", v)}
			}
		}
	}
	return nil
}

// ValidateActivity validates the activity name and its criteria.
func ValidateActivity(a Activity) error {
	if _, err := ValidateName(a.Name); err != nil {
		return &ValidationError{Field: "name", Reason: err.Error()}
	}
	return ValidateCriteria(a.Criteria)
}
