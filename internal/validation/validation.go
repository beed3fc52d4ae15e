// Package validation implements the per-field answer checks driven by a
// question's declared validation rule.
package validation

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"hirebot/internal/models"
)

var (
	emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRegex = regexp.MustCompile(`^\+?[\d\s\-()]+$`)
)

// Sentinel answers accepted in place of a URL.
var urlSentinels = map[string]struct{}{
	"none":           {},
	"n/a":            {},
	"not applicable": {},
}

const minPhoneDigits = 7

// Result reports whether an answer passed and, when it did not, why.
type Result struct {
	Valid  bool
	Reason string
}

func ok() Result {
	return Result{Valid: true}
}

func fail(reason string) Result {
	return Result{Valid: false, Reason: reason}
}

// Validate checks a trimmed answer against the question's rule. The
// answer is trimmed here so callers and storage agree on the value.
func Validate(q *models.Question, answer string) Result {
	trimmed := strings.TrimSpace(answer)

	if trimmed == "" {
		if q.Required {
			return fail("This question is required. Please provide an answer.")
		}
		return ok()
	}

	rule := q.Validation

	switch rule.Type {
	case models.ValidationText:
		return validateLength(trimmed, rule)

	case models.ValidationEmail:
		if !emailRegex.MatchString(trimmed) {
			return fail("Please provide a valid email address (e.g., name@example.com).")
		}
		return ok()

	case models.ValidationPhone:
		if !phoneRegex.MatchString(trimmed) {
			return fail("Please provide a valid phone number (digits, spaces, dashes, parentheses, optional leading +).")
		}
		if digitCount(trimmed) < minPhoneDigits {
			return fail(fmt.Sprintf("Phone number must contain at least %d digits.", minPhoneDigits))
		}
		return ok()

	case models.ValidationNumber:
		if _, err := strconv.ParseFloat(trimmed, 64); err != nil {
			return fail("Please provide a numeric value.")
		}
		return ok()

	case models.ValidationURL:
		if _, sentinel := urlSentinels[strings.ToLower(trimmed)]; sentinel {
			return ok()
		}
		if !isWellFormedURL(trimmed) {
			return fail(`Please provide a valid URL (e.g., https://example.com) or reply "none".`)
		}
		return ok()

	case models.ValidationCustom:
		re, err := regexp.Compile(rule.Pattern)
		if err != nil {
			// A broken admin pattern must not lock the subject out.
			return ok()
		}
		if !re.MatchString(trimmed) {
			return fail("Your answer doesn't match the expected format.")
		}
		return validateLength(trimmed, rule)

	default:
		return validateLength(trimmed, rule)
	}
}

func validateLength(trimmed string, rule models.ValidationRule) Result {
	if rule.MinLength > 0 && len(trimmed) < rule.MinLength {
		return fail(fmt.Sprintf("Answer must be at least %d characters long.", rule.MinLength))
	}
	if rule.MaxLength > 0 && len(trimmed) > rule.MaxLength {
		return fail(fmt.Sprintf("Answer cannot exceed %d characters.", rule.MaxLength))
	}
	return ok()
}

func digitCount(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}

func isWellFormedURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	if u.Scheme == "" {
		// Accept bare domains like linkedin.com/in/me.
		u, err = url.Parse("https://" + s)
		if err != nil {
			return false
		}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return strings.Contains(u.Host, ".")
}

// Hint renders the combined constraint set for re-prompting after a
// failure.
func Hint(q *models.Question) string {
	parts := []string{}

	switch q.Validation.Type {
	case models.ValidationEmail:
		parts = append(parts, "a valid email address")
	case models.ValidationPhone:
		parts = append(parts, "a phone number with at least "+strconv.Itoa(minPhoneDigits)+" digits")
	case models.ValidationNumber:
		parts = append(parts, "a number")
	case models.ValidationURL:
		parts = append(parts, `a link, or "none" if you don't have one`)
	case models.ValidationCustom:
		parts = append(parts, "an answer in the requested format")
	default:
		parts = append(parts, "a text answer")
	}

	if q.Validation.MinLength > 0 {
		parts = append(parts, fmt.Sprintf("at least %d characters", q.Validation.MinLength))
	}
	if q.Validation.MaxLength > 0 {
		parts = append(parts, fmt.Sprintf("at most %d characters", q.Validation.MaxLength))
	}

	hint := "Expected: " + strings.Join(parts, ", ")
	if q.Required {
		hint += " (required)"
	}
	return hint
}
