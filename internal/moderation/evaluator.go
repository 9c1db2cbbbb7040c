// Package moderation classifies inbound messages and enforces the chat policy.
package moderation

import (
	"regexp"
	"strings"
	"unicode/utf16"
)

// Violation is a category of rule a message broke.
type Violation string

const (
	ViolationSpam          Violation = "spam"
	ViolationInappropriate Violation = "inappropriate_content"
	ViolationExcessiveCaps Violation = "excessive_caps"
)

// Action is what enforcement did, or would do, about a flagged message.
type Action string

const (
	ActionWarn   Action = "warn"
	ActionDelete Action = "delete"
	ActionNone   Action = "none"
)

// Verdict is the per-message moderation result.
type Verdict struct {
	Flagged    bool        `json:"flagged"`
	Violations []Violation `json:"violations"`
	Action     Action      `json:"action,omitempty"`
}

var spamPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)https?://bit\.ly`),
	regexp.MustCompile(`(?i)click here`),
	regexp.MustCompile(`(?i)earn \$\d+`),
	regexp.MustCompile(`(?i)free money`),
	regexp.MustCompile(`(?i)limited time offer`),
	regexp.MustCompile(`(?i)act now`),
	regexp.MustCompile(`(?i)winners?.*selected`),
	regexp.MustCompile(`(?i)claim.*prize`),
}

const (
	capsMinLength = 10
	capsMaxRatio  = 0.7
)

// Evaluate returns the violations in text, in the fixed order spam,
// inappropriate_content, excessive_caps. It has no side effects.
func Evaluate(text string, keywords []string) []Violation {
	var out []Violation
	if isSpam(text) {
		out = append(out, ViolationSpam)
	}
	if containsKeyword(text, keywords) {
		out = append(out, ViolationInappropriate)
	}
	if isExcessiveCaps(text) {
		out = append(out, ViolationExcessiveCaps)
	}
	return out
}

func isSpam(text string) bool {
	for _, p := range spamPatterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

func containsKeyword(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" && strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// textLength counts UTF-16 code units, so astral symbols such as emoji count twice.
func textLength(text string) int {
	n := 0
	for _, r := range text {
		if l := utf16.RuneLen(r); l > 0 {
			n += l
		} else {
			n++
		}
	}
	return n
}

func isExcessiveCaps(text string) bool {
	if textLength(text) < capsMinLength {
		return false
	}
	var upper, letters int
	for _, r := range text {
		switch {
		case r >= 'A' && r <= 'Z':
			upper++
			letters++
		case r >= 'a' && r <= 'z':
			letters++
		}
	}
	if letters == 0 {
		return false
	}
	return float64(upper)/float64(letters) > capsMaxRatio
}

// ViolationNames joins violations for user-facing text.
func ViolationNames(violations []Violation) string {
	names := make([]string, len(violations))
	for i, v := range violations {
		names[i] = string(v)
	}
	return strings.Join(names, ", ")
}
