package domain

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/allisson/secpolicy/internal/errors"
)

// DefaultMaxInputLength bounds a single screened value.
const DefaultMaxInputLength = 1000

// BlockedPattern is a named rule rejecting markup or traversal sequences in user input.
type BlockedPattern struct {
	Name    string
	Pattern *regexp.Regexp
}

// DefaultBlockedPatterns returns the built-in rules.
func DefaultBlockedPatterns() []BlockedPattern {
	return []BlockedPattern{
		{Name: "script_tag", Pattern: regexp.MustCompile(`(?i)<script`)},
		{Name: "javascript_uri", Pattern: regexp.MustCompile(`(?i)javascript:`)},
		{Name: "inline_handler", Pattern: regexp.MustCompile(`(?i)\bon\w+\s*=`)},
		{Name: "path_traversal", Pattern: regexp.MustCompile(`\.\./|\.\.\\`)},
		{Name: "iframe_tag", Pattern: regexp.MustCompile(`(?i)<iframe`)},
		{Name: "object_tag", Pattern: regexp.MustCompile(`(?i)<object`)},
		{Name: "embed_tag", Pattern: regexp.MustCompile(`(?i)<embed`)},
	}
}

// ErrSuspiciousInput matches every *SuspiciousInputError with errors.Is.
var ErrSuspiciousInput = &SuspiciousInputError{}

// SuspiciousInputError names the field and the rule that rejected it. The value itself is
// never included.
type SuspiciousInputError struct {
	Field string
	Rule  string
}

func (e *SuspiciousInputError) Error() string {
	if e.Field == "" {
		return "input rejected"
	}
	return fmt.Sprintf("field %q rejected by rule %s", e.Field, e.Rule)
}

// Is matches any other *SuspiciousInputError.
func (e *SuspiciousInputError) Is(target error) bool {
	_, ok := target.(*SuspiciousInputError)
	return ok
}

func (e *SuspiciousInputError) Unwrap() error {
	return errors.ErrInvalidInput
}

// ErrorCode is the machine-readable code sent to clients.
func (e *SuspiciousInputError) ErrorCode() string {
	return "suspicious_input"
}

// Screener checks user supplied values against blocked patterns and a length cap.
type Screener struct {
	patterns  []BlockedPattern
	maxLength int
}

// NewScreener creates a Screener. A non-positive maxLength disables the length check.
func NewScreener(patterns []BlockedPattern, maxLength int) *Screener {
	return &Screener{patterns: patterns, maxLength: maxLength}
}

// Screen checks every field in name order and returns the first violation.
func (s *Screener) Screen(fields map[string]string) error {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if rule, ok := s.match(fields[name]); ok {
			return &SuspiciousInputError{Field: name, Rule: rule}
		}
	}
	return nil
}

func (s *Screener) match(value string) (string, bool) {
	if s.maxLength > 0 && len(value) > s.maxLength {
		return "max_length", true
	}
	for _, pattern := range s.patterns {
		if pattern.Pattern.MatchString(value) {
			return pattern.Name, true
		}
	}
	return "", false
}
