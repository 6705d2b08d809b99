package service

import (
	"regexp"
	"strings"
)

// BillNumberValidator accepts legislative bill identifiers like "HF 1"
type BillNumberValidator struct {
	format *regexp.Regexp
}

// NewBillNumberValidator creates a validator for the given pattern
func NewBillNumberValidator(format *regexp.Regexp) *BillNumberValidator {
	return &BillNumberValidator{format: format}
}

// Valid reports whether s is a bill number
func (v *BillNumberValidator) Valid(s string) bool {
	if s == "" || v.format == nil {
		return false
	}
	return v.format.MatchString(s)
}

// CompanionDetector pulls a companion bill number out of free text, using
// either a pattern's first capture group or a custom function. Candidates
// must pass the validator.
type CompanionDetector struct {
	pattern   *regexp.Regexp
	fn        func(string) string
	validator *BillNumberValidator
}

// NewCompanionDetector creates a detector. fn wins over pattern when set.
func NewCompanionDetector(pattern *regexp.Regexp, fn func(string) string, validator *BillNumberValidator) *CompanionDetector {
	return &CompanionDetector{pattern: pattern, fn: fn, validator: validator}
}

// Detect returns the companion bill number found in text
func (d *CompanionDetector) Detect(text string) (string, bool) {
	var candidate string
	switch {
	case d.fn != nil:
		candidate = d.fn(text)
	case d.pattern != nil:
		m := d.pattern.FindStringSubmatch(text)
		if len(m) > 1 {
			candidate = m[1]
		}
	}

	candidate = strings.TrimSpace(candidate)
	if !d.validator.Valid(candidate) {
		return "", false
	}
	return candidate, true
}
