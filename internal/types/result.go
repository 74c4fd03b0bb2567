package types

import (
	"strings"
	"unicode/utf8"
)

// Status is the outcome of one extraction attempt.
type Status string

const (
	StatusSuccess Status = "success"
	StatusTimeout Status = "timeout"

	errorPrefix = "error:"
)

// ErrorStatus builds an "error:<reason>" status.
func ErrorStatus(reason string) Status {
	return Status(errorPrefix + reason)
}

// IsSuccess returns true for a successful extraction.
func (s Status) IsSuccess() bool { return s == StatusSuccess }

// IsTimeout returns true when the page did not answer before the deadline.
func (s Status) IsTimeout() bool { return s == StatusTimeout }

// IsError returns true for any "error:" status.
func (s Status) IsError() bool { return strings.HasPrefix(string(s), errorPrefix) }

// Reason returns the text after "error:", or "" for non-error statuses.
func (s Status) Reason() string {
	if !s.IsError() {
		return ""
	}
	return strings.TrimPrefix(string(s), errorPrefix)
}

// Kind collapses the status to success, timeout or error.
func (s Status) Kind() string {
	switch {
	case s.IsSuccess():
		return "success"
	case s.IsTimeout():
		return "timeout"
	default:
		return "error"
	}
}

// FetchTarget is one URL scheduled for extraction, tagged with its position
// in the caller's input.
type FetchTarget struct {
	Index int    `json:"index"`
	URL   string `json:"url"`
}

// ExtractionResult is the readable content pulled from one page.
type ExtractionResult struct {
	Abstract        string `json:"abstract"`
	FullText        string `json:"full_text"`
	MetaDescription string `json:"meta_description"`
	Status          Status `json:"extraction_status"`
}

// FailedResult returns a result with empty content and the given status.
func FailedResult(status Status) ExtractionResult {
	return ExtractionResult{Status: status}
}

// Extraction pairs a target with its result.
type Extraction struct {
	Target FetchTarget      `json:"target"`
	Result ExtractionResult `json:"result"`
}

// Truncate cuts s to at most n characters (runes). n <= 0 means no limit.
func Truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
