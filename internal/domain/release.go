package domain

import (
	"encoding/json"
	"fmt"
)

// Requirement is one platform capability a release asks for, in the order the
// release server listed it.
type Requirement struct {
	Name      string
	Satisfied bool
}

// Release describes the version offered by the release server. It lives only
// for the duration of one update run.
type Release struct {
	Version           string     `json:"version"`
	MinimumPHPVersion string     `json:"minimum_php_version"`
	Extensions        StringList `json:"extensions,omitempty"`
	DeletedFiles      StringList `json:"deleted_files,omitempty"`

	// Requirements is nil when the server listed no extensions at all.
	Requirements []Requirement `json:"-"`
}

// RequirementsMet reports whether every listed requirement is satisfied.
func (r Release) RequirementsMet() bool {
	for _, req := range r.Requirements {
		if !req.Satisfied {
			return false
		}
	}
	return true
}

// ReleaseCheck is the body of GET downloads/check/latest/{version}.
type ReleaseCheck struct {
	Success bool     `json:"success"`
	Version *Release `json:"version,omitempty"`
}

// StringList accepts either a JSON array of strings or a string holding a
// JSON-encoded array, which is how the release server ships some fields.
type StringList []string

func (l *StringList) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*l = nil
		return nil
	}
	var direct []string
	if err := json.Unmarshal(b, &direct); err == nil {
		*l = direct
		return nil
	}
	var encoded string
	if err := json.Unmarshal(b, &encoded); err != nil {
		return fmt.Errorf("string list: %w", err)
	}
	if encoded == "" {
		*l = nil
		return nil
	}
	if err := json.Unmarshal([]byte(encoded), &direct); err != nil {
		return fmt.Errorf("string list: %w", err)
	}
	*l = direct
	return nil
}
