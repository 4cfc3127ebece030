// Package plan holds the case plan domain logic: the static template
// document, the per-domain risk level selections, and the assembly of the two
// into a plan document.
//
// The package is deliberately free of HTTP and storage concerns. Handlers in
// [github.com/caseplanhq/caseplan/pkg/caseplan] translate requests into
// [Selection] maps, and the store packages persist the assembled [Document]
// verbatim.
package plan

import (
	"encoding/json"
	"log"
	"os"
)

// RiskLevel is the assessed risk for one domain. Exactly one template per
// (domain, risk level) pair exists in a well-formed template document.
type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// RiskTemplate is the static goals/objectives/tasks text for one domain at
// one risk level. Reference data; never mutated at runtime.
type RiskTemplate struct {
	RiskLevel  RiskLevel `json:"risk_level"`
	Goals      []string  `json:"goals"`
	Objectives []string  `json:"objectives"`
	Tasks      []string  `json:"tasks"`
}

// Domain is a risk category (e.g. "criminal_history") with one template per
// risk level.
type Domain struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Templates []RiskTemplate `json:"templates"`
}

// TemplateDocument is the root of the static template file.
type TemplateDocument struct {
	Domains []Domain `json:"domains"`
}

// Templates loads the template document from a JSON file on disk.
type Templates struct {
	path string
}

// NewTemplates creates a template store reading from the given file path.
func NewTemplates(path string) *Templates {
	return &Templates{path: path}
}

// Path returns the configured template file path.
func (t *Templates) Path() string {
	return t.path
}

// Load reads and parses the template document.
//
// Load never fails: an unreadable or corrupt file is logged and degraded to
// an empty document, and callers treat "no domains" as normal input. The file
// is re-read on every call rather than cached, so edits to the document are
// picked up without a restart.
func (t *Templates) Load() *TemplateDocument {
	data, err := os.ReadFile(t.path)
	if err != nil {
		log.Printf("Error loading case plan templates from %s: %v", t.path, err)
		return &TemplateDocument{}
	}

	var doc TemplateDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		log.Printf("Error parsing case plan templates from %s: %v", t.path, err)
		return &TemplateDocument{}
	}
	return &doc
}
