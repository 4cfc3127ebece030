package plan

import (
	"time"
)

// DefaultTitle is used when the caller does not name the plan.
const DefaultTitle = "Case Plan"

// Selection is one domain's choice in a plan request: whether the domain is
// part of the plan and which risk level applies.
type Selection struct {
	Included  bool      `json:"included"`
	RiskLevel RiskLevel `json:"risk_level"`
}

// Options controls how Assemble interprets the selection map.
type Options struct {
	// RequireInclusion demands an explicit Included flag per domain. When
	// false, any selection carrying a non-empty risk level counts as
	// included — the behavior of the template-only (stateless) variant,
	// which has no include toggles on its form.
	RequireInclusion bool
}

// ValidationError reports missing or inconsistent caller input. The message
// is safe to surface to the caller as-is.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Assemble builds a plan document from the template document and the caller's
// per-domain selections.
//
// Domains are visited in template document order; the selection map's own
// ordering never matters. A domain contributes an entry only when it is
// included, a risk level was chosen, and the domain has a template for
// exactly that level. A selection naming a level the domain has no template
// for is skipped silently: it means "no plan for this domain", not an error.
//
// Assemble is a pure function of its inputs. The only failure is a missing
// client name.
func Assemble(doc *TemplateDocument, selections map[string]Selection, clientName, planTitle string, opts Options) (*Document, error) {
	if clientName == "" {
		return nil, &ValidationError{Message: "client name required"}
	}
	if planTitle == "" {
		planTitle = DefaultTitle
	}

	out := &Document{
		Domains:     []DomainPlan{},
		ClientName:  clientName,
		PlanTitle:   planTitle,
		CreatedDate: time.Now().Format("2006-01-02"),
	}

	for _, domain := range doc.Domains {
		sel, ok := selections[domain.ID]
		if !ok {
			continue
		}
		if opts.RequireInclusion && !sel.Included {
			continue
		}
		if sel.RiskLevel == "" {
			continue
		}

		tmpl, ok := findTemplate(domain, sel.RiskLevel)
		if !ok {
			continue
		}

		out.Domains = append(out.Domains, DomainPlan{
			ID:         domain.ID,
			Name:       domain.Name,
			RiskLevel:  sel.RiskLevel,
			Goals:      tmpl.Goals,
			Objectives: tmpl.Objectives,
			Tasks:      tmpl.Tasks,
		})
	}

	return out, nil
}

// findTemplate returns the first template matching the risk level. At most
// one should exist per level, but first-match keeps the behavior defined for
// malformed documents.
func findTemplate(domain Domain, level RiskLevel) (RiskTemplate, bool) {
	for _, tmpl := range domain.Templates {
		if tmpl.RiskLevel == level {
			return tmpl, true
		}
	}
	return RiskTemplate{}, false
}
