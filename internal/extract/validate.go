package extract

import (
	"strings"

	"github.com/jackzampolin/samp/internal/acm"
	"github.com/jackzampolin/samp/internal/prompts/register"
)

// ConfidencePolicy decides the final confidence of a record given what the
// model reported and the issues validation appended. The default caps any
// record with issues at low.
type ConfidencePolicy func(reported acm.Confidence, issues []string) acm.Confidence

// DefaultConfidencePolicy normalizes invalid values to medium and downgrades
// to low whenever validation flagged any issue.
func DefaultConfidencePolicy(reported acm.Confidence, issues []string) acm.Confidence {
	c := reported
	if !c.Valid() {
		c = acm.ConfidenceMedium
	}
	if len(issues) > 0 {
		return acm.ConfidenceLow
	}
	return c
}

// Validator applies guardrails to raw model output before anything is
// persisted. Records missing required fields after context inference are
// rejected, never silently repaired.
type Validator struct {
	Policy ConfidencePolicy
}

func NewValidator() *Validator {
	return &Validator{Policy: DefaultConfidencePolicy}
}

// Validate checks required fields, infers building identity from the
// tracker when the model omitted it, normalizes the result field, and
// rewrites confidence through the policy. Returns the surviving records and
// the rejected count.
func (v *Validator) Validate(items []register.Item, trk *Tracker) ([]register.Item, int) {
	policy := v.Policy
	if policy == nil {
		policy = DefaultConfidencePolicy
	}

	var valid []register.Item
	rejected := 0

	for _, item := range items {
		issues := append([]string(nil), item.DataIssues...)

		if item.BuildingID == "" && trk != nil && trk.BuildingID != "" {
			item.BuildingID = trk.BuildingID
			issues = append(issues, "Building ID inferred from context")
		}

		if item.BuildingID == "" {
			issues = append(issues, "Missing required field: building_id")
		}
		if item.Product == "" {
			issues = append(issues, "Missing required field: product")
		}
		if item.MaterialDescription == "" {
			issues = append(issues, "Missing required field: material_description")
		}

		if item.Result == "" {
			item.Result = acm.ResultUnknown
			issues = append(issues, "Result field was empty, set to Unknown")
		} else {
			item.Result = NormalizeResult(item.Result)
		}

		if !item.ExtractionConfidence.Valid() {
			issues = append(issues, "Invalid confidence value normalized to medium")
		}
		item.ExtractionConfidence = policy(item.ExtractionConfidence, issues)
		item.DataIssues = issues

		if item.BuildingID == "" || item.Product == "" || item.MaterialDescription == "" {
			rejected++
			continue
		}
		valid = append(valid, item)
	}

	return valid, rejected
}

// NormalizeResult maps free-text result phrasing onto the canonical values.
// Order matters: "not detected" contains "detected".
func NormalizeResult(result string) string {
	lower := strings.ToLower(result)
	switch {
	case strings.Contains(lower, "no asbestos"),
		strings.Contains(lower, "nad"),
		strings.Contains(lower, "not detected"):
		return acm.ResultNotDetected
	case strings.Contains(lower, "detected"),
		strings.Contains(lower, "positive"):
		return acm.ResultDetected
	case strings.Contains(lower, "presumed"),
		strings.Contains(lower, "assumed"):
		return acm.ResultPresumed
	default:
		return result
	}
}
