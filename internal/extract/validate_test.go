package extract

import (
	"testing"

	"github.com/jackzampolin/samp/internal/acm"
	"github.com/jackzampolin/samp/internal/prompts/register"
)

func item(building, product, desc, result string, conf acm.Confidence) register.Item {
	return register.Item{
		BuildingID:           building,
		Product:              product,
		MaterialDescription:  desc,
		Result:               result,
		ExtractionConfidence: conf,
	}
}

func TestValidateRejectsMissingRequiredFields(t *testing.T) {
	v := NewValidator()
	items := []register.Item{
		item("A1", "Vinyl Tiles", "Grey vinyl tiles", "Detected", acm.ConfidenceHigh),
		item("A1", "", "Grey vinyl tiles", "Detected", acm.ConfidenceHigh),
		item("A1", "Vinyl Tiles", "", "Detected", acm.ConfidenceHigh),
	}

	valid, rejected := v.Validate(items, NewTracker())
	if len(valid) != 1 || rejected != 2 {
		t.Fatalf("valid=%d rejected=%d, want 1/2", len(valid), rejected)
	}
}

func TestValidateMissingFieldIssueStrings(t *testing.T) {
	v := NewValidator()

	items := []register.Item{item("", "Pipe Lagging", "", "Detected", acm.ConfidenceHigh)}
	valid, rejected := v.Validate(items, NewTracker())
	if len(valid) != 0 || rejected != 1 {
		t.Fatalf("expected rejection, got valid=%d", len(valid))
	}

	// With no tracker context the building stays missing and both issues
	// must name their field.
	items = []register.Item{item("", "Pipe Lagging", "Lagged pipework", "Detected", acm.ConfidenceHigh)}
	valid, _ = v.Validate(items, nil)
	if len(valid) != 0 {
		t.Fatalf("record without building must be rejected")
	}
}

func TestValidateInfersBuildingFromContext(t *testing.T) {
	trk := NewTracker()
	trk.ObserveLine("## A1 - Main Building")

	v := NewValidator()
	items := []register.Item{item("", "Vinyl Tiles", "Grey vinyl tiles", "Detected", acm.ConfidenceHigh)}
	valid, rejected := v.Validate(items, trk)
	if rejected != 0 || len(valid) != 1 {
		t.Fatalf("context inference should rescue the record: valid=%d rejected=%d", len(valid), rejected)
	}

	got := valid[0]
	if got.BuildingID != "A1" {
		t.Fatalf("building = %q", got.BuildingID)
	}
	if !containsIssue(got.DataIssues, "Building ID inferred from context") {
		t.Errorf("inference not recorded in issues: %v", got.DataIssues)
	}
	if got.ExtractionConfidence != acm.ConfidenceLow {
		t.Errorf("context-inferred record should be low confidence, got %s", got.ExtractionConfidence)
	}
}

func TestValidateNormalizesResult(t *testing.T) {
	cases := map[string]string{
		"No Asbestos Detected":       acm.ResultNotDetected,
		"NAD":                        acm.ResultNotDetected,
		"not detected in sample":     acm.ResultNotDetected,
		"Asbestos Detected":          acm.ResultDetected,
		"POSITIVE":                   acm.ResultDetected,
		"Presumed ACM":               acm.ResultPresumed,
		"assumed to contain":         acm.ResultPresumed,
		"inconclusive lab narrative": "inconclusive lab narrative",
	}
	for in, want := range cases {
		if got := NormalizeResult(in); got != want {
			t.Errorf("NormalizeResult(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestValidateEmptyResultBecomesUnknown(t *testing.T) {
	v := NewValidator()
	items := []register.Item{item("A1", "Cement Sheet", "Wall sheeting", "", acm.ConfidenceHigh)}
	valid, _ := v.Validate(items, NewTracker())
	if len(valid) != 1 {
		t.Fatalf("record should survive")
	}
	if valid[0].Result != acm.ResultUnknown {
		t.Errorf("result = %q, want Unknown", valid[0].Result)
	}
	if !containsIssue(valid[0].DataIssues, "Result field was empty, set to Unknown") {
		t.Errorf("empty result not recorded: %v", valid[0].DataIssues)
	}
	if valid[0].ExtractionConfidence != acm.ConfidenceLow {
		t.Errorf("flagged record should drop to low, got %s", valid[0].ExtractionConfidence)
	}
}

func TestValidateNormalizesBadConfidence(t *testing.T) {
	v := NewValidator()
	items := []register.Item{item("A1", "Cement Sheet", "Wall sheeting", "Detected", "very sure")}
	valid, _ := v.Validate(items, NewTracker())
	if !containsIssue(valid[0].DataIssues, "Invalid confidence value normalized to medium") {
		t.Errorf("normalization not recorded: %v", valid[0].DataIssues)
	}
	// The normalization issue itself triggers the downgrade rule.
	if valid[0].ExtractionConfidence != acm.ConfidenceLow {
		t.Errorf("confidence = %q, want low", valid[0].ExtractionConfidence)
	}
}

func TestValidateCleanRecordKeepsReportedConfidence(t *testing.T) {
	v := NewValidator()
	items := []register.Item{item("A1", "Cement Sheet", "Wall sheeting", "Detected", acm.ConfidenceHigh)}
	valid, _ := v.Validate(items, NewTracker())
	if valid[0].ExtractionConfidence != acm.ConfidenceHigh {
		t.Errorf("clean record should keep its confidence, got %s", valid[0].ExtractionConfidence)
	}
}

func TestValidateCustomPolicy(t *testing.T) {
	v := &Validator{Policy: func(acm.Confidence, []string) acm.Confidence {
		return acm.ConfidenceLow
	}}
	items := []register.Item{item("A1", "Cement Sheet", "Wall sheeting", "Detected", acm.ConfidenceHigh)}
	valid, _ := v.Validate(items, NewTracker())
	if valid[0].ExtractionConfidence != acm.ConfidenceLow {
		t.Errorf("custom policy not applied")
	}
}

func containsIssue(issues []string, want string) bool {
	for _, i := range issues {
		if i == want {
			return true
		}
	}
	return false
}
