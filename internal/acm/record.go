// Package acm defines the domain model for Asbestos Containing Material
// register records extracted from SAMP (Site Asbestos Management Plan)
// documents. Records capture the hierarchy School > Building > Room > Item.
package acm

// Confidence is the self-reported extraction confidence for a record.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Rank orders confidence levels for deduplication tie-breaks (high > medium > low).
// Unknown values rank below low.
func (c Confidence) Rank() int {
	switch c {
	case ConfidenceHigh:
		return 3
	case ConfidenceMedium:
		return 2
	case ConfidenceLow:
		return 1
	default:
		return 0
	}
}

// Valid reports whether c is one of the three known confidence levels.
func (c Confidence) Valid() bool {
	return c == ConfidenceHigh || c == ConfidenceMedium || c == ConfidenceLow
}

// Canonical values for Record.Result.
const (
	ResultDetected    = "Detected"
	ResultNotDetected = "Not Detected"
	ResultPresumed    = "Presumed"
	ResultUnknown     = "Unknown"
)

// ExtractionStatus classifies a validated record.
type ExtractionStatus string

const (
	StatusValid     ExtractionStatus = "valid"
	StatusInvalid   ExtractionStatus = "invalid"
	StatusNoACMData ExtractionStatus = "no_acm_data"
)

// Record is a single ACM register entry persisted to the store.
// Required fields are SourceID, SchoolName, BuildingID, Product,
// MaterialDescription, and Result; everything else is best-effort.
type Record struct {
	ID       string `json:"id,omitempty"`
	SourceID string `json:"source_id"`

	// School identification
	SchoolName string `json:"school_name"`
	SchoolCode string `json:"school_code,omitempty"`

	// Building hierarchy
	BuildingID           string `json:"building_id"`
	BuildingName         string `json:"building_name,omitempty"`
	BuildingYear         int    `json:"building_year,omitempty"`
	BuildingConstruction string `json:"building_construction,omitempty"`

	// Room hierarchy
	RoomID   string  `json:"room_id,omitempty"`
	RoomName string  `json:"room_name,omitempty"`
	RoomArea float64 `json:"room_area,omitempty"`
	AreaType string  `json:"area_type,omitempty"` // "Interior", "Exterior", "Grounds"

	// ACM item data
	Product             string `json:"product"`
	MaterialDescription string `json:"material_description"`
	Extent              string `json:"extent,omitempty"`
	Location            string `json:"location,omitempty"`
	Friable             string `json:"friable,omitempty"` // "Friable", "Non Friable"
	MaterialCondition   string `json:"material_condition,omitempty"`
	RiskStatus          string `json:"risk_status,omitempty"` // "Low", "Medium", "High"
	Result              string `json:"result"`                // "Detected", "Not Detected", "Presumed", "Unknown"

	// Citation support
	PageNumber int `json:"page_number,omitempty"`

	// Extended survey fields
	DisturbancePotential     string `json:"disturbance_potential,omitempty"`
	SampleNo                 string `json:"sample_no,omitempty"`
	SampleResult             string `json:"sample_result,omitempty"`
	IdentifyingCompany       string `json:"identifying_company,omitempty"`
	Quantity                 string `json:"quantity,omitempty"`
	ACMLabelled              *bool  `json:"acm_labelled,omitempty"`
	ACMLabelDetails          string `json:"acm_label_details,omitempty"`
	HygienistRecommendations string `json:"hygienist_recommendations,omitempty"`
	PSBSuppliedACMID         string `json:"psb_supplied_acm_id,omitempty"`
	RemovalStatus            string `json:"removal_status,omitempty"` // "N/A", "Pending", "Complete", "Encapsulated"
	DateOfRemoval            string `json:"date_of_removal,omitempty"`

	// Extraction metadata
	ExtractionConfidence Confidence `json:"extraction_confidence,omitempty"`
	DataIssues           []string   `json:"data_issues,omitempty"`
}
