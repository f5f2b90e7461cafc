package register

import "github.com/jackzampolin/samp/internal/acm"

// ExtractionSchema is the JSON schema for ACM register extraction output.
// The envelope is a list of records so that "no ACM data in this chunk" is
// representable as an empty list rather than an error.
var ExtractionSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"records": map[string]any{
			"type":        "array",
			"description": "All ACM register entries found in the chunk, in top-to-bottom order. Empty if the chunk contains no ACM data.",
			"items":       recordSchema,
		},
		"extraction_notes": map[string]any{
			"type":        []string{"string", "null"},
			"description": "Optional notes about ambiguities encountered during extraction",
		},
	},
	"required":             []string{"records"},
	"additionalProperties": false,
}

var recordSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"building_id": map[string]any{
			"type":        "string",
			"description": "Building identifier (e.g., 'A1', 'B009'). REQUIRED - use the carried-over context if the chunk does not restate it.",
		},
		"building_name": map[string]any{
			"type":        []string{"string", "null"},
			"description": "Building name (e.g., 'Main Building', 'Science Wing')",
		},
		"building_year": map[string]any{
			"type":        []string{"integer", "null"},
			"description": "Year the building was constructed",
		},
		"building_construction": map[string]any{
			"type":        []string{"string", "null"},
			"description": "Construction type (e.g., 'Brick', 'Demountable')",
		},
		"room_id": map[string]any{
			"type":        []string{"string", "null"},
			"description": "Room identifier within the building (e.g., 'A1-R1', 'R0005')",
		},
		"room_name": map[string]any{
			"type":        []string{"string", "null"},
			"description": "Room name (e.g., 'Classroom', 'General Storeroom')",
		},
		"room_area": map[string]any{
			"type":        []string{"number", "null"},
			"description": "Room area in square meters",
		},
		"area_type": map[string]any{
			"type":        []string{"string", "null"},
			"description": "'Interior', 'Exterior', or 'Grounds'",
		},
		"product": map[string]any{
			"type":        "string",
			"description": "Type of product containing asbestos (e.g., 'Ceiling Tiles', 'Pipe Insulation'). REQUIRED.",
		},
		"material_description": map[string]any{
			"type":        "string",
			"description": "Detailed description of the material (e.g., 'Vinyl floor tiles, grey/white mottled pattern'). REQUIRED.",
		},
		"extent": map[string]any{
			"type":        []string{"string", "null"},
			"description": "Extent/coverage of the material (e.g., 'Whole ceiling', 'Partial wall')",
		},
		"location": map[string]any{
			"type":        []string{"string", "null"},
			"description": "Specific location within the room (e.g., 'Ceiling', 'Under stairs')",
		},
		"friable": map[string]any{
			"type":        []string{"string", "null"},
			"description": "'Friable' or 'Non Friable'",
		},
		"material_condition": map[string]any{
			"type":        []string{"string", "null"},
			"description": "Condition: 'Good', 'Fair', 'Poor', 'Damaged'",
		},
		"risk_status": map[string]any{
			"type":        []string{"string", "null"},
			"description": "Risk level: 'Low', 'Medium', 'High'",
		},
		"result": map[string]any{
			"type":        "string",
			"description": "Asbestos test result: 'Detected', 'Not Detected', 'Presumed', or 'Unknown'. REQUIRED.",
		},
		"disturbance_potential": map[string]any{
			"type":        []string{"string", "null"},
			"description": "Likelihood of disturbance: 'Low', 'Medium', 'High'",
		},
		"sample_no": map[string]any{
			"type":        []string{"string", "null"},
			"description": "Sample identification number from lab testing",
		},
		"sample_result": map[string]any{
			"type":        []string{"string", "null"},
			"description": "Laboratory analysis result for the sample",
		},
		"identifying_company": map[string]any{
			"type":        []string{"string", "null"},
			"description": "Hygiene consulting company that performed the inspection",
		},
		"quantity": map[string]any{
			"type":        []string{"string", "null"},
			"description": "Amount of material (e.g., '10 m²', '5 linear meters')",
		},
		"acm_labelled": map[string]any{
			"type":        []string{"boolean", "null"},
			"description": "Whether the ACM is labeled on-site",
		},
		"acm_label_details": map[string]any{
			"type":        []string{"string", "null"},
			"description": "Label details if labeled",
		},
		"hygienist_recommendations": map[string]any{
			"type":        []string{"string", "null"},
			"description": "Hygienist recommendations for this material",
		},
		"psb_supplied_acm_id": map[string]any{
			"type":        []string{"string", "null"},
			"description": "PSB-supplied identifier if applicable",
		},
		"removal_status": map[string]any{
			"type":        []string{"string", "null"},
			"description": "'N/A', 'Pending', 'Complete', or 'Encapsulated'",
		},
		"date_of_removal": map[string]any{
			"type":        []string{"string", "null"},
			"description": "Date of removal if applicable",
		},
		"extraction_confidence": map[string]any{
			"type":        "string",
			"enum":        []string{"high", "medium", "low"},
			"description": "Self-reported confidence: 'high' when every field is read directly from unambiguous source text, 'medium' when some field was defaulted or inferred from nearby text, 'low' when any field was inferred purely from carried-over context.",
		},
		"data_issues": map[string]any{
			"type":        "array",
			"items":       map[string]any{"type": "string"},
			"description": "Human-readable data quality issues noticed during extraction",
		},
		"page_number": map[string]any{
			"type":        []string{"integer", "null"},
			"description": "Page number where this record was found",
		},
	},
	"required":             []string{"building_id", "product", "material_description", "result", "extraction_confidence"},
	"additionalProperties": false,
}

// Item is a single ACM record as extracted by the model.
type Item struct {
	BuildingID           string  `json:"building_id"`
	BuildingName         *string `json:"building_name,omitempty"`
	BuildingYear         *int    `json:"building_year,omitempty"`
	BuildingConstruction *string `json:"building_construction,omitempty"`

	RoomID   *string  `json:"room_id,omitempty"`
	RoomName *string  `json:"room_name,omitempty"`
	RoomArea *float64 `json:"room_area,omitempty"`
	AreaType *string  `json:"area_type,omitempty"`

	Product             string  `json:"product"`
	MaterialDescription string  `json:"material_description"`
	Extent              *string `json:"extent,omitempty"`
	Location            *string `json:"location,omitempty"`
	Friable             *string `json:"friable,omitempty"`
	MaterialCondition   *string `json:"material_condition,omitempty"`
	RiskStatus          *string `json:"risk_status,omitempty"`
	Result              string  `json:"result"`

	DisturbancePotential     *string `json:"disturbance_potential,omitempty"`
	SampleNo                 *string `json:"sample_no,omitempty"`
	SampleResult             *string `json:"sample_result,omitempty"`
	IdentifyingCompany       *string `json:"identifying_company,omitempty"`
	Quantity                 *string `json:"quantity,omitempty"`
	ACMLabelled              *bool   `json:"acm_labelled,omitempty"`
	ACMLabelDetails          *string `json:"acm_label_details,omitempty"`
	HygienistRecommendations *string `json:"hygienist_recommendations,omitempty"`
	PSBSuppliedACMID         *string `json:"psb_supplied_acm_id,omitempty"`
	RemovalStatus            *string `json:"removal_status,omitempty"`
	DateOfRemoval            *string `json:"date_of_removal,omitempty"`

	ExtractionConfidence acm.Confidence `json:"extraction_confidence"`
	DataIssues           []string       `json:"data_issues,omitempty"`
	PageNumber           *int           `json:"page_number,omitempty"`
}

// Result is the parsed structured-output envelope for one chunk.
type Result struct {
	Records         []Item  `json:"records"`
	ExtractionNotes *string `json:"extraction_notes,omitempty"`
}
