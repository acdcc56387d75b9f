package reconcile

import "github.com/wsekete/vpars3/internal/pdf/access"

// FieldType categorizes a form field for downstream grouping and reporting.
type FieldType string

const (
	FieldTypeText                FieldType = "Text"
	FieldTypeCheckbox            FieldType = "Checkbox"
	FieldTypeRadioButton         FieldType = "RadioButton"
	FieldTypeRadioGroupContainer FieldType = "RadioGroupContainer"
	FieldTypeDropdown            FieldType = "Dropdown"
	FieldTypeSignature           FieldType = "Signature"
	FieldTypeDate                FieldType = "Date"
	FieldTypeUnknown             FieldType = "Unknown"
)

// FieldRecord is the reconciled view of one detected field. Detection
// creates records; reconciliation fills in type, grouping and accessibility.
type FieldRecord struct {
	Name           string    `json:"name"`
	Sources        []string  `json:"sources"`
	Type           FieldType `json:"type"`
	NormalizedName string    `json:"normalized_name"`
	Prefix         string    `json:"prefix,omitempty"`
	Accessible     bool      `json:"accessible"`
	GroupID        string    `json:"group_id,omitempty"`

	Page  int          `json:"page,omitempty"`
	Rect  *access.Rect `json:"rect,omitempty"`
	Label string       `json:"label,omitempty"`
}

// RadioGroup is an inferred set of mutually exclusive option fields.
type RadioGroup struct {
	GroupName        string   `json:"group_name"`
	Members          []string `json:"members"`
	InferenceSources []string `json:"inference_sources"`
}

// Inference source tags carried on emitted groups.
const (
	SourceExplicitContainer = "explicit-container"
	SourceNamingPattern     = "naming-pattern"
	SourceVisualProximity   = "visual-proximity"
	SourceLabelSemantics    = "label-semantics"
)
