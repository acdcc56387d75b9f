package reconcile

import (
	"strings"

	"github.com/wsekete/vpars3/internal/pdf/detect"
)

// defaultPrefixes is the priority-ordered namespace prefix table. The first
// matching prefix wins; table order is part of the contract because
// accessibility checks compare both raw and normalized names.
var defaultPrefixes = []string{
	"OWNER.",
	"PREMIUM_PAYOR.",
	"POLICY_OWNER.",
	"PRIMARY_INSURED.",
	"INSURED.",
	"JOINT_OWNER.",
}

// Reconciler turns raw detection output into classified, grouped and
// accessibility-flagged field records. It never fails on a malformed name;
// the worst case is a Text default excluded from grouping.
type Reconciler struct {
	prefixes     []string
	rowTolerance float64
}

// NewReconciler builds a reconciler with the default prefix table.
func NewReconciler() *Reconciler {
	return &Reconciler{
		prefixes:     defaultPrefixes,
		rowTolerance: 50,
	}
}

// BuildRecords turns a detection result into field records with
// normalization, classification and accessibility applied. Group inference
// runs separately so callers can attach geometry and labels first.
func (r *Reconciler) BuildRecords(result *detect.DetectionResult, primaryID string) []*FieldRecord {
	records := make([]*FieldRecord, 0, len(result.Fields))
	for _, name := range result.Fields {
		normalized, prefix := r.Normalize(name)
		records = append(records, &FieldRecord{
			Name:           name,
			Sources:        result.Sources[name],
			Type:           ClassifyType(name),
			NormalizedName: normalized,
			Prefix:         prefix,
		})
	}
	ComputeAccessibility(records, result.PrimaryFields(primaryID))
	return records
}

// Reconcile is the one-shot path: build records and infer groups in a
// single call.
func (r *Reconciler) Reconcile(result *detect.DetectionResult, primaryID string) ([]*FieldRecord, []*RadioGroup) {
	records := r.BuildRecords(result, primaryID)
	groups := r.InferRadioGroups(records)
	return records, groups
}

// Normalize strips the first matching namespace prefix in table order and
// returns the remainder plus the prefix that was removed. Names without a
// known prefix pass through unchanged.
func (r *Reconciler) Normalize(name string) (normalized, prefix string) {
	for _, candidate := range r.prefixes {
		if strings.HasPrefix(name, candidate) {
			return strings.TrimPrefix(name, candidate), candidate
		}
	}
	return name, ""
}

// ClassifyType assigns a field type from the name alone. The predicate chain
// is ordered and first match wins, so classification is deterministic.
func ClassifyType(name string) FieldType {
	lower := strings.ToLower(name)

	if strings.HasSuffix(lower, "--group") {
		return FieldTypeRadioGroupContainer
	}
	if strings.Contains(lower, "_same") || strings.Contains(lower, "check") {
		return FieldTypeCheckbox
	}
	if strings.Contains(lower, "signature") && !strings.Contains(lower, "date") && !strings.Contains(lower, "name") {
		return FieldTypeSignature
	}
	if strings.Contains(lower, "date") {
		return FieldTypeDate
	}
	if strings.Contains(lower, "dividend") || strings.Contains(lower, "payment") ||
		strings.Contains(lower, "billing") || strings.Contains(lower, "option") {
		return FieldTypeDropdown
	}
	return FieldTypeText
}

// ComputeAccessibility flags each record whose raw or normalized name appears
// in the primary strategy's output. This flag is the sole gate on mutation.
func ComputeAccessibility(records []*FieldRecord, primaryNames []string) {
	primary := make(map[string]bool, len(primaryNames))
	for _, name := range primaryNames {
		primary[name] = true
	}
	for _, record := range records {
		record.Accessible = primary[record.Name] || primary[record.NormalizedName]
	}
}
