package reconcile

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// namingPatterns are tried in order against ungrouped option fields. The
// first capture is the group base name.
var namingPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(.+?)_(\d+)$`),
	regexp.MustCompile(`^(.+?)_?(option|choice|item)_?(\d+)$`),
	regexp.MustCompile(`^(.+?)_([a-zA-Z]+)$`),
	regexp.MustCompile(`^([a-zA-Z_]+?)(\d+)$`),
}

// labelCategories maps domain categories to keyword lists. A field joins a
// category when any keyword substring-matches its name or label.
var labelCategories = map[string][]string{
	"gender":         {"gender", "male", "female", "sex"},
	"payment_method": {"payment", "method", "ach", "card", "eft"},
	"frequency":      {"frequency", "monthly", "quarterly", "annual", "semi"},
	"yes_no":         {"yes", "no"},
	"dividend":       {"dividend"},
	"withdrawal":     {"withdrawal"},
	"marital_status": {"marital", "married", "single", "divorced"},
	"employment":     {"employment", "employer", "employed", "occupation"},
}

// categoryOrder fixes iteration order over labelCategories.
var categoryOrder = []string{
	"gender", "payment_method", "frequency", "yes_no",
	"dividend", "withdrawal", "marital_status", "employment",
}

// InferRadioGroups runs the four grouping signals in strict priority order:
// explicit container, naming pattern, visual proximity, label semantics. A
// field claimed by a higher-priority signal is never reassigned. Groups with
// fewer than two members are discarded.
func (r *Reconciler) InferRadioGroups(records []*FieldRecord) []*RadioGroup {
	claimed := make(map[string]string)
	var groups []*RadioGroup

	groups = append(groups, inferFromContainers(records, claimed)...)
	groups = append(groups, inferFromNamingPatterns(records, claimed)...)
	groups = append(groups, r.inferFromPositions(records, claimed)...)
	groups = append(groups, inferFromLabels(records, claimed)...)

	for _, group := range groups {
		for _, member := range group.Members {
			for _, record := range records {
				if record.Name == member {
					record.GroupID = group.GroupName
				}
			}
		}
	}
	return groups
}

// isOptionLike reports whether a record can belong to an inferred group.
// Plain text, date and signature fields never group.
func isOptionLike(record *FieldRecord) bool {
	switch record.Type {
	case FieldTypeCheckbox, FieldTypeDropdown, FieldTypeRadioButton, FieldTypeUnknown:
		return true
	}
	return false
}

func inferFromContainers(records []*FieldRecord, claimed map[string]string) []*RadioGroup {
	var groups []*RadioGroup
	for _, container := range records {
		if container.Type != FieldTypeRadioGroupContainer {
			continue
		}
		base := strings.TrimSuffix(container.Name, "--group")
		var members []string
		for _, record := range records {
			if record.Type == FieldTypeRadioGroupContainer {
				continue
			}
			if claimed[record.Name] != "" {
				continue
			}
			if strings.Contains(record.Name, base) {
				members = append(members, record.Name)
			}
		}
		if len(members) < 2 {
			continue
		}
		for _, member := range members {
			claimed[member] = container.Name
		}
		groups = append(groups, &RadioGroup{
			GroupName:        container.Name,
			Members:          members,
			InferenceSources: []string{SourceExplicitContainer},
		})
	}
	return groups
}

func inferFromNamingPatterns(records []*FieldRecord, claimed map[string]string) []*RadioGroup {
	var groups []*RadioGroup
	for _, pattern := range namingPatterns {
		byBase := make(map[string][]string)
		var baseOrder []string
		for _, record := range records {
			if !isOptionLike(record) || claimed[record.Name] != "" {
				continue
			}
			match := pattern.FindStringSubmatch(record.Name)
			if match == nil {
				continue
			}
			base := match[1]
			if _, seen := byBase[base]; !seen {
				baseOrder = append(baseOrder, base)
			}
			byBase[base] = append(byBase[base], record.Name)
		}
		for _, base := range baseOrder {
			members := byBase[base]
			if len(members) < 2 {
				continue
			}
			for _, member := range members {
				claimed[member] = base
			}
			groups = append(groups, &RadioGroup{
				GroupName:        base,
				Members:          members,
				InferenceSources: []string{SourceNamingPattern},
			})
		}
	}
	return groups
}

// inferFromPositions clusters ungrouped option fields by page rows: sorted
// top to bottom, a run breaks whenever the vertical gap between consecutive
// fields exceeds the row tolerance.
func (r *Reconciler) inferFromPositions(records []*FieldRecord, claimed map[string]string) []*RadioGroup {
	var candidates []*FieldRecord
	for _, record := range records {
		if isOptionLike(record) && claimed[record.Name] == "" && record.Rect != nil {
			candidates = append(candidates, record)
		}
	}
	if len(candidates) < 2 {
		return nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Page != candidates[j].Page {
			return candidates[i].Page < candidates[j].Page
		}
		if candidates[i].Rect.LLY != candidates[j].Rect.LLY {
			return candidates[i].Rect.LLY > candidates[j].Rect.LLY
		}
		return candidates[i].Rect.LLX < candidates[j].Rect.LLX
	})

	var groups []*RadioGroup
	run := []*FieldRecord{candidates[0]}
	flush := func() {
		if len(run) < 2 {
			return
		}
		members := make([]string, len(run))
		for i, record := range run {
			members[i] = record.Name
		}
		name := fmt.Sprintf("position_group_%d", len(groups)+1)
		for _, member := range members {
			claimed[member] = name
		}
		groups = append(groups, &RadioGroup{
			GroupName:        name,
			Members:          members,
			InferenceSources: []string{SourceVisualProximity},
		})
	}
	for _, record := range candidates[1:] {
		prev := run[len(run)-1]
		samePage := record.Page == prev.Page
		gap := prev.Rect.LLY - record.Rect.LLY
		if samePage && gap <= r.rowTolerance {
			run = append(run, record)
			continue
		}
		flush()
		run = []*FieldRecord{record}
	}
	flush()
	return groups
}

func inferFromLabels(records []*FieldRecord, claimed map[string]string) []*RadioGroup {
	var groups []*RadioGroup
	for _, category := range categoryOrder {
		keywords := labelCategories[category]
		var members []string
		for _, record := range records {
			if !isOptionLike(record) || claimed[record.Name] != "" {
				continue
			}
			haystack := strings.ToLower(record.Name + " " + record.Label)
			for _, keyword := range keywords {
				if strings.Contains(haystack, keyword) {
					members = append(members, record.Name)
					break
				}
			}
		}
		if len(members) < 2 {
			continue
		}
		for _, member := range members {
			claimed[member] = category
		}
		groups = append(groups, &RadioGroup{
			GroupName:        category,
			Members:          members,
			InferenceSources: []string{SourceLabelSemantics},
		})
	}
	return groups
}
