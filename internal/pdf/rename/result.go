package rename

import (
	"sort"
	"time"
)

// FieldMapping is one old name to new name entry.
type FieldMapping struct {
	Old string `json:"old"`
	New string `json:"new"`
}

// Mapping is an ordered rename mapping. Entries apply in slice order.
type Mapping []FieldMapping

// MappingFromMap builds a deterministic mapping from an unordered map by
// sorting entries on the old name.
func MappingFromMap(entries map[string]string) Mapping {
	olds := make([]string, 0, len(entries))
	for old := range entries {
		olds = append(olds, old)
	}
	sort.Strings(olds)

	mapping := make(Mapping, 0, len(entries))
	for _, old := range olds {
		mapping = append(mapping, FieldMapping{Old: old, New: entries[old]})
	}
	return mapping
}

// Modification describes one applied rename.
type Modification struct {
	Old                    string `json:"old"`
	New                    string `json:"new"`
	Type                   string `json:"type"`
	Page                   int    `json:"page"`
	PreservedPropertyCount int    `json:"preserved_property_count"`
}

// Result is the outcome of one rename batch. Success means the error list is
// empty; a populated modification list alongside errors signals partial
// application.
type Result struct {
	OriginalRef      string         `json:"original_ref"`
	ModifiedRef      string         `json:"modified_ref"`
	Modifications    []Modification `json:"modifications"`
	Success          bool           `json:"success"`
	Errors           []string       `json:"errors"`
	Warnings         []string       `json:"warnings"`
	Timestamp        time.Time      `json:"timestamp"`
	FieldCountBefore int            `json:"field_count_before"`
	FieldCountAfter  int            `json:"field_count_after"`
}

// Stage labels a batch's progress through the rename state machine.
type Stage string

const (
	StageValidating Stage = "validating"
	StageMutating   Stage = "mutating"
	StageCommitting Stage = "committing"
	StageVerifying  Stage = "verifying"
	StageDone       Stage = "done"
	StageAborted    Stage = "aborted"
	StageFatal      Stage = "fatal"
)
