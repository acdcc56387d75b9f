package access

import (
	"fmt"
)

// FormAccess defines the unified interface for form field operations against
// one open PDF document. All mutation goes through this layer; nothing else
// in the pipeline touches the document.
type FormAccess interface {
	// FieldNames returns the fully-qualified names of all form fields in
	// document order.
	FieldNames() ([]string, error)

	// HasField reports whether a field with the given name currently resolves.
	HasField(name string) bool

	// ReadProperty reads a single property of the named field. The second
	// return value reports whether the property is present and readable for
	// this field; absent properties are not errors.
	ReadProperty(field string, key PropertyKey) (any, bool, error)

	// WriteProperty sets a single property on the named field. Properties the
	// implementation cannot set return ErrPropertyNotWritable.
	WriteProperty(field string, key PropertyKey, value any) error

	// RenameField changes a field's key from oldName to newName.
	RenameField(oldName, newName string) error

	// Commit flushes all pending mutations to the backing file in one bulk
	// write.
	Commit() error

	// Close releases the document.
	Close() error
}

// PropertyKey identifies one preservable field property. The set is a closed
// enumeration: properties are read through capability-checked accessors, not
// open-ended reflection.
type PropertyKey string

const (
	PropRect         PropertyKey = "rect"
	PropPage         PropertyKey = "page"
	PropRequired     PropertyKey = "required"
	PropReadOnly     PropertyKey = "readonly"
	PropMultiline    PropertyKey = "multiline"
	PropMaxLength    PropertyKey = "max_length"
	PropChoices      PropertyKey = "choices"
	PropValue        PropertyKey = "value"
	PropDefaultValue PropertyKey = "default_value"
	PropTooltip      PropertyKey = "tooltip"
	PropMappingName  PropertyKey = "mapping_name"
	PropAppearance   PropertyKey = "appearance"
	PropBorderWidth  PropertyKey = "border_width"
	PropFieldFlags   PropertyKey = "field_flags"
)

// PropertyKeys lists every key in snapshot order.
var PropertyKeys = []PropertyKey{
	PropRect,
	PropPage,
	PropRequired,
	PropReadOnly,
	PropMultiline,
	PropMaxLength,
	PropChoices,
	PropValue,
	PropDefaultValue,
	PropTooltip,
	PropMappingName,
	PropAppearance,
	PropBorderWidth,
	PropFieldFlags,
}

// PropertySnapshot captures the preservable properties of one field before
// its key is renamed.
type PropertySnapshot map[PropertyKey]any

// Rect is a field rectangle in PDF coordinate space.
type Rect struct {
	LLX float64 `json:"llx"`
	LLY float64 `json:"lly"`
	URX float64 `json:"urx"`
	URY float64 `json:"ury"`
}

// Width returns the rectangle width.
func (r Rect) Width() float64 { return r.URX - r.LLX }

// Height returns the rectangle height.
func (r Rect) Height() float64 { return r.URY - r.LLY }

// AccessError wraps a failure in one access-layer operation.
type AccessError struct {
	Op    string
	Field string
	Err   error
}

func (e *AccessError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("form access error in %s for field %q: %v", e.Op, e.Field, e.Err)
	}
	return fmt.Sprintf("form access error in %s: %v", e.Op, e.Err)
}

func (e *AccessError) Unwrap() error {
	return e.Err
}

// Common error variables
var (
	ErrCapabilityMissing   = fmt.Errorf("document has no interactive form")
	ErrFieldNotFound       = fmt.Errorf("field not found")
	ErrFieldExists         = fmt.Errorf("field name already in use")
	ErrPropertyNotWritable = fmt.Errorf("property cannot be written")
	ErrKidFieldRename      = fmt.Errorf("kid fields carry partial names; rename the parent field")
	ErrDocumentClosed      = fmt.Errorf("document is closed")
)

// SnapshotProperties reads every readable property of the named field into a
// PropertySnapshot. Absent or unreadable properties are skipped, never fatal.
func SnapshotProperties(fa FormAccess, field string) (PropertySnapshot, error) {
	if !fa.HasField(field) {
		return nil, &AccessError{Op: "snapshot", Field: field, Err: ErrFieldNotFound}
	}
	snap := make(PropertySnapshot, len(PropertyKeys))
	for _, key := range PropertyKeys {
		value, ok, err := fa.ReadProperty(field, key)
		if err != nil {
			return nil, &AccessError{Op: "snapshot", Field: field, Err: err}
		}
		if ok {
			snap[key] = value
		}
	}
	return snap, nil
}

// RestoreProperties reapplies a snapshot onto the named field, best-effort.
// Properties the access layer cannot set are skipped; the returned count is
// the number of properties confirmed present on the field after restore.
func RestoreProperties(fa FormAccess, field string, snap PropertySnapshot) int {
	restored := 0
	for _, key := range PropertyKeys {
		value, ok := snap[key]
		if !ok {
			continue
		}
		if err := fa.WriteProperty(field, key, value); err != nil {
			// Unsupported keys keep their original values through the rename;
			// they still count as preserved when readable afterwards.
			if _, stillThere, rerr := fa.ReadProperty(field, key); rerr == nil && stillThere {
				restored++
			}
			continue
		}
		restored++
	}
	return restored
}
