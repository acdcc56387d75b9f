package rename

import (
	"fmt"
	"regexp"
	"strings"
)

// namePattern accepts exactly five shapes: block, block_element,
// block_element__modifier, block--group and block_element--group. A modifier
// without an element is rejected.
var namePattern = regexp.MustCompile(`^[a-z][a-z0-9-]*(?:--group|_[a-z][a-z0-9-]*(?:__[a-z][a-z0-9-]*|--group)?)?$`)

// reservedWords may not appear as a block, element or modifier segment.
// Hyphenated compounds like "first-name" are compared whole, so they stay
// legal even when one half is reserved.
var reservedWords = map[string]bool{
	"class":    true,
	"id":       true,
	"name":     true,
	"type":     true,
	"value":    true,
	"checked":  true,
	"selected": true,
	"disabled": true,
	"readonly": true,
	"required": true,
}

// ValidateName checks a target field name against the naming grammar.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("field name is empty")
	}
	if !namePattern.MatchString(name) {
		return fmt.Errorf("invalid field name %q: expected block, block_element, block_element__modifier or a --group variant in lowercase", name)
	}

	base := strings.TrimSuffix(name, "--group")
	for _, part := range strings.Split(base, "__") {
		for _, segment := range strings.Split(part, "_") {
			if reservedWords[segment] {
				return fmt.Errorf("invalid field name %q: %q is a reserved word", name, segment)
			}
		}
	}
	return nil
}

// IsValidName reports whether name satisfies the naming grammar.
func IsValidName(name string) bool {
	return ValidateName(name) == nil
}
