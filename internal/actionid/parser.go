// internal/actionid/parser.go
package actionid

import (
	"fmt"
	"regexp"
	"strings"
)

const separator = '#'

// moduleRegex constrains module ids; they become half of every action id.
var moduleRegex = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// tagRegex allows the characters produced by the Allocator (`.`, `~`) and
// function signatures (`(`, `)`, `,`).
var tagRegex = regexp.MustCompile(`^[A-Za-z0-9_.~(),-]+$`)

// isValidName rejects names that are technically matched but meaningless.
func isValidName(name string) bool {
	if name == "." || name == ".." || name == "-" {
		return false
	}
	return true
}

// ValidateModule checks that a module id can be used in action ids.
func ValidateModule(module string) error {
	if module == "" {
		return fmt.Errorf("module id cannot be empty")
	}
	if !moduleRegex.MatchString(module) || !isValidName(module) {
		return fmt.Errorf("invalid module id: %q", module)
	}
	return nil
}

// ValidateTag checks that a tag can be used in action ids.
func ValidateTag(tag string) error {
	if tag == "" {
		return fmt.Errorf("action tag cannot be empty")
	}
	if !tagRegex.MatchString(tag) || !isValidName(tag) {
		return fmt.Errorf("invalid action tag: %q", tag)
	}
	return nil
}

// Parse reads the canonical `<module>#<tag>` form. Kind and Target are not
// part of the string and are left empty.
func Parse(raw string) (ID, error) {
	if raw == "" {
		return ID{}, fmt.Errorf("identifier cannot be empty")
	}
	module, tag, ok := strings.Cut(raw, string(separator))
	if !ok {
		return ID{}, fmt.Errorf("identifier %q is missing the %q separator", raw, separator)
	}
	if err := ValidateModule(module); err != nil {
		return ID{}, err
	}
	if err := ValidateTag(tag); err != nil {
		return ID{}, err
	}
	return ID{Module: module, Tag: tag}, nil
}
