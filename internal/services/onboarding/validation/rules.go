// Package validation implements the wizard's declarative field rules and the
// bespoke per-step validators built on them.
//
// A Rule is checked in a fixed order (required, minimum length, maximum
// length, pattern, custom) and the first failing check wins; a field never
// reports more than one message. Values that are missing and not required
// pass without running the remaining checks.
package validation

import (
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Rule declares the checks for one field.
type Rule struct {
	Required  bool
	MinLength int
	MaxLength int
	Pattern   *regexp.Regexp
	// Custom runs last and returns a message, or "" when the value is valid.
	Custom func(value any) string
	// Message replaces the default required message.
	Message string
	// PatternMessage replaces the default pattern message.
	PatternMessage string
}

// Errors maps field paths to their single error message.
type Errors map[string]string

// Any reports whether at least one field failed.
func (e Errors) Any() bool {
	return len(e) > 0
}

// Merge copies other into e, keeping e's message on key collisions.
func (e Errors) Merge(other Errors) Errors {
	if e == nil {
		e = Errors{}
	}
	for key, message := range other {
		if _, exists := e[key]; !exists {
			e[key] = message
		}
	}
	return e
}

// Default messages.
const (
	MessageRequired = "This field is required"
	MessageInvalid  = "Invalid format"
)

// ValidateField checks value against rule and returns the first failing
// message, or "" when the value passes.
func ValidateField(value any, rule Rule) string {
	if IsMissing(value) {
		if rule.Required {
			if rule.Message != "" {
				return rule.Message
			}
			return MessageRequired
		}
		return ""
	}

	if length, ok := lengthOf(value); ok {
		if rule.MinLength > 0 && length < rule.MinLength {
			return fmt.Sprintf("Must be at least %d characters", rule.MinLength)
		}
		if rule.MaxLength > 0 && length > rule.MaxLength {
			return fmt.Sprintf("Must be no more than %d characters", rule.MaxLength)
		}
	}

	if rule.Pattern != nil && !rule.Pattern.MatchString(stringOf(value)) {
		if rule.PatternMessage != "" {
			return rule.PatternMessage
		}
		return MessageInvalid
	}

	if rule.Custom != nil {
		return rule.Custom(value)
	}
	return ""
}

// ValidateForm resolves each rule key as a dot-notation path into data and
// returns the messages of every failing field. data may be a
// map[string]any tree or any value with a JSON representation.
func ValidateForm(data any, rules map[string]Rule) Errors {
	tree := normalize(data)
	errs := Errors{}
	for path, rule := range rules {
		value, _ := Resolve(tree, path)
		if message := ValidateField(value, rule); message != "" {
			errs[path] = message
		}
	}
	return errs
}

// Resolve walks a dot-notation path such as "businessAddress.zipCode" or
// "paymentMethods.0" through nested maps, slices and structs. Typed children
// are walked through their JSON form.
func Resolve(data any, path string) (any, bool) {
	current := data
	for _, segment := range strings.Split(path, ".") {
		next, ok := child(current, segment)
		if !ok && composite(current) {
			next, ok = child(normalize(current), segment)
		}
		if !ok {
			return nil, false
		}
		current = next
	}
	return current, true
}

func child(node any, segment string) (any, bool) {
	switch node := node.(type) {
	case map[string]any:
		next, ok := node[segment]
		return next, ok
	case []any:
		index, err := strconv.Atoi(segment)
		if err != nil || index < 0 || index >= len(node) {
			return nil, false
		}
		return node[index], true
	default:
		return nil, false
	}
}

func composite(value any) bool {
	switch value.(type) {
	case nil, map[string]any, []any:
		return false
	}
	switch reflect.Indirect(reflect.ValueOf(value)).Kind() {
	case reflect.Map, reflect.Struct, reflect.Slice, reflect.Array:
		return true
	default:
		return false
	}
}

// IsMissing reports whether value counts as absent for the required check:
// nil, blank strings, nil pointers, and empty slices or maps.
func IsMissing(value any) bool {
	if value == nil {
		return true
	}
	if s, ok := value.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			return true
		}
		return IsMissing(v.Elem().Interface())
	case reflect.Slice, reflect.Map:
		return v.Len() == 0
	default:
		return false
	}
}

func lengthOf(value any) (int, bool) {
	if s, ok := value.(string); ok {
		return utf8.RuneCountInString(strings.TrimSpace(s)), true
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return v.Len(), true
	default:
		return 0, false
	}
}

func stringOf(value any) string {
	if s, ok := value.(string); ok {
		return strings.TrimSpace(s)
	}
	return fmt.Sprint(value)
}

func normalize(data any) any {
	switch data.(type) {
	case nil, map[string]any, []any:
		return data
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil
	}
	var tree any
	if err := json.Unmarshal(raw, &tree); err != nil {
		return nil
	}
	return tree
}
