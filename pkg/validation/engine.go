// Package validation checks a submitted answer set against a form definition.
//
// Validate is a pure function: it performs no I/O, holds no locks and never stops at the
// first problem. Every violation across every field is returned in one Result, ordered by
// the fields' display order.
package validation

import (
	"fmt"

	"github.com/formx360/formx/pkg/schema"
)

// Rule names the check that produced a violation.
type Rule string

const (
	RuleRequired    Rule = "required"
	RuleText        Rule = "text"
	RuleFormat      Rule = "format"
	RuleMinLength   Rule = "min_length"
	RuleMaxLength   Rule = "max_length"
	RuleNumber      Rule = "number"
	RuleMinValue    Rule = "min_value"
	RuleMaxValue    Rule = "max_value"
	RuleOption      Rule = "option"
	RuleArray       Rule = "array"
	RuleMinSelected Rule = "min_selected"
	RuleMaxSelected Rule = "max_selected"
	RuleDate        Rule = "date"
	RuleMinDate     Rule = "min_date"
	RuleMaxDate     Rule = "max_date"
	RuleURL         Rule = "url"
	RuleFile        Rule = "file"
	RuleFileType    Rule = "file_type"
	RuleFileSize    Rule = "file_size"
	RuleUnsupported Rule = "unsupported_type"
)

// Violation is one failed check on one field.
type Violation struct {
	FieldID   string `json:"field_id"`
	FieldName string `json:"field_name,omitempty"`
	Label     string `json:"label"`
	Rule      Rule   `json:"rule"`
	Message   string `json:"message"`
}

// Result is the outcome of Validate.
type Result struct {
	violations []Violation
}

// OK reports whether the submission was accepted.
func (r Result) OK() bool {
	return len(r.violations) == 0
}

// Violations returns a copy of the accumulated violations.
func (r Result) Violations() []Violation {
	out := make([]Violation, len(r.violations))
	copy(out, r.violations)
	return out
}

// Messages returns the human-readable message of every violation, in order.
func (r Result) Messages() []string {
	out := make([]string, 0, len(r.violations))
	for _, v := range r.violations {
		out = append(out, v.Message)
	}
	return out
}

// checker validates a present value for one field and returns its violations.
type checker func(f schema.Field, value any) []Violation

// checkers holds exactly one handler per known field type.
var checkers = map[schema.FieldType]checker{
	schema.FieldText:          checkText,
	schema.FieldTextarea:      checkText,
	schema.FieldHidden:        checkText,
	schema.FieldNumber:        checkNumber,
	schema.FieldStarRating:    checkNumber,
	schema.FieldSelect:        checkChoice,
	schema.FieldRadioGroup:    checkChoice,
	schema.FieldAutocomplete:  checkChoice,
	schema.FieldCheckboxGroup: checkCheckboxes,
	schema.FieldDate:          checkDate,
	schema.FieldURL:           checkURL,
	schema.FieldFile:          checkFile,
	schema.FieldHeader:        checkNothing,
	schema.FieldParagraph:     checkNothing,
	schema.FieldButton:        checkNothing,
}

// Validate checks responses against every field of form. Responses that reference no field
// are ignored; when a field is answered more than once the first answer counts.
func Validate(form schema.Form, responses []schema.FieldValue) Result {
	answers := make(map[string]any, len(responses))
	seen := make(map[string]bool, len(responses))
	for _, r := range responses {
		if seen[r.FieldID] {
			continue
		}
		seen[r.FieldID] = true
		answers[r.FieldID] = r.Value
	}

	var out []Violation
	for _, field := range form.OrderedFields() {
		if field.Type.IsDisplayOnly() {
			continue
		}
		value, present := answers[field.ID]
		out = append(out, validateField(field, value, present)...)
	}
	return Result{violations: out}
}

func validateField(f schema.Field, value any, present bool) []Violation {
	if f.Required && (!present || isEmpty(value)) {
		return []Violation{violation(f, RuleRequired, "Field '%s' is required.", f.Label)}
	}
	if !present || isBlank(value) {
		return nil
	}

	check, ok := checkers[f.Type]
	if !ok {
		return []Violation{violation(f, RuleUnsupported, "Field '%s' has an unsupported field type: %s.", f.Label, f.Type)}
	}
	return check(f, value)
}

func violation(f schema.Field, rule Rule, format string, args ...any) Violation {
	return Violation{
		FieldID:   f.ID,
		FieldName: f.Name,
		Label:     f.Label,
		Rule:      rule,
		Message:   fmt.Sprintf(format, args...),
	}
}

func checkNothing(schema.Field, any) []Violation { return nil }
