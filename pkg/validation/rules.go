package validation

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/formx360/formx/pkg/schema"
)

const bytesPerMB = 1024 * 1024

// Scheme optional, host required, path and query optional.
var urlPattern = regexp.MustCompile(`^(https?://)?[\w-]+(\.[\w-]+)*(:\d+)?([/?#][\w./?%&=:#~+@!,;-]*)?$`)

func checkText(f schema.Field, value any) []Violation {
	text, ok := textValue(value)
	if !ok {
		return []Violation{violation(f, RuleText, "Field '%s' must be text.", f.Label)}
	}

	rules := f.Rules()
	var out []Violation
	if rules.Regex != nil {
		// An invalid pattern is a malformed rule and is ignored.
		if re, err := regexp.Compile(*rules.Regex); err == nil && !re.MatchString(text) {
			desc := "invalid format"
			if rules.RegexDescription != nil && *rules.RegexDescription != "" {
				desc = *rules.RegexDescription
			}
			out = append(out, violation(f, RuleFormat, "Field '%s' must match the format: %s.", f.Label, desc))
		}
	}
	length := utf8.RuneCountInString(text)
	if rules.MinLength != nil && length < *rules.MinLength {
		out = append(out, violation(f, RuleMinLength, "Field '%s' must have at least %d characters.", f.Label, *rules.MinLength))
	}
	if rules.MaxLength != nil && length > *rules.MaxLength {
		out = append(out, violation(f, RuleMaxLength, "Field '%s' must not exceed %d characters.", f.Label, *rules.MaxLength))
	}
	if f.Type == schema.FieldText && f.Subtype == "url" && !urlPattern.MatchString(text) {
		out = append(out, violation(f, RuleURL, "Field '%s' must be a valid URL.", f.Label))
	}
	return out
}

func checkNumber(f schema.Field, value any) []Violation {
	n, ok := numberValue(value)
	if !ok {
		return []Violation{violation(f, RuleNumber, "Field '%s' must be a valid number.", f.Label)}
	}

	rules := f.Rules()
	var out []Violation
	if rules.MinValue != nil && n < *rules.MinValue {
		out = append(out, violation(f, RuleMinValue, "Field '%s' must be at least %s.", f.Label, formatNumber(*rules.MinValue)))
	}
	if rules.MaxValue != nil && n > *rules.MaxValue {
		out = append(out, violation(f, RuleMaxValue, "Field '%s' must not exceed %s.", f.Label, formatNumber(*rules.MaxValue)))
	}
	return out
}

func checkChoice(f schema.Field, value any) []Violation {
	// A multi-select answers with a list.
	if items, ok := value.([]any); ok && f.Multiple {
		return checkSelection(f, items)
	}
	s, ok := scalarValue(value)
	if !ok || !f.HasOption(s) {
		return []Violation{violation(f, RuleOption, "Field '%s' must be one of the predefined options.", f.Label)}
	}
	return nil
}

func checkCheckboxes(f schema.Field, value any) []Violation {
	items, ok := value.([]any)
	if !ok {
		return []Violation{violation(f, RuleArray, "Field '%s' must be an array.", f.Label)}
	}
	return checkSelection(f, items)
}

// checkSelection applies the count and membership checks independently.
func checkSelection(f schema.Field, items []any) []Violation {
	rules := f.Rules()
	minSel, maxSel := rules.MinSelected, rules.MaxSelected
	if minSel == nil {
		minSel = rules.MinLength
	}
	if maxSel == nil {
		maxSel = rules.MaxLength
	}

	var out []Violation
	if maxSel != nil && len(items) > *maxSel {
		out = append(out, violation(f, RuleMaxSelected, "Field '%s' must not exceed %d selections.", f.Label, *maxSel))
	}
	if minSel != nil && len(items) < *minSel {
		out = append(out, violation(f, RuleMinSelected, "Field '%s' must have at least %d selections.", f.Label, *minSel))
	}
	for _, item := range items {
		s, ok := scalarValue(item)
		if !ok || !f.HasOption(s) {
			out = append(out, violation(f, RuleOption, "Field '%s' contains invalid options.", f.Label))
			break
		}
	}
	return out
}

func checkDate(f schema.Field, value any) []Violation {
	d, ok := dateValue(value)
	if !ok {
		return []Violation{violation(f, RuleDate, "Field '%s' must be a valid date.", f.Label)}
	}

	rules := f.Rules()
	var out []Violation
	// Bounds that do not parse are ignored.
	if rules.MinDate != nil {
		if bound, ok := dateValue(*rules.MinDate); ok && d.Before(bound) {
			out = append(out, violation(f, RuleMinDate, "Field '%s' must not be before %s.", f.Label, *rules.MinDate))
		}
	}
	if rules.MaxDate != nil {
		if bound, ok := upperDateBound(*rules.MaxDate); ok && d.After(bound) {
			out = append(out, violation(f, RuleMaxDate, "Field '%s' must not be after %s.", f.Label, *rules.MaxDate))
		}
	}
	return out
}

func checkURL(f schema.Field, value any) []Violation {
	s, ok := value.(string)
	if !ok || !urlPattern.MatchString(strings.TrimSpace(s)) {
		return []Violation{violation(f, RuleURL, "Field '%s' must be a valid URL.", f.Label)}
	}
	return nil
}

func checkFile(f schema.Field, value any) []Violation {
	file, ok := fileValue(value)
	if !ok {
		return []Violation{violation(f, RuleFile, "Field '%s' must be a file.", f.Label)}
	}

	rules := f.Rules()
	var out []Violation
	if len(rules.AllowedTypes) > 0 && !contains(rules.AllowedTypes, file.Type) {
		out = append(out, violation(f, RuleFileType, "Field '%s' must be a file of type: %s.", f.Label, strings.Join(rules.AllowedTypes, ", ")))
	}
	if rules.MaxSize != nil && file.Size > *rules.MaxSize*bytesPerMB {
		out = append(out, violation(f, RuleFileSize, "Field '%s' file size must not exceed %s MB.", f.Label, formatNumber(*rules.MaxSize)))
	}
	return out
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}
