package validation

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/formx360/formx/pkg/schema"
)

func intp(n int) *int { return &n }

func floatp(n float64) *float64 { return &n }

func strp(s string) *string { return &s }

func options(values ...string) []schema.Option {
	out := make([]schema.Option, 0, len(values))
	for _, v := range values {
		out = append(out, schema.Option{Label: v, Value: v})
	}
	return out
}

func formWith(fields ...schema.Field) schema.Form {
	for i := range fields {
		if fields[i].ID == "" {
			fields[i].ID = fields[i].Name
		}
		fields[i].Order = i
	}
	return schema.Form{ID: "form-1", Title: "Test", Fields: fields}
}

func answer(id string, v any) schema.FieldValue {
	return schema.FieldValue{FieldID: id, Value: v}
}

func rules(res Result) []Rule {
	var out []Rule
	for _, v := range res.Violations() {
		out = append(out, v.Rule)
	}
	return out
}

func TestRequiredField(t *testing.T) {
	form := formWith(schema.Field{Type: schema.FieldText, Label: "Name", Name: "name", Required: true})

	cases := map[string][]schema.FieldValue{
		"missing": nil,
		"null":    {answer("name", nil)},
		"blank":   {answer("name", "   ")},
	}
	for name, responses := range cases {
		t.Run(name, func(t *testing.T) {
			res := Validate(form, responses)
			if res.OK() {
				t.Fatal("Expected validation failure")
			}
			want := []string{"Field 'Name' is required."}
			if diff := cmp.Diff(want, res.Messages()); diff != "" {
				t.Fatalf("messages mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRequiredAcceptsZeroAndFalse(t *testing.T) {
	form := formWith(
		schema.Field{Type: schema.FieldNumber, Label: "Count", Name: "count", Required: true},
		schema.Field{Type: schema.FieldText, Label: "Flag", Name: "flag", Required: true},
	)
	res := Validate(form, []schema.FieldValue{answer("count", float64(0)), answer("flag", false)})
	if !res.OK() {
		t.Fatalf("Expected success, got %v", res.Messages())
	}
}

func TestNumberBounds(t *testing.T) {
	form := formWith(schema.Field{
		Type: schema.FieldNumber, Label: "Age", Name: "age",
		ValidationRules: &schema.ValidationRules{MinValue: floatp(5), MaxValue: floatp(10)},
	})

	tests := []struct {
		value any
		want  []Rule
	}{
		{float64(4), []Rule{RuleMinValue}},
		{float64(5), nil},
		{"7", nil},
		{float64(10), nil},
		{float64(11), []Rule{RuleMaxValue}},
		{"seven", []Rule{RuleNumber}},
		{[]any{float64(1)}, []Rule{RuleNumber}},
	}
	for _, tt := range tests {
		res := Validate(form, []schema.FieldValue{answer("age", tt.value)})
		if diff := cmp.Diff(tt.want, rules(res)); diff != "" {
			t.Errorf("value %v: rules mismatch (-want +got):\n%s", tt.value, diff)
		}
	}

	res := Validate(form, []schema.FieldValue{answer("age", float64(4))})
	if got := res.Messages(); len(got) != 1 || got[0] != "Field 'Age' must be at least 5." {
		t.Errorf("unexpected messages: %v", got)
	}
}

func TestZeroIsALegitimateBound(t *testing.T) {
	form := formWith(schema.Field{
		Type: schema.FieldNumber, Label: "Balance", Name: "balance",
		ValidationRules: &schema.ValidationRules{MinValue: floatp(0)},
	})
	res := Validate(form, []schema.FieldValue{answer("balance", float64(-1))})
	if diff := cmp.Diff([]Rule{RuleMinValue}, rules(res)); diff != "" {
		t.Fatalf("rules mismatch (-want +got):\n%s", diff)
	}
}

func TestCheckboxChecksAreIndependent(t *testing.T) {
	form := formWith(schema.Field{
		Type: schema.FieldCheckboxGroup, Label: "Toppings", Name: "toppings",
		Options:         options("cheese", "ham", "olives"),
		ValidationRules: &schema.ValidationRules{MinSelected: intp(1), MaxSelected: intp(2)},
	})

	tests := []struct {
		name  string
		value any
		want  []Rule
	}{
		{"empty", []any{}, []Rule{RuleMinSelected}},
		{"too many", []any{"cheese", "ham", "olives"}, []Rule{RuleMaxSelected}},
		{"unknown option", []any{"pineapple"}, []Rule{RuleOption}},
		{"too many and unknown", []any{"cheese", "ham", "pineapple"}, []Rule{RuleMaxSelected, RuleOption}},
		{"ok", []any{"ham"}, nil},
		{"not an array", "ham", []Rule{RuleArray}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Validate(form, []schema.FieldValue{answer("toppings", tt.value)})
			if diff := cmp.Diff(tt.want, rules(res)); diff != "" {
				t.Fatalf("rules mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCheckboxFallsBackToLengthRules(t *testing.T) {
	form := formWith(schema.Field{
		Type: schema.FieldCheckboxGroup, Label: "Days", Name: "days",
		Options:         options("mon", "tue", "wed"),
		ValidationRules: &schema.ValidationRules{MaxLength: intp(1)},
	})
	res := Validate(form, []schema.FieldValue{answer("days", []any{"mon", "tue"})})
	if diff := cmp.Diff([]Rule{RuleMaxSelected}, rules(res)); diff != "" {
		t.Fatalf("rules mismatch (-want +got):\n%s", diff)
	}
}

func TestChoiceMembership(t *testing.T) {
	form := formWith(
		schema.Field{Type: schema.FieldSelect, Label: "Country", Name: "country", Options: options("se", "no")},
		schema.Field{Type: schema.FieldRadioGroup, Label: "Size", Name: "size", Options: options("s", "m")},
		schema.Field{Type: schema.FieldSelect, Label: "Langs", Name: "langs", Multiple: true, Options: options("go", "js")},
	)
	res := Validate(form, []schema.FieldValue{
		answer("country", "dk"),
		answer("size", "m"),
		answer("langs", []any{"go", "rust"}),
	})
	want := []string{
		"Field 'Country' must be one of the predefined options.",
		"Field 'Langs' contains invalid options.",
	}
	if diff := cmp.Diff(want, res.Messages()); diff != "" {
		t.Fatalf("messages mismatch (-want +got):\n%s", diff)
	}
}

func TestTextRules(t *testing.T) {
	form := formWith(schema.Field{
		Type: schema.FieldText, Label: "Code", Name: "code",
		ValidationRules: &schema.ValidationRules{
			Regex:            strp(`^[A-Z]+$`),
			RegexDescription: strp("upper-case letters"),
			MinLength:        intp(3),
			MaxLength:        intp(5),
		},
	})

	res := Validate(form, []schema.FieldValue{answer("code", "ab")})
	want := []string{
		"Field 'Code' must match the format: upper-case letters.",
		"Field 'Code' must have at least 3 characters.",
	}
	if diff := cmp.Diff(want, res.Messages()); diff != "" {
		t.Fatalf("messages mismatch (-want +got):\n%s", diff)
	}

	res = Validate(form, []schema.FieldValue{answer("code", "ABCDEF")})
	if diff := cmp.Diff([]Rule{RuleMaxLength}, rules(res)); diff != "" {
		t.Fatalf("rules mismatch (-want +got):\n%s", diff)
	}

	// Multi-byte characters count once.
	res = Validate(form, []schema.FieldValue{answer("code", "ÅÄÖ")})
	if diff := cmp.Diff([]Rule{RuleFormat}, rules(res)); diff != "" {
		t.Fatalf("rules mismatch (-want +got):\n%s", diff)
	}
}

func TestRegexFallbackDescriptionAndInvalidPattern(t *testing.T) {
	form := formWith(
		schema.Field{Type: schema.FieldTextarea, Label: "Bio", Name: "bio",
			ValidationRules: &schema.ValidationRules{Regex: strp(`^\d+$`)}},
		schema.Field{Type: schema.FieldText, Label: "Broken", Name: "broken",
			ValidationRules: &schema.ValidationRules{Regex: strp(`([`)}},
	)
	res := Validate(form, []schema.FieldValue{answer("bio", "words"), answer("broken", "anything")})
	want := []string{"Field 'Bio' must match the format: invalid format."}
	if diff := cmp.Diff(want, res.Messages()); diff != "" {
		t.Fatalf("messages mismatch (-want +got):\n%s", diff)
	}
}

func TestDateRules(t *testing.T) {
	form := formWith(schema.Field{
		Type: schema.FieldDate, Label: "Start", Name: "start",
		ValidationRules: &schema.ValidationRules{MinDate: strp("2024-01-10"), MaxDate: strp("2024-12-31")},
	})

	tests := []struct {
		value string
		want  []Rule
	}{
		{"2024-01-10", nil},
		{"2024-12-31", nil},
		{"2024-01-09", []Rule{RuleMinDate}},
		{"2025-01-01", []Rule{RuleMaxDate}},
		{"2024-02-30", []Rule{RuleDate}},
		{"next tuesday", []Rule{RuleDate}},
		{"2024-06-01T10:00:00Z", nil},
		{"2024-12-31T10:00", nil},
		{"2024-12-31T23:59:59Z", nil},
		{"2025-01-01T00:00:00Z", []Rule{RuleMaxDate}},
		{"2024-01-09T23:59", []Rule{RuleMinDate}},
	}
	for _, tt := range tests {
		res := Validate(form, []schema.FieldValue{answer("start", tt.value)})
		if diff := cmp.Diff(tt.want, rules(res)); diff != "" {
			t.Errorf("value %q: rules mismatch (-want +got):\n%s", tt.value, diff)
		}
	}
}

func TestDateComparesDatesNotStrings(t *testing.T) {
	// Lexically the answer sorts before the bound, but as instants it is half an hour later.
	form := formWith(schema.Field{
		Type: schema.FieldDate, Label: "When", Name: "when",
		ValidationRules: &schema.ValidationRules{MaxDate: strp("2024-03-01T00:00:00+01:00")},
	})
	res := Validate(form, []schema.FieldValue{answer("when", "2024-02-29T23:30:00Z")})
	if diff := cmp.Diff([]Rule{RuleMaxDate}, rules(res)); diff != "" {
		t.Fatalf("rules mismatch (-want +got):\n%s", diff)
	}
}

func TestURLRule(t *testing.T) {
	form := formWith(
		schema.Field{Type: schema.FieldURL, Label: "Site", Name: "site"},
		schema.Field{Type: schema.FieldText, Subtype: "url", Label: "Blog", Name: "blog"},
	)

	for _, ok := range []string{"example.com", "https://example.com/path?q=1&x=2", "http://localhost:8080/a"} {
		res := Validate(form, []schema.FieldValue{answer("site", ok), answer("blog", ok)})
		if !res.OK() {
			t.Errorf("%q should be accepted, got %v", ok, res.Messages())
		}
	}
	res := Validate(form, []schema.FieldValue{answer("site", "not a url"), answer("blog", "ftp://x")})
	want := []string{"Field 'Site' must be a valid URL.", "Field 'Blog' must be a valid URL."}
	if diff := cmp.Diff(want, res.Messages()); diff != "" {
		t.Fatalf("messages mismatch (-want +got):\n%s", diff)
	}
}

func TestFileRules(t *testing.T) {
	form := formWith(schema.Field{
		Type: schema.FieldFile, Label: "CV", Name: "cv",
		ValidationRules: &schema.ValidationRules{AllowedTypes: []string{"application/pdf", "image/png"}, MaxSize: floatp(2)},
	})

	var value any
	if err := json.Unmarshal([]byte(`{"name":"cv.doc","type":"application/msword","size":3145728}`), &value); err != nil {
		t.Fatal(err)
	}
	res := Validate(form, []schema.FieldValue{answer("cv", value)})
	want := []string{
		"Field 'CV' must be a file of type: application/pdf, image/png.",
		"Field 'CV' file size must not exceed 2 MB.",
	}
	if diff := cmp.Diff(want, res.Messages()); diff != "" {
		t.Fatalf("messages mismatch (-want +got):\n%s", diff)
	}

	exact := map[string]any{"type": "application/pdf", "size": float64(2 * 1024 * 1024)}
	if res := Validate(form, []schema.FieldValue{answer("cv", exact)}); !res.OK() {
		t.Errorf("file at the size limit should pass, got %v", res.Messages())
	}
	if res := Validate(form, []schema.FieldValue{answer("cv", "cv.pdf")}); !strings.Contains(strings.Join(res.Messages(), ""), "must be a file") {
		t.Errorf("expected file shape error, got %v", res.Messages())
	}
}

func TestFileWithoutRulesAcceptsAnyFile(t *testing.T) {
	form := formWith(schema.Field{Type: schema.FieldFile, Label: "Attachment", Name: "att"})
	res := Validate(form, []schema.FieldValue{answer("att", map[string]any{"type": "text/plain", "size": float64(10)})})
	if !res.OK() {
		t.Fatalf("Expected success, got %v", res.Messages())
	}
}

func TestUnsupportedType(t *testing.T) {
	form := formWith(schema.Field{Type: "hologram", Label: "Hi", Name: "hi"})
	res := Validate(form, []schema.FieldValue{answer("hi", "x")})
	want := []string{"Field 'Hi' has an unsupported field type: hologram."}
	if diff := cmp.Diff(want, res.Messages()); diff != "" {
		t.Fatalf("messages mismatch (-want +got):\n%s", diff)
	}
}

func TestNeverFailsFast(t *testing.T) {
	form := formWith(
		schema.Field{Type: schema.FieldText, Label: "Name", Name: "name", Required: true},
		schema.Field{Type: schema.FieldNumber, Label: "Age", Name: "age",
			ValidationRules: &schema.ValidationRules{MinValue: floatp(18)}},
		schema.Field{Type: schema.FieldSelect, Label: "Plan", Name: "plan", Options: options("free", "pro")},
	)
	res := Validate(form, []schema.FieldValue{answer("age", float64(12)), answer("plan", "gold")})
	if got := len(res.Violations()); got < 3 {
		t.Fatalf("Expected at least 3 violations, got %d: %v", got, res.Messages())
	}
	want := []string{"name", "age", "plan"}
	var got []string
	for _, v := range res.Violations() {
		got = append(got, v.FieldID)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("violations should follow field order (-want +got):\n%s", diff)
	}
}

func TestDisplayFieldsAndOptionalBlanksAreSkipped(t *testing.T) {
	form := formWith(
		schema.Field{Type: schema.FieldHeader, Label: "Welcome", Name: "hdr", Required: true},
		schema.Field{Type: schema.FieldParagraph, Label: "Intro", Name: "intro"},
		schema.Field{Type: schema.FieldText, Label: "Nick", Name: "nick",
			ValidationRules: &schema.ValidationRules{MinLength: intp(3)}},
	)
	res := Validate(form, []schema.FieldValue{answer("nick", "")})
	if !res.OK() {
		t.Fatalf("Expected success, got %v", res.Messages())
	}
}

func TestFirstAnswerWinsAndUnknownAnswersIgnored(t *testing.T) {
	form := formWith(schema.Field{Type: schema.FieldNumber, Label: "N", Name: "n"})
	res := Validate(form, []schema.FieldValue{answer("n", float64(1)), answer("n", "bad"), answer("ghost", "x")})
	if !res.OK() {
		t.Fatalf("Expected success, got %v", res.Messages())
	}
}

func TestEveryFieldTypeHasAHandler(t *testing.T) {
	for _, ft := range schema.FieldTypes {
		if _, ok := checkers[ft]; !ok {
			t.Errorf("no validation handler for field type %q", ft)
		}
	}
}

func TestViolationsAreCopied(t *testing.T) {
	form := formWith(schema.Field{Type: schema.FieldText, Label: "A", Name: "a", Required: true})
	res := Validate(form, nil)
	vs := res.Violations()
	vs[0].Message = "changed"
	if res.Messages()[0] == "changed" {
		t.Fatal("Violations must return a copy")
	}
}
