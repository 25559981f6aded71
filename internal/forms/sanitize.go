package forms

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

var (
	policyOnce  sync.Once
	plainPolicy *bluemonday.Policy
	richPolicy  *bluemonday.Policy
)

func policies() (*bluemonday.Policy, *bluemonday.Policy) {
	policyOnce.Do(func() {
		plainPolicy = bluemonday.StrictPolicy()
		// Form-builder labels and descriptions carry inline markup.
		richPolicy = bluemonday.UGCPolicy()
	})
	return plainPolicy, richPolicy
}

// sanitizePlain strips every tag and stores the text as typed. Used for titles, names and
// placeholders.
func sanitizePlain(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	plain, _ := policies()
	return strings.TrimSpace(html.UnescapeString(plain.Sanitize(trimmed)))
}

// sanitizeRich keeps safe inline markup. Used for labels and descriptions.
func sanitizeRich(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	_, rich := policies()
	return strings.TrimSpace(unescapeText(rich.Sanitize(trimmed)))
}

// unescapeText decodes entities in text runs. Tags are kept as the policy emitted them.
func unescapeText(s string) string {
	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return b.String()
		case html.TextToken:
			b.Write(z.Text())
		default:
			b.Write(z.Raw())
		}
	}
}
