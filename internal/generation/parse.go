package generation

import (
	"regexp"
	"strings"
)

// Section regions. A region runs from its label to the next label or the end
// of the text and may span lines.
var (
	hookRe = regexp.MustCompile(`(?s)HOOK:\s*(.*?)(?:BODY:|$)`)
	bodyRe = regexp.MustCompile(`(?s)BODY:\s*(.*?)(?:CTA:|$)`)
	ctaRe  = regexp.MustCompile(`(?s)CTA:\s*(.*)$`)
)

// Parse extracts the labelled sections from raw provider output. Missing
// sections come back empty.
func Parse(text string) Result {
	return Result{
		Hook: capture(hookRe, text),
		Body: capture(bodyRe, text),
		CTA:  capture(ctaRe, text),
	}
}

func capture(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}
