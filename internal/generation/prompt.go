// Package generation turns a content brief into a three-part short-form video
// script. A remote text-generation provider is asked first; any section it
// does not deliver is filled from curated fallback lists, so Generate always
// returns a usable hook, body and call-to-action.
package generation

import (
	"fmt"
	"strings"
)

// Request is a content brief.
type Request struct {
	Niche       string `json:"niche"`
	ContentType string `json:"contentType"`
	Tone        string `json:"tone"`
	Length      string `json:"length"`
	Notes       string `json:"notes,omitempty"`
}

// Result is a generated script.
type Result struct {
	Hook string `json:"hook"`
	Body string `json:"body"`
	CTA  string `json:"cta"`
}

const noNotes = "No additional requirements"

const promptTemplate = `Create an engaging social media script for %[1]s in the %[2]s niche with a %[3]s tone, targeting %[4]s content.

Additional context: %[5]s

Please structure the response as:
HOOK: [An attention-grabbing opening line that creates curiosity or addresses a pain point]
BODY: [Main content that provides value, tells a story, or shares insights - keep it engaging and conversational]
CTA: [A clear call-to-action that encourages engagement, follows, or specific action]

Make it unique, viral-worthy, and tailored to the %[2]s audience.`

// BuildPrompt renders the provider prompt for req. Blank notes read as no
// additional requirements.
func BuildPrompt(req Request) string {
	notes := strings.TrimSpace(req.Notes)
	if notes == "" {
		notes = noNotes
	}
	return fmt.Sprintf(promptTemplate, req.ContentType, req.Niche, req.Tone, req.Length, notes)
}
