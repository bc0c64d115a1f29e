// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"strings"
	"text/template"
)

// extractionTemplate asks for one concept per bullet line so responses parse
// with pool.ParseBullets. Subject scopes what counts as a concept.
var extractionTemplate = template.Must(template.New("extraction").Parse(
	`You are reviewing a lecture transcript about {{.Subject}}.

Read the following transcript segment and list every {{.Subject}} concept it
mentions or explains. A concept is a named term of the field, not a full
sentence. Output one concept per line, each line starting with "- ". Output
nothing else. If the segment contains no {{.Subject}} concepts, output
nothing.

Segment:
{{.Text}}
`))

type extractionParams struct {
	Subject string
	Text    string
}

func renderExtractionPrompt(subject, text string) (string, error) {
	var b strings.Builder
	err := extractionTemplate.Execute(&b, extractionParams{Subject: subject, Text: text})
	if err != nil {
		return "", err
	}
	return b.String(), nil
}
