// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package refine

import (
	"strings"
	"text/template"
)

var feedbackTemplate = template.Must(template.New("feedback").Parse(
	`Below is a candidate list of {{.Subject}} concepts extracted from a
lecture transcript segment. Critique the list: point out entries that are
not real {{.Subject}} concepts, entries that are duplicates under different
names, and entries too vague to be useful. Be specific and brief.

Candidates:
{{.List}}`))

var filterTemplate = template.Must(template.New("filter").Parse(
	`Below is a candidate list of {{.Subject}} concepts and a reviewer's
critique of it. Apply the critique: keep only entries that are genuine
{{.Subject}} concepts. Output the surviving entries, one per line, each
line starting with "- ". Output nothing else.

Candidates:
{{.List}}

Critique:
{{.Feedback}}`))

type promptParams struct {
	Subject  string
	List     string
	Feedback string
}

func formatList(concepts []string) string {
	var b strings.Builder
	for _, c := range concepts {
		b.WriteString("- ")
		b.WriteString(c)
		b.WriteString("\n")
	}
	return b.String()
}

func renderFeedbackPrompt(subject string, concepts []string) (string, error) {
	var b strings.Builder
	err := feedbackTemplate.Execute(&b, promptParams{Subject: subject, List: formatList(concepts)})
	if err != nil {
		return "", err
	}
	return b.String(), nil
}

func renderFilterPrompt(subject string, concepts []string, feedback string) (string, error) {
	if strings.TrimSpace(feedback) == "" {
		feedback = "(no critique available, keep only genuine concepts)"
	}
	var b strings.Builder
	err := filterTemplate.Execute(&b, promptParams{
		Subject:  subject,
		List:     formatList(concepts),
		Feedback: feedback,
	})
	if err != nil {
		return "", err
	}
	return b.String(), nil
}
