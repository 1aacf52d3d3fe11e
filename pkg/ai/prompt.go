package ai

import (
	"encoding/json"
	"strings"
)

const rewriteInstructions = `You are a professional resume writer optimising resumes for applicant tracking systems.
Rewrite and improve the resume provided as JSON below.

Rules:
- Keep EXACTLY the same JSON structure: the same keys at every level, the same number of items in every list.
- Do NOT add, remove or rename any key.
- Improve only the wording of prose fields (summary, descriptions, titles) so the content is concise, specific and professional.
- Expand weak descriptions with realistic, context-based achievements, but never invent companies, internships, degrees or dates.
- Leave contact details, URLs, dates and numbers unchanged.
- Do not use Markdown.
- Return ONLY the JSON object and nothing else.

Resume JSON:
`

// BuildRewritePrompt embeds the record into the rewrite instruction.
func BuildRewritePrompt(record map[string]interface{}) (string, error) {
	b, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	sb.Grow(len(rewriteInstructions) + len(b))
	sb.WriteString(rewriteInstructions)
	sb.Write(b)
	sb.WriteString("\n")
	return sb.String(), nil
}
