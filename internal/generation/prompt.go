package generation

import (
	"fmt"
	"strings"

	"github.com/paperfix/paperfix/backend/go-services/internal/templates"
)

const (
	missingAnswer = "N/A"

	editSystemInstruction = "You are an expert legal document editor that focuses on making precise edits to documents."
)

// GeneratePrompt renders the generation prompt for a template. Unanswered
// questions are rendered as N/A; answers to unknown question ids are ignored.
func GeneratePrompt(t templates.Template, answers map[string]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are an expert legal document writer. Generate a %s based on the following information:\n\n", t.Name)
	for _, q := range t.Questions {
		a := strings.TrimSpace(answers[q.ID])
		if a == "" {
			a = missingAnswer
		}
		fmt.Fprintf(&b, "%s: %s\n", q.Prompt, a)
	}
	b.WriteString("\nCreate a comprehensive, well-structured document that is professional and legally sound.\n")
	b.WriteString("Use clear, concise language and proper legal terminology.\n")
	b.WriteString("Format the document with proper sections, numbering, and hierarchical structure.\n")
	fmt.Fprintf(&b, "Include all necessary clauses and provisions typically found in a %s.\n", t.Name)
	return b.String()
}

// EditPrompt embeds the full current document between delimiters, followed by the instruction.
func EditPrompt(content, instruction string) string {
	var b strings.Builder
	b.WriteString("You are an expert legal document editor. Here is the current document content:\n\n")
	b.WriteString("---BEGIN DOCUMENT---\n")
	b.WriteString(content)
	b.WriteString("\n---END DOCUMENT---\n\n")
	fmt.Fprintf(&b, "User instruction: \"%s\"\n\n", instruction)
	b.WriteString("Provide the complete, updated document with the requested changes.\n")
	b.WriteString("Maintain the same formatting and structure unless specifically requested to change it.\n")
	b.WriteString("Return ONLY the updated document content, without any explanations or additional text.\n")
	return b.String()
}
