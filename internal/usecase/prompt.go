package usecase

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"
)

//go:embed templates/*.txt
var promptTemplates embed.FS

var questionTmpl = template.Must(
	template.ParseFS(promptTemplates, "templates/question_prompt.txt"))

// SystemPrompt returns the fixed instruction constraining answers to the
// retrieved context.
func SystemPrompt() string {
	raw, err := promptTemplates.ReadFile("templates/system_prompt.txt")
	if err != nil {
		panic(fmt.Sprintf("system prompt template missing: %v", err))
	}
	return strings.TrimRight(string(raw), "\n")
}

// QuestionPrompt renders the user message: the context bundle followed by
// the question.
func QuestionPrompt(contextText, query string) (string, error) {
	var buf bytes.Buffer
	err := questionTmpl.ExecuteTemplate(&buf, "question_prompt.txt", struct {
		Context string
		Query   string
	}{
		Context: contextText,
		Query:   query,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render question prompt: %w", err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}
