package usecase

import "testing"

func TestSystemPrompt(t *testing.T) {
	want := "You are a helpful assistant answering questions about the Republic of China (Taiwan) constitution. " +
		"Answer the question based only on the provided context. " +
		"If the answer is not in the context, say you don't know."

	if got := SystemPrompt(); got != want {
		t.Errorf("SystemPrompt() = %q, want %q", got, want)
	}
}

func TestQuestionPrompt(t *testing.T) {
	got, err := QuestionPrompt("some context", "What is Article 1?")
	if err != nil {
		t.Fatalf("QuestionPrompt() error = %v", err)
	}

	want := "Context:\nsome context\n\nQuestion: What is Article 1?"
	if got != want {
		t.Errorf("QuestionPrompt() = %q, want %q", got, want)
	}
}

func TestQuestionPromptMultilineContext(t *testing.T) {
	ctx := "--- T | Article 1 ---\nbody one\n\n--- T | Article 2 ---\nbody two"
	got, err := QuestionPrompt(ctx, "q")
	if err != nil {
		t.Fatalf("QuestionPrompt() error = %v", err)
	}

	want := "Context:\n" + ctx + "\n\nQuestion: q"
	if got != want {
		t.Errorf("QuestionPrompt() = %q, want %q", got, want)
	}
}
