package fields

import (
	"errors"
	"testing"
)

func TestWrapEvaluationErrorCreatesMetadata(t *testing.T) {
	base := errors.New("boom")
	err := wrapEvaluationError("expr", `title + "!"`, "article.title_bang", base)

	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) {
		t.Fatalf("expected EvaluationError, got %T", err)
	}
	if evalErr.Engine != "expr" {
		t.Fatalf("expected engine expr, got %q", evalErr.Engine)
	}
	if evalErr.Expr != `title + "!"` {
		t.Fatalf("expected expression metadata, got %q", evalErr.Expr)
	}
	if evalErr.Field != "article.title_bang" {
		t.Fatalf("expected field metadata, got %q", evalErr.Field)
	}
	if !errors.Is(evalErr.Err, base) {
		t.Fatalf("wrapped error should unwrap to base error")
	}
}

func TestWrapEvaluationErrorAugmentsExisting(t *testing.T) {
	base := errors.New("compile failure")
	existing := &EvaluationError{
		Engine: "expr",
		Err:    base,
	}

	err := wrapEvaluationError("cel", "rule", "doc.total", existing)
	if !errors.Is(err, base) {
		t.Fatalf("expected base error to unwrap")
	}
	if existing.Engine != "expr" {
		t.Fatalf("existing engine should not be overwritten, got %q", existing.Engine)
	}
	if existing.Expr != "rule" {
		t.Fatalf("expression should be filled, got %q", existing.Expr)
	}
	if existing.Field != "doc.total" {
		t.Fatalf("field should be filled, got %q", existing.Field)
	}
}

func TestWrapEvaluationErrorPassesNil(t *testing.T) {
	if err := wrapEvaluationError("expr", "x", "f", nil); err != nil {
		t.Fatalf("expected nil passthrough, got %v", err)
	}
	if err := wrapEvaluatorError("expr", nil); err != nil {
		t.Fatalf("expected nil passthrough, got %v", err)
	}
}

func TestWrapEvaluatorErrorKeepsPackagePrefix(t *testing.T) {
	prefixed := errors.New("fields: already prefixed")
	if err := wrapEvaluatorError("expr", prefixed); err != prefixed {
		t.Fatalf("expected prefixed error kept verbatim, got %v", err)
	}

	raw := errors.New("raw failure")
	err := wrapEvaluatorError("cel", raw)
	if !errors.Is(err, raw) {
		t.Fatalf("expected raw error wrapped, got %v", err)
	}
	if err.Error() != "fields: cel evaluator: raw failure" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}
