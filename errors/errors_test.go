package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestError_String(t *testing.T) {
	err := DuplicateNode("a")
	if !strings.Contains(err.Error(), "DUPLICATE_NODE") {
		t.Fatalf("expected code in message, got %q", err.Error())
	}
	if !strings.Contains(err.Error(), `"a"`) {
		t.Fatalf("expected node id in message, got %q", err.Error())
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := stderrors.New("boom")
	err := JobFailed("n1", cause)
	if !stderrors.Is(err, cause) {
		t.Fatal("expected errors.Is to find the cause")
	}
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", Cycle([]string{"a", "b", "a"}))
	if !HasCode(err, CodeCycle) {
		t.Fatal("expected CYCLE code through wrapping")
	}
	if HasCode(err, CodeUnknownNode) {
		t.Fatal("did not expect UNKNOWN_NODE code")
	}
	if HasCode(stderrors.New("plain"), CodeCycle) {
		t.Fatal("plain errors carry no code")
	}
}

func TestGetCode(t *testing.T) {
	if got := GetCode(UnknownNode("x")); got != CodeUnknownNode {
		t.Fatalf("expected UNKNOWN_NODE, got %s", got)
	}
	if got := GetCode(stderrors.New("plain")); got != CodeInternal {
		t.Fatalf("expected INTERNAL for plain error, got %s", got)
	}
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(SubmissionRejected("n1", nil)) {
		t.Fatal("submission rejection should be retryable")
	}
	if IsRetryable(JobFailed("n1", stderrors.New("boom"))) {
		t.Fatal("job failure should not be retryable")
	}
	if IsRetryable(stderrors.New("plain")) {
		t.Fatal("plain errors are not retryable")
	}
}

func TestWithDetail(t *testing.T) {
	err := New(CodeInternal, "oops").WithDetail("attempt", 3)
	if err.Details["attempt"] != 3 {
		t.Fatalf("expected detail to be set, got %v", err.Details)
	}
}

func TestInvalidTransition(t *testing.T) {
	err := InvalidTransition("n1", "Succeeded", "Running")
	if err.Retryable {
		t.Fatal("transition bugs must not be retryable")
	}
	if err.Details["from"] != "Succeeded" || err.Details["to"] != "Running" {
		t.Fatalf("unexpected details: %v", err.Details)
	}
}
