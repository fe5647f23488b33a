package errors

import (
	"fmt"
	"testing"
)

func TestExitCodeFollowsWrappedCode(t *testing.T) {
	base := New(CodeBusy, "execution already in progress")
	wrapped := fmt.Errorf("execute: %w", base)
	if got := ExitCode(wrapped); got != int(CodeBusy) {
		t.Fatalf("expected exit %d, got %d", CodeBusy, got)
	}
	if !IsCode(wrapped, CodeBusy) {
		t.Fatal("expected IsCode to see through fmt wrapping")
	}
	if ExitCode(nil) != 0 {
		t.Fatal("expected success exit for nil error")
	}
	if ExitCode(fmt.Errorf("plain")) != int(CodeInternal) {
		t.Fatal("expected untyped errors to map to internal")
	}
}

func TestWrapMessageIncludesCause(t *testing.T) {
	err := Wrap(CodeBlobCorrupt, "decode saved workflow", fmt.Errorf("unexpected EOF"))
	if err.Error() != "decode saved workflow: unexpected EOF" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
	if TypeName(err.Code) != "workflow_corrupt" {
		t.Fatalf("unexpected type name: %s", TypeName(err.Code))
	}
}
