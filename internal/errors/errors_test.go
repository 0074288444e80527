package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestFatalKinds(t *testing.T) {
	tests := []struct {
		kind  Kind
		fatal bool
	}{
		{SourceUnavailable, true},
		{ConfigurationInvalid, true},
		{PageRenderFailure, false},
		{OcrEngineFailure, false},
		{TableReconstructionFailure, false},
		{RefinementFailure, false},
		{CacheFailure, false},
	}
	for _, tt := range tests {
		if got := tt.kind.Fatal(); got != tt.fatal {
			t.Errorf("%s.Fatal() = %v, want %v", tt.kind, got, tt.fatal)
		}
	}
}

func TestKindOf(t *testing.T) {
	cause := fmt.Errorf("disk on fire")
	err := NewPageRenderFailure(7, cause)

	if kind := KindOf(err); kind != PageRenderFailure {
		t.Errorf("KindOf = %q, want %q", kind, PageRenderFailure)
	}
	// Wrapping keeps the kind reachable.
	wrapped := fmt.Errorf("conversion: %w", err)
	if kind := KindOf(wrapped); kind != PageRenderFailure {
		t.Errorf("KindOf(wrapped) = %q, want %q", kind, PageRenderFailure)
	}
	if kind := KindOf(cause); kind != "" {
		t.Errorf("KindOf(plain error) = %q, want empty", kind)
	}
	if !errors.Is(wrapped, err) {
		t.Errorf("wrapped error lost its chain")
	}
}

func TestErrorMessageCarriesPage(t *testing.T) {
	err := NewOcrEngineFailure(3, fmt.Errorf("tesseract crashed"))
	msg := err.Error()
	if want := "page 3"; !strings.Contains(msg, want) {
		t.Errorf("Error() = %q, missing %q", msg, want)
	}
	if !strings.Contains(msg, "tesseract crashed") {
		t.Errorf("Error() = %q, missing the cause", msg)
	}
}

func TestToMap(t *testing.T) {
	err := NewTableReconstructionFailure(2, fmt.Errorf("grid collapsed"))
	m := err.ToMap()

	if m["error_code"] != string(TableReconstructionFailure) {
		t.Errorf("error_code = %v", m["error_code"])
	}
	if m["page"] != 2 {
		t.Errorf("page = %v, want 2", m["page"])
	}
	if m["cause"] != "grid collapsed" {
		t.Errorf("cause = %v", m["cause"])
	}

	// Errors without a page omit the key entirely.
	if _, ok := NewRefinementFailure(fmt.Errorf("x")).ToMap()["page"]; ok {
		t.Errorf("page key present on a document-scoped error")
	}
}
