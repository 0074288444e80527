package errors

import (
	"errors"
	"fmt"
	"time"
)

/**
 * Error taxonomy for the OCR worker.
 *
 * Every failure in the pipeline is classified by Kind. Only two kinds are
 * fatal for a document: SourceUnavailable (the PDF cannot be opened) and
 * ConfigurationInvalid (startup-time misconfiguration). Everything else is
 * recovered page-locally and degrades to partial output.
 */

// Kind classifies a pipeline failure.
type Kind string

const (
	// SourceUnavailable means the document could not be opened or read.
	// Fatal for that document; no partial result is produced.
	SourceUnavailable Kind = "SOURCE_UNAVAILABLE"

	// PageRenderFailure means one page could not be rasterized. The page is
	// emitted as a placeholder and the document continues.
	PageRenderFailure Kind = "PAGE_RENDER_FAILURE"

	// OcrEngineFailure covers engine errors and per-page OCR timeouts.
	OcrEngineFailure Kind = "OCR_ENGINE_FAILURE"

	// TableReconstructionFailure means a detected table region could not be
	// rebuilt as a grid; the region falls back to plain-text OCR.
	TableReconstructionFailure Kind = "TABLE_RECONSTRUCTION_FAILURE"

	// RefinementFailure means the optional LLM refinement pass failed; the
	// unrefined text is kept.
	RefinementFailure Kind = "REFINEMENT_FAILURE"

	// CacheFailure means a cache read or write failed; treated as a miss.
	CacheFailure Kind = "CACHE_FAILURE"

	// ConfigurationInvalid is fatal at startup only.
	ConfigurationInvalid Kind = "CONFIGURATION_INVALID"
)

// Fatal reports whether an error of this kind must abort the document (or,
// for ConfigurationInvalid, the process). All other kinds degrade locally.
func (k Kind) Fatal() bool {
	return k == SourceUnavailable || k == ConfigurationInvalid
}

// PipelineError is the structured error carried through the pipeline.
type PipelineError struct {
	Kind      Kind
	Message   string
	Page      int // 1-based page number, 0 when not page-scoped
	Timestamp time.Time
	Cause     error
}

func (e *PipelineError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.Page > 0 {
		msg = fmt.Sprintf("%s: page %d: %s", e.Kind, e.Page, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// KindOf extracts the Kind from err, or "" when err is not a PipelineError.
func KindOf(err error) Kind {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

// Factory functions for common errors

func NewSourceUnavailable(name string, cause error) *PipelineError {
	return &PipelineError{
		Kind:      SourceUnavailable,
		Message:   fmt.Sprintf("cannot open document %q", name),
		Timestamp: time.Now(),
		Cause:     cause,
	}
}

func NewPageRenderFailure(page int, cause error) *PipelineError {
	return &PipelineError{
		Kind:      PageRenderFailure,
		Message:   "page could not be rasterized",
		Page:      page,
		Timestamp: time.Now(),
		Cause:     cause,
	}
}

func NewOcrEngineFailure(page int, cause error) *PipelineError {
	return &PipelineError{
		Kind:      OcrEngineFailure,
		Message:   "OCR engine failed",
		Page:      page,
		Timestamp: time.Now(),
		Cause:     cause,
	}
}

func NewTableReconstructionFailure(page int, cause error) *PipelineError {
	return &PipelineError{
		Kind:      TableReconstructionFailure,
		Message:   "table region could not be reconstructed",
		Page:      page,
		Timestamp: time.Now(),
		Cause:     cause,
	}
}

func NewRefinementFailure(cause error) *PipelineError {
	return &PipelineError{
		Kind:      RefinementFailure,
		Message:   "text refinement failed, keeping unrefined text",
		Timestamp: time.Now(),
		Cause:     cause,
	}
}

func NewCacheFailure(op string, cause error) *PipelineError {
	return &PipelineError{
		Kind:      CacheFailure,
		Message:   fmt.Sprintf("cache %s failed, treating as miss", op),
		Timestamp: time.Now(),
		Cause:     cause,
	}
}

func NewConfigurationInvalid(field, reason string) *PipelineError {
	return &PipelineError{
		Kind:      ConfigurationInvalid,
		Message:   fmt.Sprintf("%s: %s", field, reason),
		Timestamp: time.Now(),
	}
}

// ToMap converts the error to a map for job-status metadata storage.
func (e *PipelineError) ToMap() map[string]interface{} {
	result := map[string]interface{}{
		"error_code": string(e.Kind),
		"message":    e.Message,
		"timestamp":  e.Timestamp,
	}
	if e.Page > 0 {
		result["page"] = e.Page
	}
	if e.Cause != nil {
		result["cause"] = e.Cause.Error()
	}
	return result
}
