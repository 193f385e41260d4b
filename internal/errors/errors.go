package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

/**
 * Custom error types for the ID-Scan Worker
 *
 * Design Pattern: Factory Pattern for error creation
 * SOLID Principle: Single Responsibility (each error type has one purpose)
 */

// ErrorCode enum for structured error handling
type ErrorCode string

const (
	// Pipeline errors
	ErrorGeometryFailed ErrorCode = "GEOMETRY_FAILED"
	ErrorEngineFailed   ErrorCode = "ENGINE_FAILED"
	ErrorEngineTimeout  ErrorCode = "ENGINE_TIMEOUT"
	ErrorNoSignal       ErrorCode = "NO_SIGNAL"
	ErrorScanTimeout    ErrorCode = "SCAN_TIMEOUT"
	ErrorInvalidImage   ErrorCode = "INVALID_IMAGE"

	// Storage errors
	ErrorStorageFailed ErrorCode = "STORAGE_FAILED"

	// Network errors
	ErrorVisionCallFailed ErrorCode = "VISION_CALL_FAILED"
)

// ScanError represents a structured scan processing error
type ScanError struct {
	Code      ErrorCode
	Message   string
	ScanID    string
	Timestamp time.Time
	Details   map[string]interface{}
	Cause     error
}

func (e *ScanError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ScanError) Unwrap() error {
	return e.Cause
}

// Factory functions for common errors

// NewGeometryFailedError records a failed card boundary detection.
// Recoverable: the pipeline falls back to OCR on the raw photo.
func NewGeometryFailedError(scanID string, reason string) *ScanError {
	return &ScanError{
		Code:      ErrorGeometryFailed,
		Message:   fmt.Sprintf("Card boundary detection failed: %s", reason),
		ScanID:    scanID,
		Timestamp: time.Now(),
	}
}

func NewEngineFailedError(scanID string, method string, cause error) *ScanError {
	return &ScanError{
		Code:      ErrorEngineFailed,
		Message:   fmt.Sprintf("OCR engine failed for pass: %s", method),
		ScanID:    scanID,
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"pass_method": method,
		},
		Cause: cause,
	}
}

func NewEngineTimeoutError(scanID string, method string, timeout time.Duration) *ScanError {
	return &ScanError{
		Code:      ErrorEngineTimeout,
		Message:   fmt.Sprintf("OCR engine timed out after %v for pass: %s", timeout, method),
		ScanID:    scanID,
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"pass_method":      method,
			"timeout_duration": timeout.String(),
		},
	}
}

// NewNoSignalError is surfaced when the merged record and every ROI field are
// empty. It is retryable: the operator should adjust the card and rescan, or
// fall back to manual entry.
func NewNoSignalError(scanID string) *ScanError {
	return &ScanError{
		Code:      ErrorNoSignal,
		Message:   "No data could be extracted from the ID. Adjust lighting/position and retry, or use manual entry.",
		ScanID:    scanID,
		Timestamp: time.Now(),
	}
}

func NewInvalidImageError(scanID string, cause error) *ScanError {
	return &ScanError{
		Code:      ErrorInvalidImage,
		Message:   "Uploaded image could not be decoded",
		ScanID:    scanID,
		Timestamp: time.Now(),
		Cause:     cause,
	}
}

func NewScanTimeoutError(scanID string, duration time.Duration, cause error) *ScanError {
	return &ScanError{
		Code:      ErrorScanTimeout,
		Message:   fmt.Sprintf("Scan timed out after %v", duration),
		ScanID:    scanID,
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"timeout_duration": duration.String(),
		},
		Cause: cause,
	}
}

func NewStorageFailedError(scanID string, cause error) *ScanError {
	return &ScanError{
		Code:      ErrorStorageFailed,
		Message:   "Failed to store scan results",
		ScanID:    scanID,
		Timestamp: time.Now(),
		Cause:     cause,
	}
}

func NewVisionCallFailedError(scanID string, cause error) *ScanError {
	return &ScanError{
		Code:      ErrorVisionCallFailed,
		Message:   "Vision OCR service call failed",
		ScanID:    scanID,
		Timestamp: time.Now(),
		Cause:     cause,
	}
}

// As and Is re-export the standard library helpers so callers need only
// one errors import.
func As(err error, target interface{}) bool {
	return stderrors.As(err, target)
}

func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// ToMap converts error to map for database storage
func (e *ScanError) ToMap() map[string]interface{} {
	result := map[string]interface{}{
		"error_code": string(e.Code),
		"message":    e.Message,
		"timestamp":  e.Timestamp,
	}

	for k, v := range e.Details {
		result[k] = v
	}

	if e.Cause != nil {
		result["cause"] = e.Cause.Error()
	}

	return result
}
