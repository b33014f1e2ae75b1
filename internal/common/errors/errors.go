// Package errors provides standardized error handling for the scoring and
// bias-audit workers, including BPMN workflow integration.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Scoring pipeline
	ErrCodeProviderUnavailable ErrorCode = "PROVIDER_UNAVAILABLE"
	ErrCodeScoringFailed       ErrorCode = "SCORING_FAILED"
	ErrCodeModelNotTrained     ErrorCode = "MODEL_NOT_TRAINED"
	ErrCodeTrainingFailed      ErrorCode = "TRAINING_FAILED"
	ErrCodeContextualTimeout   ErrorCode = "CONTEXTUAL_TIMEOUT"
	ErrCodeCacheUnavailable    ErrorCode = "CACHE_UNAVAILABLE"

	// Upstream collaborators
	ErrCodeResumeNotFound     ErrorCode = "RESUME_NOT_FOUND"
	ErrCodeResumeNotProcessed ErrorCode = "RESUME_NOT_PROCESSED"
	ErrCodeJobNotFound        ErrorCode = "JOB_NOT_FOUND"

	// Bias audit
	ErrCodeInsufficientSample  ErrorCode = "INSUFFICIENT_SAMPLE"
	ErrCodeHistoryQueryFailed  ErrorCode = "HISTORY_QUERY_FAILED"
	ErrCodeHistoryWriteFailed  ErrorCode = "HISTORY_WRITE_FAILED"
	ErrCodeNotificationFailed  ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeReportGenerateError ErrorCode = "REPORT_GENERATION_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Is lets errors.Is match two StandardErrors by code.
func (e *StandardError) Is(target error) bool {
	var std *StandardError
	if errors.As(target, &std) {
		return e.Code == std.Code
	}
	return false
}

// CodeOf extracts the ErrorCode from an error chain, or "" if none.
func CodeOf(err error) ErrorCode {
	var std *StandardError
	if errors.As(err, &std) {
		return std.Code
	}
	return ""
}

// IsProviderUnavailable reports whether err means a single signal provider
// could not run. The aggregator recovers from these by coverage discounting;
// they never abort a ranking run.
func IsProviderUnavailable(err error) bool {
	return CodeOf(err) == ErrCodeProviderUnavailable
}

// IsScoringFailed reports whether every provider was unavailable for a
// candidate. Such candidates are excluded from the ranked order, never
// defaulted to a numeric score.
func IsScoringFailed(err error) bool {
	return CodeOf(err) == ErrCodeScoringFailed
}

// IsInsufficientSample reports the auditor's deliberate non-result for
// candidate pools below the minimum sample threshold.
func IsInsufficientSample(err error) bool {
	return CodeOf(err) == ErrCodeInsufficientSample
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	for k, v := range e.ErrorVariables {
		vars[k] = v
	}

	return vars
}

// ConvertToBPMNError converts a StandardError into a throwable BPMN error.
func ConvertToBPMNError(err *StandardError) *BPMNError {
	return &BPMNError{
		Code:      string(err.Code),
		Message:   err.Message,
		Details:   err.Details,
		Retryable: err.Retryable,
		Retries:   GetRetryCount(err.Code),
		ErrorVariables: map[string]interface{}{
			"failedAt": err.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 3. Error Constructors
// ==========================

// NewProviderUnavailableError marks a single signal source as unable to run.
// Retryable: a transient outage self-heals because failures are never cached.
func NewProviderUnavailableError(providerID string, err error) *StandardError {
	details := ""
	if err != nil {
		details = err.Error()
	}
	return &StandardError{
		Code:      ErrCodeProviderUnavailable,
		Message:   "Signal provider could not produce a score",
		Details:   details,
		Retryable: true,
		Metadata:  map[string]interface{}{"providerId": providerID},
		Timestamp: time.Now().UTC(),
	}
}

// NewScoringFailedError marks a candidate for whom every provider failed.
func NewScoringFailedError(candidateID, jobID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeScoringFailed,
		Message:   "No signal provider could evaluate the candidate",
		Details:   fmt.Sprintf("candidateId: %s, jobId: %s", candidateID, jobID),
		Retryable: true,
		Metadata: map[string]interface{}{
			"candidateId": candidateID,
			"jobId":       jobID,
		},
		Timestamp: time.Now().UTC(),
	}
}

// NewModelNotTrainedError is raised by the trained-model scorer when no
// ensemble is loaded for the current provider version.
func NewModelNotTrainedError() *StandardError {
	return &StandardError{
		Code:      ErrCodeModelNotTrained,
		Message:   "No trained model ensemble is loaded",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewTrainingFailedError creates a non-retryable training error.
func NewTrainingFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeTrainingFailed,
		Message:   "Model training failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewContextualTimeoutError creates a retryable timeout for the external
// reasoning service.
func NewContextualTimeoutError(endpoint string) *StandardError {
	return &StandardError{
		Code:      ErrCodeContextualTimeout,
		Message:   "Contextual scorer call exceeded its deadline",
		Details:   fmt.Sprintf("endpoint: %s", endpoint),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewCacheUnavailableError creates a retryable cache backend error.
func NewCacheUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCacheUnavailable,
		Message:   "Score cache backend error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewResumeNotFoundError creates a non-retryable missing-resume error.
func NewResumeNotFoundError(candidateID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeResumeNotFound,
		Message:   "No parsed resume exists for candidate",
		Details:   fmt.Sprintf("candidateId: %s", candidateID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewResumeNotProcessedError indicates the upstream parser has not finished;
// retryable because the resume will eventually arrive.
func NewResumeNotProcessedError(candidateID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeResumeNotProcessed,
		Message:   "Resume upload has not been processed yet",
		Details:   fmt.Sprintf("candidateId: %s", candidateID),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewJobNotFoundError creates a non-retryable missing-job error.
func NewJobNotFoundError(jobID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeJobNotFound,
		Message:   "Job posting not found",
		Details:   fmt.Sprintf("jobId: %s", jobID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInsufficientSampleError is the auditor's abstention, not a failure.
func NewInsufficientSampleError(got, required int) *StandardError {
	return &StandardError{
		Code:      ErrCodeInsufficientSample,
		Message:   "Candidate pool below minimum sample size for bias audit",
		Details:   fmt.Sprintf("candidates: %d, required: %d", got, required),
		Retryable: false,
		Metadata: map[string]interface{}{
			"candidates": got,
			"required":   required,
		},
		Timestamp: time.Now().UTC(),
	}
}

// NewHistoryQueryFailedError creates a retryable ranking-history read error.
func NewHistoryQueryFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeHistoryQueryFailed,
		Message:   "Ranking history query failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewHistoryWriteFailedError creates a retryable ranking-history write error.
func NewHistoryWriteFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeHistoryWriteFailed,
		Message:   "Ranking snapshot indexing failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationFailedError creates a retryable notification error.
func NewNotificationFailedError(channel string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationFailed,
		Message:   "Bias alert notification failed",
		Details:   fmt.Sprintf("channel: %s, error: %s", channel, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewReportGenerationError creates a retryable report error.
func NewReportGenerationError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeReportGenerateError,
		Message:   "Bias report generation failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 4. Retry & Category Policy
// ==========================

// GetRetryCount returns how many workflow-level retries a code warrants.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeCacheUnavailable, ErrCodeHistoryQueryFailed, ErrCodeHistoryWriteFailed:
		return 3
	case ErrCodeContextualTimeout, ErrCodeScoringFailed, ErrCodeResumeNotProcessed:
		return 1
	default:
		return 0
	}
}

// GetErrorCategory groups codes for logging and metrics labels.
func GetErrorCategory(code ErrorCode) string {
	switch code {
	case ErrCodeProviderUnavailable, ErrCodeScoringFailed, ErrCodeModelNotTrained,
		ErrCodeTrainingFailed, ErrCodeContextualTimeout, ErrCodeCacheUnavailable:
		return "scoring"
	case ErrCodeResumeNotFound, ErrCodeResumeNotProcessed, ErrCodeJobNotFound:
		return "upstream"
	case ErrCodeInsufficientSample, ErrCodeHistoryQueryFailed, ErrCodeHistoryWriteFailed,
		ErrCodeNotificationFailed, ErrCodeReportGenerateError:
		return "audit"
	default:
		return "internal"
	}
}
