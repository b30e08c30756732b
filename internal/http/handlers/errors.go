// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// Codes are lowercase snake_case and stable: clients branch on them. Generic
// codes mirror HTTP status semantics; domain codes name the operation that
// failed when the status alone is ambiguous.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "busy",
//	  "message": "all generation workers are busy, retry shortly"
//	}
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeConflict         = "conflict"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Domain-specific:
	ErrCodeValidation        = "validation_failed"
	ErrCodeTripNotFound      = "trip_not_found"
	ErrCodeArtifactNotFound  = "artifact_not_found"
	ErrCodeDocumentNotFound  = "document_not_found"
	ErrCodeBusy              = "busy"
	ErrCodeShuttingDown      = "shutting_down"
	ErrCodeGenerationFailed  = "generation_failed"
	ErrCodeDocumentFailed    = "document_failed"
	ErrCodeCreateFailed      = "create_failed"
	ErrCodeListFailed        = "list_failed"
	ErrCodeStatusUnavailable = "status_unavailable"
)
