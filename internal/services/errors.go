// Package services holds the application logic of the trip planner: trip
// records, itinerary generation, location enrichment and the job
// orchestrator that ties them together. This file centralizes service-level
// error values so that they can be returned consistently and translated
// into HTTP status codes by the handler layer.
package services

import "errors"

var (
	// ErrTripNotFound indicates that the trip does not exist or is not
	// accessible to the current user.
	ErrTripNotFound = errors.New("trip not found")

	// ErrArtifactNotFound is returned when no itinerary has been generated
	// for the trip yet.
	ErrArtifactNotFound = errors.New("artifact not found")

	// ErrDocumentNotFound is returned when the artifact has no stored
	// document.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrBusy signals backpressure: every generation worker is occupied.
	ErrBusy = errors.New("generation workers busy")

	// ErrShuttingDown is returned once the orchestrator stopped accepting
	// work.
	ErrShuttingDown = errors.New("orchestrator shutting down")

	// ErrMisconfigured marks a missing or rejected LLM credential. The
	// pipeline still returns fallback text alongside it.
	ErrMisconfigured = errors.New("llm client misconfigured")
)
