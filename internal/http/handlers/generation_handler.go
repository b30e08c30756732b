// Generation HTTP handlers.
//
//   - POST /trips/{id}/generation (start or join a run)
//   - GET  /trips/{id}/status     (caller-facing state; triggers a run)
//   - GET  /trips/{id}/artifact   (itinerary text and locations)
//   - GET  /trips/{id}/document   (rendered document bytes)
//   - POST /trips/{id}/document   (re-enrich and re-render)
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-trip-backend/internal/domain"
	"github.com/tbourn/go-trip-backend/internal/http/middleware"
	"github.com/tbourn/go-trip-backend/internal/services"
)

// StatusResponse is the caller-facing generation state.
type StatusResponse struct {
	Status   string               `json:"status"  example:"generating" enums:"generating,completed,error"`
	Message  string               `json:"message,omitempty"`
	Source   domain.ContentSource `json:"source,omitempty" example:"llm"`
	Attempts int                  `json:"attempts,omitempty"`
}

// ArtifactResponse is the generated itinerary of a trip.
type ArtifactResponse struct {
	TripID       string                      `json:"trip_id"`
	Content      string                      `json:"content"`
	Source       domain.ContentSource        `json:"source" example:"fallback"`
	Locations    []domain.LocationEnrichment `json:"locations"`
	DocumentURL  string                      `json:"document_url,omitempty"`
	DocumentType string                      `json:"document_type,omitempty" example:"text/html; charset=utf-8"`
	UpdatedAt    time.Time                   `json:"updated_at"`
}

// artifactResponse shapes a; docURL is reported only when a document exists.
func artifactResponse(a *domain.Artifact, docURL string) ArtifactResponse {
	locs := []domain.LocationEnrichment(a.Enrichments)
	if locs == nil {
		locs = []domain.LocationEnrichment{}
	}
	resp := ArtifactResponse{
		TripID:       a.TripSpecID,
		Content:      a.ContentText,
		Source:       a.Source,
		Locations:    locs,
		DocumentType: a.DocumentType,
		UpdatedAt:    a.UpdatedAt,
	}
	if a.DocumentKey != "" {
		resp.DocumentURL = docURL
	}
	return resp
}

// RequestGeneration godoc
// @ID          requestGeneration
// @Summary     Start itinerary generation
// @Description Starts a background run unless the itinerary is complete or a run is in flight. Safe to call repeatedly.
// @Tags        Generation
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Trip ID (UUID)"         format(uuid)
//
// @Success     202  {object} handlers.StatusResponse "Generating"
// @Success     200  {object} handlers.StatusResponse "Already completed"
// @Failure     400  {object} handlers.ErrorResponse  "Trip is not valid"
// @Failure     404  {object} handlers.ErrorResponse  "Trip not found"
// @Failure     503  {object} handlers.ErrorResponse  "Workers busy or shutting down"
// @Router      /trips/{id}/generation [post]
func (h *Handlers) RequestGeneration(c *gin.Context) {
	trip, found := h.ownedTrip(c)
	if !found {
		return
	}
	ctx := c.Request.Context()

	if err := h.gen.RequestGeneration(ctx, trip.ID); err != nil {
		failService(c, err, ErrCodeGenerationFailed)
		return
	}
	if art, err := h.gen.GetArtifact(ctx, trip.ID); err == nil && art.IsComplete() {
		ok(c, http.StatusOK, StatusResponse{Status: services.StatusCompleted, Source: art.Source})
		return
	}
	c.Header("Location", strings.TrimSuffix(c.Request.URL.Path, "/generation")+"/status")
	ok(c, http.StatusAccepted, StatusResponse{Status: services.StatusGenerating})
}

// GetStatus godoc
// @ID          getGenerationStatus
// @Summary     Get generation status
// @Description Reports generating, completed or error. Polling also starts a run when none is in flight and the itinerary is incomplete.
// @Tags        Generation
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Trip ID (UUID)"         format(uuid)
//
// @Success     200  {object} handlers.StatusResponse
// @Failure     404  {object} handlers.ErrorResponse "Trip not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /trips/{id}/status [get]
func (h *Handlers) GetStatus(c *gin.Context) {
	trip, found := h.ownedTrip(c)
	if !found {
		return
	}
	ctx := c.Request.Context()

	st, err := h.gen.GetStatus(ctx, trip.ID)
	if err != nil && !domain.IsValidation(err) {
		failService(c, err, ErrCodeStatusUnavailable)
		return
	}

	resp := StatusResponse{Status: st.State, Message: st.Message}
	if job, jerr := h.gen.Job(ctx, trip.ID); jerr == nil && job != nil {
		resp.Attempts = job.Attempts
		if st.State == services.StatusCompleted {
			resp.Source = job.Source
		}
	}
	c.Header("Cache-Control", "no-store")
	ok(c, http.StatusOK, resp)
}

// GetArtifact godoc
// @ID          getArtifact
// @Summary     Get the generated itinerary
// @Description Returns the itinerary text, its source and the enriched locations. Supports weak ETag via If-None-Match.
// @Tags        Generation
// @Produce     json
//
// @Param       X-User-ID      header  string  false "User ID (demo header)"  example(user123)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
// @Param       id             path    string  true  "Trip ID (UUID)"  format(uuid)
//
// @Success     200  {object} handlers.ArtifactResponse
// @Success     304  {string} string "Not Modified"
// @Failure     404  {object} handlers.ErrorResponse "Trip or itinerary not found"
// @Router      /trips/{id}/artifact [get]
func (h *Handlers) GetArtifact(c *gin.Context) {
	trip, found := h.ownedTrip(c)
	if !found {
		return
	}
	art, err := h.gen.GetArtifact(c.Request.Context(), trip.ID)
	if err != nil {
		failService(c, err, ErrCodeInternal)
		return
	}
	if weakETag(c, fmt.Sprintf(`W/"artifact:%s:%d"`, art.TripSpecID, art.UpdatedAt.UnixNano())) {
		return
	}
	ok(c, http.StatusOK, artifactResponse(art, strings.TrimSuffix(c.Request.URL.Path, "/artifact")+"/document"))
}

// GetDocument godoc
// @ID          getDocument
// @Summary     Download the itinerary document
// @Description Returns the rendered document (HTML, or plain text when rendering degraded).
// @Tags        Generation
// @Produce     html
// @Produce     plain
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Trip ID (UUID)"         format(uuid)
//
// @Success     200  {file}   file
// @Failure     404  {object} handlers.ErrorResponse "Document not found"
// @Router      /trips/{id}/document [get]
func (h *Handlers) GetDocument(c *gin.Context) {
	trip, found := h.ownedTrip(c)
	if !found {
		return
	}
	body, ct, err := h.gen.Document(c.Request.Context(), trip.ID)
	if err != nil {
		failService(c, err, ErrCodeDocumentFailed)
		return
	}
	if ct == "" {
		ct = "application/octet-stream"
	}
	if strings.HasPrefix(ct, "text/html") {
		middleware.DocumentCSP(c)
	}
	c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="trip-%s%s"`, trip.ID, documentExt(ct)))
	c.Data(http.StatusOK, ct, body)
}

// RegenerateDocument godoc
// @ID          regenerateDocument
// @Summary     Re-render the itinerary document
// @Description Re-enriches locations and re-renders the document of a completed itinerary.
// @Tags        Generation
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Trip ID (UUID)"         format(uuid)
//
// @Success     200  {object} handlers.ArtifactResponse
// @Failure     404  {object} handlers.ErrorResponse "Trip not found"
// @Failure     409  {object} handlers.ErrorResponse "Itinerary not generated yet"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /trips/{id}/document [post]
func (h *Handlers) RegenerateDocument(c *gin.Context) {
	trip, found := h.ownedTrip(c)
	if !found {
		return
	}
	art, err := h.gen.RegenerateDocument(c.Request.Context(), trip.ID)
	switch {
	case err == nil:
	case errors.Is(err, services.ErrArtifactNotFound):
		fail(c, http.StatusConflict, ErrCodeConflict, "itinerary not generated yet")
		return
	default:
		failService(c, err, ErrCodeDocumentFailed)
		return
	}
	ok(c, http.StatusOK, artifactResponse(art, c.Request.URL.Path))
}

func documentExt(ct string) string {
	switch {
	case strings.HasPrefix(ct, "text/html"):
		return ".html"
	case strings.HasPrefix(ct, "application/pdf"):
		return ".pdf"
	case strings.HasPrefix(ct, "text/plain"):
		return ".txt"
	}
	return ""
}
