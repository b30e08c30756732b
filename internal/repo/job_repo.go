// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for generation
// jobs and their artifacts.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-trip-backend/internal/domain"
)

// GetOrCreateJob returns the job of tripID, creating a not_started one when
// absent. Concurrent callers converge on the same row through the unique
// index on trip_spec_id.
func GetOrCreateJob(ctx context.Context, db *gorm.DB, tripID string) (*domain.GenerationJob, error) {
	if job, err := GetJob(ctx, db, tripID); err == nil {
		return job, nil
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	job := &domain.GenerationJob{
		ID:         uuid.NewString(),
		TripSpecID: tripID,
		State:      domain.JobNotStarted,
		CreatedAt:  time.Now().UTC(),
	}
	err := db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "trip_spec_id"}}, DoNothing: true}).
		Create(job).Error
	if err != nil && !isUniqueViolation(err) {
		return nil, err
	}
	return GetJob(ctx, db, tripID)
}

// GetJob fetches the job of tripID.
func GetJob(ctx context.Context, db *gorm.DB, tripID string) (*domain.GenerationJob, error) {
	var j domain.GenerationJob
	if err := db.WithContext(ctx).Where("trip_spec_id = ?", tripID).First(&j).Error; err != nil {
		return nil, err
	}
	return &j, nil
}

// JobUpdate carries the mutable fields of a job transition. Nil pointers are
// left untouched.
type JobUpdate struct {
	State      domain.JobState
	Attempts   *int
	Source     *domain.ContentSource
	LastError  *string
	StartedAt  *time.Time
	FinishedAt *time.Time
}

// UpdateJob applies u to the job of tripID.
func UpdateJob(ctx context.Context, db *gorm.DB, tripID string, u JobUpdate) error {
	fields := map[string]any{"state": u.State, "updated_at": time.Now().UTC()}
	if u.Attempts != nil {
		fields["attempts"] = *u.Attempts
	}
	if u.Source != nil {
		fields["source"] = *u.Source
	}
	if u.LastError != nil {
		fields["last_error"] = *u.LastError
	}
	if u.StartedAt != nil {
		fields["started_at"] = *u.StartedAt
	}
	if u.FinishedAt != nil {
		fields["finished_at"] = *u.FinishedAt
	}
	res := db.WithContext(ctx).
		Model(&domain.GenerationJob{}).
		Where("trip_spec_id = ?", tripID).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetArtifact fetches the artifact of tripID.
func GetArtifact(ctx context.Context, db *gorm.DB, tripID string) (*domain.Artifact, error) {
	var a domain.Artifact
	if err := db.WithContext(ctx).Where("trip_spec_id = ?", tripID).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// SaveArtifact inserts or replaces the artifact keyed by its TripSpecID.
func SaveArtifact(ctx context.Context, db *gorm.DB, a *domain.Artifact) error {
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "trip_spec_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"content_text", "source", "enrichments", "document_key", "document_type", "updated_at"}),
		}).
		Create(a).Error
}

// UpdateArtifactDocument repoints the artifact of tripID at a newly stored
// document and refreshes its enrichments.
func UpdateArtifactDocument(ctx context.Context, db *gorm.DB, tripID, key, contentType string, enr domain.Enrichments) error {
	res := db.WithContext(ctx).
		Model(&domain.Artifact{}).
		Where("trip_spec_id = ?", tripID).
		Updates(map[string]any{
			"document_key":  key,
			"document_type": contentType,
			"enrichments":   enr,
			"updated_at":    time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// isUniqueViolation matches UNIQUE errors; glebarez/sqlite often reports them
// as plain text.
func isUniqueViolation(err error) bool {
	low := strings.ToLower(err.Error())
	return errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(low, "unique constraint failed") ||
		strings.Contains(low, "constraint failed: unique")
}
