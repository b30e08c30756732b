// Package domain defines the persistence models of the trip planner: trip
// specifications, their generation jobs and generated artifacts, plus the
// travel history and landmark records used as prompt context. These types are
// mapped with GORM and shared by the repository and service layers.
package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Validation bounds for TripSpec.
const (
	MaxDurationDays  = 60
	MaxTravelerCount = 50
)

// TripSpec is a user's request for an itinerary. It is immutable once
// generation has started.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - UserID: owner; indexed for listing.
//   - Destination / Country: where the trip goes; Country is optional.
//   - DurationDays, TravelerCount: both >= 1.
//   - TotalBudget: whole-trip budget in USD, >= 0.
//   - Interests, TransportPref, ExperienceStyle: free-text preferences.
type TripSpec struct {
	ID              string          `json:"id"               gorm:"type:char(36);primaryKey"`
	UserID          string          `json:"user_id"          gorm:"type:varchar(64);not null;index:idx_user_trips,priority:1"`
	Destination     string          `json:"destination"      gorm:"type:varchar(255);not null"`
	Country         string          `json:"country,omitempty" gorm:"type:varchar(128)"`
	DurationDays    int             `json:"duration_days"    gorm:"not null"`
	TotalBudget     decimal.Decimal `json:"total_budget"     gorm:"type:decimal(12,2);not null" swaggertype:"string" example:"900.00"`
	TravelerCount   int             `json:"traveler_count"   gorm:"not null"`
	Interests       string          `json:"interests,omitempty"        gorm:"type:text"`
	TransportPref   string          `json:"transport_pref,omitempty"   gorm:"type:varchar(64)"`
	ExperienceStyle string          `json:"experience_style,omitempty" gorm:"type:varchar(64)"`
	CreatedAt       time.Time       `json:"created_at"       gorm:"index:idx_user_trips,priority:2"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// TableName returns the database table name for TripSpec.
func (TripSpec) TableName() string { return "trip_specs" }

// Normalize trims free-text fields in place.
func (t *TripSpec) Normalize() {
	t.Destination = strings.Join(strings.Fields(t.Destination), " ")
	t.Country = strings.TrimSpace(t.Country)
	t.Interests = strings.TrimSpace(t.Interests)
	t.TransportPref = strings.TrimSpace(t.TransportPref)
	t.ExperienceStyle = strings.TrimSpace(t.ExperienceStyle)
}

// Validate reports the first field that makes the trip unusable.
func (t TripSpec) Validate() error {
	switch {
	case strings.TrimSpace(t.Destination) == "":
		return &ValidationError{Field: "destination", Reason: "must not be empty"}
	case t.DurationDays < 1 || t.DurationDays > MaxDurationDays:
		return &ValidationError{Field: "duration_days", Reason: "must be between 1 and 60"}
	case !t.TotalBudget.IsPositive():
		return &ValidationError{Field: "total_budget", Reason: "must be > 0"}
	case t.TravelerCount < 1 || t.TravelerCount > MaxTravelerCount:
		return &ValidationError{Field: "traveler_count", Reason: "must be between 1 and 50"}
	}
	return nil
}

// PerPersonDaily is TotalBudget / DurationDays / TravelerCount rounded to
// cents. It assumes a valid trip.
func (t TripSpec) PerPersonDaily() decimal.Decimal {
	if t.DurationDays < 1 || t.TravelerCount < 1 {
		return decimal.Zero
	}
	return t.TotalBudget.
		Div(decimal.NewFromInt(int64(t.DurationDays))).
		Div(decimal.NewFromInt(int64(t.TravelerCount))).
		Round(2)
}

// JobState is the lifecycle state of a GenerationJob.
type JobState string

const (
	JobNotStarted     JobState = "not_started"
	JobGenerating     JobState = "generating"
	JobCompleted      JobState = "completed"
	JobFailedFallback JobState = "failed_fallback"
)

// ContentSource tells where an artifact's text came from.
type ContentSource string

const (
	SourceLLM      ContentSource = "llm"
	SourceCache    ContentSource = "cache"
	SourceFallback ContentSource = "fallback"
)

// GenerationJob tracks the single generation run of a trip. TripSpecID is
// unique, so concurrent creators converge on one row.
type GenerationJob struct {
	ID         string        `json:"id"           gorm:"type:char(36);primaryKey"`
	TripSpecID string        `json:"trip_id"      gorm:"type:char(36);not null;uniqueIndex:ux_job_trip"`
	State      JobState      `json:"state"        gorm:"type:varchar(24);not null;default:'not_started'"`
	Attempts   int           `json:"attempts"     gorm:"not null;default:0"`
	Source     ContentSource `json:"source,omitempty"     gorm:"type:varchar(16)"`
	LastError  string        `json:"last_error,omitempty" gorm:"type:text"`
	CreatedAt  time.Time     `json:"created_at"`
	StartedAt  *time.Time    `json:"started_at,omitempty"`
	FinishedAt *time.Time    `json:"finished_at,omitempty"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// TableName returns the database table name for GenerationJob.
func (GenerationJob) TableName() string { return "generation_jobs" }

// MinCompleteContentLen is the trimmed length above which content counts as
// a finished itinerary.
const MinCompleteContentLen = 50

// IsCompleteText applies the completeness rule to raw text.
func IsCompleteText(s string) bool {
	return len(strings.TrimSpace(s)) > MinCompleteContentLen
}

// Artifact is the generated output for a trip (1:1 with its job). The
// rendered document lives in the document store under DocumentKey.
type Artifact struct {
	TripSpecID   string        `json:"trip_id"       gorm:"type:char(36);primaryKey"`
	ContentText  string        `json:"content"       gorm:"type:text;not null"`
	Source       ContentSource `json:"source"        gorm:"type:varchar(16);not null"`
	Enrichments  Enrichments   `json:"locations"     gorm:"type:text"`
	DocumentKey  string        `json:"document_key,omitempty"  gorm:"type:varchar(255)"`
	DocumentType string        `json:"document_type,omitempty" gorm:"type:varchar(64)"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// TableName returns the database table name for Artifact.
func (Artifact) TableName() string { return "artifacts" }

// IsComplete reports whether the artifact holds a usable itinerary.
func (a *Artifact) IsComplete() bool {
	return a != nil && IsCompleteText(a.ContentText)
}

// TripHistory is a past trip of a user, used to personalize prompts.
type TripHistory struct {
	ID          string    `json:"id"          gorm:"type:char(36);primaryKey"`
	UserID      string    `json:"user_id"     gorm:"type:varchar(64);not null;index:idx_history_user,priority:1"`
	Destination string    `json:"destination" gorm:"type:varchar(255);not null"`
	TripDate    time.Time `json:"trip_date"   gorm:"index:idx_history_user,priority:2"`
	Rating      *int      `json:"rating,omitempty" gorm:"check:rating IS NULL OR (rating BETWEEN 1 AND 5)"`
	Notes       string    `json:"notes,omitempty"  gorm:"type:text"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName returns the database table name for TripHistory.
func (TripHistory) TableName() string { return "trip_history" }

// Landmark is a curated point of interest for a destination.
type Landmark struct {
	ID              string    `json:"id"          gorm:"type:char(36);primaryKey"`
	Destination     string    `json:"destination" gorm:"type:varchar(255);not null;index"`
	Name            string    `json:"name"        gorm:"type:varchar(255);not null"`
	Category        string    `json:"category,omitempty"          gorm:"type:varchar(64)"`
	Description     string    `json:"description,omitempty"       gorm:"type:text"`
	BestTimeToVisit string    `json:"best_time_to_visit,omitempty" gorm:"type:varchar(128)"`
	CreatedAt       time.Time `json:"created_at"`
}

// TableName returns the database table name for Landmark.
func (Landmark) TableName() string { return "landmarks" }
