package model

import "time"

// Package model contains domain models/data structures shared across layers.

// Export represents a CSV export definition: a named dataset of a fixed number
// of rows that can be rendered on demand, either buffered or streamed.
// ArtifactPath/ArtifactSize are set once a rendered copy has been persisted to
// object storage; both are empty/zero until then.
type Export struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	RowCount     int64     `json:"row_count"`
	ContentType  string    `json:"content_type"`
	ArtifactPath string    `json:"artifact_path,omitempty"`
	ArtifactSize int64     `json:"artifact_size,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// HasArtifact reports whether a rendered copy of the export has been stored.
func (e *Export) HasArtifact() bool {
	return e.ArtifactPath != ""
}
