package domain

import "time"

// JobStatus represents the status of an ingest run.
type JobStatus string

const (
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusPartial   JobStatus = "partial"
	JobStatusAborted   JobStatus = "aborted"
	JobStatusFailed    JobStatus = "failed"
)

// IngestJob is the ledger row written for each ingest run.
type IngestJob struct {
	ID              string     `gorm:"type:text;primaryKey" json:"id"`
	Dataset         string     `gorm:"type:text;not null;index" json:"dataset"`
	IndexName       string     `gorm:"type:text;not null" json:"index_name"`
	Mode            string     `gorm:"type:text" json:"mode"`
	EmbeddingModel  string     `gorm:"type:text" json:"embedding_model"`
	Status          JobStatus  `gorm:"default:running" json:"status"`
	TotalRecords    int        `gorm:"default:0" json:"total_records"`
	EmbeddedRecords int        `gorm:"default:0" json:"embedded_records"`
	UpsertedRecords int        `gorm:"default:0" json:"upserted_records"`
	DroppedRecords  int        `gorm:"default:0" json:"dropped_records"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	ErrorLog        string     `json:"error_log,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// TableName returns the database table name for IngestJob.
func (IngestJob) TableName() string {
	return "ingest_jobs"
}
