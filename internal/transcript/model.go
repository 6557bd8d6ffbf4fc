package transcript

import "time"

type Status string

const (
	// StatusPending is part of the lifecycle but no current code path
	// produces it; submissions go straight to PROCESSING.
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
)

type Transcript struct {
	ID       string `json:"id"`
	UserID   string `json:"userId"`
	FileName string `json:"fileName"`
	FileSize int64  `json:"fileSize"`
	MimeType string `json:"mimeType"`
	// Content holds the transcribed text once completed, or a human-readable
	// error description when the job failed.
	Content   string    `json:"content"`
	Status    Status    `json:"status"`
	Duration  float64   `json:"duration,omitempty"` // seconds
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Stats is the dashboard projection over one user's transcripts. Pending
// counts both PENDING and PROCESSING jobs; TotalHours is the summed duration
// rounded to one decimal.
type Stats struct {
	Total      int     `json:"total"`
	Completed  int     `json:"completed"`
	Pending    int     `json:"pending"`
	TotalHours float64 `json:"totalHours"`
}
