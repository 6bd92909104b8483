package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AnalysisRequest asks a worker for one generate-and-analyze pipeline run.
type AnalysisRequest struct {
	RunID     string    `json:"run_id"`
	Days      int       `json:"days"`
	MinPerDay int       `json:"min_per_day"`
	MaxPerDay int       `json:"max_per_day"`
	Timestamp time.Time `json:"timestamp"`
}

// NewAnalysisRequest creates a request with a fresh run ID
func NewAnalysisRequest(days, minPerDay, maxPerDay int) *AnalysisRequest {
	return &AnalysisRequest{
		RunID:     uuid.NewString(),
		Days:      days,
		MinPerDay: minPerDay,
		MaxPerDay: maxPerDay,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *AnalysisRequest) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// AnalysisRequestFromJSON creates a message from JSON bytes
func AnalysisRequestFromJSON(data []byte) (*AnalysisRequest, error) {
	var msg AnalysisRequest
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
