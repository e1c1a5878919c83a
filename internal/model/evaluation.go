package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Evaluation records one classification performed for a session. It is the
// unit stored in the session history cache.
type Evaluation struct {
	ID        string           `json:"id"`
	SessionID string           `json:"session_id"`
	Timestamp time.Time        `json:"timestamp"`
	Reading   TelemetryReading `json:"reading"`
	Result    StatusResult     `json:"result"`
}

func NewEvaluation(sessionID string, reading TelemetryReading, result StatusResult) *Evaluation {
	return &Evaluation{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Timestamp: time.Now().UTC(),
		Reading:   reading,
		Result:    result,
	}
}

func (e *Evaluation) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func EvaluationFromJSON(data []byte) (*Evaluation, error) {
	var e Evaluation
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
