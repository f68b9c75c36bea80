package dto

import (
	"time"

	"concept-visualizer-be/pkg/concept"
	"concept-visualizer-be/pkg/conceptsync"
)

type VisualizeRequest struct {
	Text  string `json:"text" validate:"required,max=100000"`
	Model string `json:"model" validate:"omitempty,oneof=gemini openai"`
}

type RegenerateConceptRequest struct {
	Model string `json:"model" validate:"omitempty,oneof=gemini openai"`
}

type NavigateRequest struct {
	Action string `json:"action" validate:"required,oneof=prev next jump click"`
	Index  int    `json:"index" validate:"min=0"`
}

type VisualizationResult struct {
	ConceptIndex       int    `json:"concept_index"`
	ConceptTitle       string `json:"concept_title"`
	ConceptDescription string `json:"concept_description"`
	StartOffset        int    `json:"start_offset"`
	EndOffset          int    `json:"end_offset"`
	SVG                string `json:"svg"`
}

type SessionResponse struct {
	Id            string                   `json:"id"`
	Status        string                   `json:"status"`
	Model         string                   `json:"model"`
	InputText     string                   `json:"input_text"`
	Concepts      []concept.IndexedConcept `json:"concepts"`
	Results       []VisualizationResult    `json:"results"`
	FormattedHTML string                   `json:"formatted_html"`
	Generation    uint64                   `json:"generation"`
	Active        conceptsync.Snapshot     `json:"active"`
	UpdatedAt     time.Time                `json:"updated_at"`
}

type FormatResponse struct {
	FormattedHTML string `json:"formatted_html"`
}

// ProgressMessage is published on the progress topic while a session is
// rendering and relayed to the session's WebSocket clients.
type ProgressMessage struct {
	SessionId  string `json:"session_id"`
	Generation uint64 `json:"generation"`
	Stage      string `json:"stage"`
	Completed  int    `json:"completed"`
	Total      int    `json:"total"`
	Message    string `json:"message"`
}
