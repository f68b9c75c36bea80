package store

import (
	"time"

	"concept-visualizer-be/pkg/concept"
)

const (
	StatusIdle       = "IDLE"
	StatusProcessing = "PROCESSING"
	StatusReady      = "READY"
)

// VisualizationResult is one rendered concept. ConceptIndex always equals
// the result's position in Session.Results.
type VisualizationResult struct {
	ConceptIndex       int    `json:"concept_index"`
	ConceptTitle       string `json:"concept_title"`
	ConceptDescription string `json:"concept_description"`
	StartOffset        int    `json:"start_offset"`
	EndOffset          int    `json:"end_offset"`
	SVG                string `json:"svg"`
}

// Session is the in-memory state of one visualization workspace.
type Session struct {
	ID        string `json:"id"`
	InputText string `json:"input_text"`
	Model     string `json:"model"`
	Status    string `json:"status"`

	// Concepts are the survivors of rendering, indexed 0..n-1.
	Concepts      []concept.IndexedConcept `json:"concepts"`
	Results       []VisualizationResult    `json:"results"`
	FormattedHTML string                   `json:"formatted_html"`

	// Generation increases on every visualize and reset. Completions carrying
	// an older generation are discarded.
	Generation uint64    `json:"generation"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Clone returns a copy whose slices do not alias the original.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Concepts = append([]concept.IndexedConcept(nil), s.Concepts...)
	c.Results = append([]VisualizationResult(nil), s.Results...)
	return &c
}

// Positions returns the start offset of every concept in index order.
func (s *Session) Positions() []int {
	positions := make([]int, len(s.Concepts))
	for i, c := range s.Concepts {
		positions[i] = c.StartOffset
	}
	return positions
}
