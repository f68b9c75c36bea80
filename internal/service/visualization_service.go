package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"concept-visualizer-be/internal/constant"
	"concept-visualizer-be/internal/dto"
	"concept-visualizer-be/internal/pkg/logger"
	"concept-visualizer-be/internal/repository/memory"
	"concept-visualizer-be/pkg/concept"
	"concept-visualizer-be/pkg/conceptsync"
	"concept-visualizer-be/pkg/lifecycle"
	"concept-visualizer-be/pkg/render"
	"concept-visualizer-be/pkg/store"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
)

var (
	ErrNoVisualizations = errors.New("no concepts could be visualized successfully")
	ErrSessionNotFound  = errors.New("visualization session not found")
	ErrConceptNotFound  = errors.New("concept not found")
	ErrUnknownModel     = errors.New("unknown visualization model")

	// ErrSuperseded is returned when a newer visualize or reset finished
	// first; the stale result is discarded.
	ErrSuperseded = errors.New("visualization superseded by a newer request")
)

const (
	StageExtracting = "extracting"
	StageRendering  = "rendering"
	StageFormatting = "formatting"
	StageDone       = "done"
)

// TextFormatter produces the annotated reading view for indexed concepts.
type TextFormatter interface {
	Format(ctx context.Context, text string, concepts []concept.IndexedConcept) (string, error)
}

// SessionObserver is told about session changes so live sync channels can
// follow them. The WebSocket hub implements it.
type SessionObserver interface {
	SessionLoaded(sessionID string, positions []int)
	SessionReset(sessionID string)
	Navigate(ctx context.Context, sessionID string, ev conceptsync.Event) (conceptsync.Snapshot, error)
	Active(sessionID string) (conceptsync.Snapshot, bool)
}

type IVisualizationService interface {
	Create(ctx context.Context, req *dto.VisualizeRequest) (*dto.SessionResponse, error)
	Visualize(ctx context.Context, sessionID string, req *dto.VisualizeRequest) (*dto.SessionResponse, error)
	Get(ctx context.Context, sessionID string) (*dto.SessionResponse, error)
	Reset(ctx context.Context, sessionID string) (*dto.SessionResponse, error)
	RegenerateConcept(ctx context.Context, sessionID string, index int, req *dto.RegenerateConceptRequest) (*dto.VisualizationResult, error)
	RefreshFormatting(ctx context.Context, sessionID string) (*dto.FormatResponse, error)
	Navigate(ctx context.Context, sessionID string, req *dto.NavigateRequest) (*conceptsync.Snapshot, error)
}

type VisualizationDeps struct {
	Extractor    concept.Extractor
	Renderers    map[string]render.Renderer
	DefaultModel string
	Formatter    TextFormatter
	Sessions     *memory.SessionRepository
	Observer     SessionObserver
	Progress     IProgressPublisher
	Lifecycle    lifecycle.Publisher

	// RenderConcurrency bounds concurrent rendering calls per visualize.
	RenderConcurrency int
	Logger            logger.ILogger
}

type visualizationService struct {
	VisualizationDeps
}

func NewVisualizationService(deps VisualizationDeps) IVisualizationService {
	if deps.RenderConcurrency <= 0 {
		deps.RenderConcurrency = 4
	}
	return &visualizationService{VisualizationDeps: deps}
}

func (s *visualizationService) Create(ctx context.Context, req *dto.VisualizeRequest) (*dto.SessionResponse, error) {
	session := &store.Session{ID: uuid.NewString(), Status: store.StatusIdle}
	s.Sessions.Save(session)

	res, err := s.Visualize(ctx, session.ID, req)
	if err != nil {
		// nothing to roll back to
		s.Sessions.Delete(session.ID)
		return nil, err
	}
	return res, nil
}

// Visualize runs extraction, rendering and formatting for text and replaces
// the session's state on success. On failure the session keeps what it had.
func (s *visualizationService) Visualize(ctx context.Context, sessionID string, req *dto.VisualizeRequest) (*dto.SessionResponse, error) {
	model, renderer, err := s.renderer(req.Model)
	if err != nil {
		return nil, err
	}

	var (
		generation     uint64
		previousStatus string
	)
	if _, ok := s.Sessions.Update(sessionID, func(sess *store.Session) bool {
		sess.Generation++
		generation = sess.Generation
		previousStatus = sess.Status
		sess.Status = store.StatusProcessing
		return true
	}); !ok {
		return nil, ErrSessionNotFound
	}

	ctx, span := otel.Tracer("visualization").Start(ctx, "VisualizationService.Visualize")
	defer span.End()
	span.SetAttributes(
		attribute.String("session_id", sessionID),
		attribute.String("model", model),
		attribute.Int("text_length", len(req.Text)),
	)

	s.Lifecycle.PublishStarted(ctx, sessionID, generation, model, len(req.Text))
	s.Logger.Info("VisualizationService", "Visualization started", map[string]interface{}{
		"session_id":  sessionID,
		"generation":  generation,
		"model":       model,
		"text_length": len(req.Text),
	})

	result, err := s.run(ctx, sessionID, generation, req.Text, renderer)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.rollback(sessionID, generation, previousStatus)
		s.Lifecycle.PublishFailed(ctx, sessionID, generation, err.Error())
		s.Logger.Warn("VisualizationService", "Visualization failed", map[string]interface{}{
			"session_id": sessionID,
			"generation": generation,
			"error":      err.Error(),
		})
		return nil, err
	}

	committed, ok := s.Sessions.Update(sessionID, func(sess *store.Session) bool {
		if sess.Generation != generation {
			return false
		}
		sess.InputText = req.Text
		sess.Model = model
		sess.Concepts = result.concepts
		sess.Results = result.results
		sess.FormattedHTML = result.html
		sess.Status = store.StatusReady
		return true
	})
	if !ok {
		return nil, ErrSessionNotFound
	}
	if committed.Generation != generation {
		s.Logger.Info("VisualizationService", "Discarding stale visualization", map[string]interface{}{
			"session_id": sessionID,
			"generation": generation,
			"current":    committed.Generation,
		})
		return nil, ErrSuperseded
	}

	s.Observer.SessionLoaded(sessionID, committed.Positions())
	s.Progress.PublishProgress(dto.ProgressMessage{
		SessionId:  sessionID,
		Generation: generation,
		Stage:      StageDone,
		Completed:  len(result.results),
		Total:      result.total,
		Message:    fmt.Sprintf(constant.ProgressDone, len(result.results), result.total),
	})
	s.Lifecycle.PublishCompleted(ctx, sessionID, generation, result.total, len(result.results))
	s.Logger.Info("VisualizationService", "Visualization completed", map[string]interface{}{
		"session_id": sessionID,
		"generation": generation,
		"concepts":   result.total,
		"visualized": len(result.results),
	})

	return s.toResponse(committed), nil
}

type pipelineResult struct {
	concepts []concept.IndexedConcept
	results  []store.VisualizationResult
	html     string
	total    int
}

func (s *visualizationService) run(ctx context.Context, sessionID string, generation uint64, text string, renderer render.Renderer) (*pipelineResult, error) {
	progress := func(stage string, completed, total int, msg string) {
		s.Progress.PublishProgress(dto.ProgressMessage{
			SessionId:  sessionID,
			Generation: generation,
			Stage:      stage,
			Completed:  completed,
			Total:      total,
			Message:    msg,
		})
	}

	progress(StageExtracting, 0, 0, constant.ProgressExtracting)
	raw, err := s.Extractor.Extract(ctx, text)
	if err != nil {
		return nil, err
	}
	refined := concept.Refine(text, raw, s.Logger)
	if len(refined) == 0 {
		return nil, fmt.Errorf("%w: no concept survived refinement", concept.ErrExtraction)
	}

	total := len(refined)
	progress(StageRendering, 0, total, fmt.Sprintf(constant.ProgressVisualizing, total))
	svgs := s.renderAll(ctx, refined, renderer, func(done int) {
		progress(StageRendering, done, total, fmt.Sprintf(constant.ProgressVisualizedCount, done, total))
	})

	survivors := make([]concept.Concept, 0, total)
	survivorSVGs := make([]string, 0, total)
	for i, svg := range svgs {
		if svg == "" {
			continue
		}
		survivors = append(survivors, refined[i])
		survivorSVGs = append(survivorSVGs, svg)
	}
	if len(survivors) == 0 {
		return nil, ErrNoVisualizations
	}

	// Indices are assigned once, after failed renders are dropped, so that
	// result i always belongs to concept i.
	indexed := concept.Index(text, survivors)
	results := make([]store.VisualizationResult, len(indexed))
	for i, c := range indexed {
		results[i] = store.VisualizationResult{
			ConceptIndex:       c.Index,
			ConceptTitle:       c.Title,
			ConceptDescription: c.Description,
			StartOffset:        c.StartOffset,
			EndOffset:          c.EndOffset,
			SVG:                survivorSVGs[i],
		}
	}

	progress(StageFormatting, len(results), total, constant.ProgressFormatting)
	html, err := s.Formatter.Format(ctx, text, indexed)
	if err != nil {
		return nil, err
	}

	return &pipelineResult{concepts: indexed, results: results, html: html, total: total}, nil
}

// renderAll renders every concept and waits for all of them. A failed
// render leaves an empty string at its position.
func (s *visualizationService) renderAll(ctx context.Context, concepts []concept.Concept, renderer render.Renderer, onDone func(done int)) []string {
	ctx, span := otel.Tracer("visualization").Start(ctx, "VisualizationService.renderAll")
	defer span.End()

	svgs := make([]string, len(concepts))
	var completed, failed atomic.Int32

	var g errgroup.Group
	g.SetLimit(s.RenderConcurrency)
	for i, c := range concepts {
		g.Go(func() error {
			svg, err := renderer.Render(ctx, c.Title, c.Description)
			if err != nil {
				failed.Add(1)
				s.Logger.Warn("VisualizationService", "Render failed", map[string]interface{}{
					"title": c.Title,
					"error": err.Error(),
				})
			} else {
				svgs[i] = svg
			}
			onDone(int(completed.Add(1)))
			return nil
		})
	}
	_ = g.Wait()

	span.SetAttributes(
		attribute.Int("concepts", len(concepts)),
		attribute.Int("failed", int(failed.Load())),
	)
	return svgs
}

func (s *visualizationService) rollback(sessionID string, generation uint64, previousStatus string) {
	s.Sessions.Update(sessionID, func(sess *store.Session) bool {
		if sess.Generation != generation {
			return false
		}
		sess.Status = previousStatus
		return true
	})
}

func (s *visualizationService) Get(ctx context.Context, sessionID string) (*dto.SessionResponse, error) {
	sess, ok := s.Sessions.Get(sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s.toResponse(sess), nil
}

// Reset clears the session for a new visualization. In-flight runs become
// stale and are discarded when they finish.
func (s *visualizationService) Reset(ctx context.Context, sessionID string) (*dto.SessionResponse, error) {
	sess, ok := s.Sessions.Update(sessionID, func(sess *store.Session) bool {
		sess.Generation++
		sess.InputText = ""
		sess.Concepts = nil
		sess.Results = nil
		sess.FormattedHTML = ""
		sess.Status = store.StatusIdle
		return true
	})
	if !ok {
		return nil, ErrSessionNotFound
	}

	s.Observer.SessionReset(sessionID)
	s.Lifecycle.PublishSessionReset(ctx, sessionID)
	return s.toResponse(sess), nil
}

// RegenerateConcept renders one concept again, optionally with another
// model, and replaces its SVG.
func (s *visualizationService) RegenerateConcept(ctx context.Context, sessionID string, index int, req *dto.RegenerateConceptRequest) (*dto.VisualizationResult, error) {
	sess, ok := s.Sessions.Get(sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}
	if index < 0 || index >= len(sess.Results) {
		return nil, fmt.Errorf("%w: index %d", ErrConceptNotFound, index)
	}

	requested := req.Model
	if requested == "" {
		requested = sess.Model
	}
	model, renderer, err := s.renderer(requested)
	if err != nil {
		return nil, err
	}

	c := sess.Concepts[index]
	svg, err := renderer.Render(ctx, c.Title, c.Description)
	if err != nil {
		return nil, err
	}

	updated, ok := s.Sessions.Update(sessionID, func(cur *store.Session) bool {
		if cur.Generation != sess.Generation {
			return false
		}
		cur.Results[index].SVG = svg
		return true
	})
	if !ok {
		return nil, ErrSessionNotFound
	}
	if updated.Generation != sess.Generation {
		return nil, ErrSuperseded
	}

	s.Lifecycle.PublishConceptRegenerated(ctx, sessionID, index, model)
	res := toResult(updated.Results[index])
	return &res, nil
}

// RefreshFormatting formats the session's text again with its current
// concepts.
func (s *visualizationService) RefreshFormatting(ctx context.Context, sessionID string) (*dto.FormatResponse, error) {
	sess, ok := s.Sessions.Get(sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}

	html, err := s.Formatter.Format(ctx, sess.InputText, sess.Concepts)
	if err != nil {
		return nil, err
	}

	updated, ok := s.Sessions.Update(sessionID, func(cur *store.Session) bool {
		if cur.Generation != sess.Generation {
			return false
		}
		cur.FormattedHTML = html
		return true
	})
	if !ok {
		return nil, ErrSessionNotFound
	}
	if updated.Generation != sess.Generation {
		return nil, ErrSuperseded
	}
	return &dto.FormatResponse{FormattedHTML: html}, nil
}

func (s *visualizationService) Navigate(ctx context.Context, sessionID string, req *dto.NavigateRequest) (*conceptsync.Snapshot, error) {
	if _, ok := s.Sessions.Get(sessionID); !ok {
		return nil, ErrSessionNotFound
	}
	ev, err := conceptsync.NavigationEvent(req.Action, req.Index)
	if err != nil {
		return nil, err
	}
	snap, err := s.Observer.Navigate(ctx, sessionID, ev)
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

func (s *visualizationService) renderer(model string) (string, render.Renderer, error) {
	if model == "" {
		model = s.DefaultModel
	}
	r, ok := s.Renderers[model]
	if !ok {
		return "", nil, fmt.Errorf("%w: %q", ErrUnknownModel, model)
	}
	return model, r, nil
}

func (s *visualizationService) toResponse(sess *store.Session) *dto.SessionResponse {
	active, ok := s.Observer.Active(sess.ID)
	if !ok {
		active = conceptsync.Snapshot{Count: len(sess.Concepts)}
		if active.Count > 0 {
			active.State = conceptsync.StateTracking
		}
	}

	results := make([]dto.VisualizationResult, len(sess.Results))
	for i, r := range sess.Results {
		results[i] = toResult(r)
	}
	return &dto.SessionResponse{
		Id:            sess.ID,
		Status:        sess.Status,
		Model:         sess.Model,
		InputText:     sess.InputText,
		Concepts:      sess.Concepts,
		Results:       results,
		FormattedHTML: sess.FormattedHTML,
		Generation:    sess.Generation,
		Active:        active,
		UpdatedAt:     sess.UpdatedAt,
	}
}

func toResult(r store.VisualizationResult) dto.VisualizationResult {
	return dto.VisualizationResult{
		ConceptIndex:       r.ConceptIndex,
		ConceptTitle:       r.ConceptTitle,
		ConceptDescription: r.ConceptDescription,
		StartOffset:        r.StartOffset,
		EndOffset:          r.EndOffset,
		SVG:                r.SVG,
	}
}
