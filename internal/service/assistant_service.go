package service

import (
	"context"
	"errors"
	"strings"

	"concept-visualizer-be/internal/dto"
	"concept-visualizer-be/internal/pkg/logger"
	"concept-visualizer-be/internal/repository/memory"
	"concept-visualizer-be/pkg/chatbot"
)

var ErrNoContext = errors.New("no text to answer from: provide context or a visualized session")

type IAssistantService interface {
	Ask(ctx context.Context, req *dto.AskQuestionRequest) (*dto.AskQuestionResponse, error)
}

type assistantService struct {
	assistant chatbot.Assistant
	sessions  *memory.SessionRepository
	logger    logger.ILogger
}

func NewAssistantService(assistant chatbot.Assistant, sessions *memory.SessionRepository, log logger.ILogger) IAssistantService {
	return &assistantService{assistant: assistant, sessions: sessions, logger: log}
}

// Ask answers from the request's context, or from the session's input text
// when no context is given.
func (s *assistantService) Ask(ctx context.Context, req *dto.AskQuestionRequest) (*dto.AskQuestionResponse, error) {
	textContext := strings.TrimSpace(req.Context)
	if textContext == "" && req.SessionId != "" {
		sess, ok := s.sessions.Get(req.SessionId)
		if !ok {
			return nil, ErrSessionNotFound
		}
		textContext = sess.InputText
	}
	if textContext == "" {
		return nil, ErrNoContext
	}

	answer, err := s.assistant.Answer(ctx, req.Question, textContext, req.History)
	if err != nil {
		s.logger.Error("AssistantService", "Failed to answer question", map[string]interface{}{
			"session_id": req.SessionId,
			"error":      err.Error(),
		})
		return nil, err
	}
	return &dto.AskQuestionResponse{Answer: answer}, nil
}
