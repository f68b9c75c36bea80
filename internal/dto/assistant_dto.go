package dto

import "concept-visualizer-be/pkg/chatbot"

type AskQuestionRequest struct {
	Question  string                 `json:"question" validate:"required,max=4000"`
	SessionId string                 `json:"session_id"`
	Context   string                 `json:"context"`
	History   []*chatbot.ChatHistory `json:"history" validate:"max=50"`
}

type AskQuestionResponse struct {
	Answer string `json:"answer"`
}
