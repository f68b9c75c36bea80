package controller

import (
	"errors"

	"concept-visualizer-be/internal/service"
	"concept-visualizer-be/pkg/concept"
	"concept-visualizer-be/pkg/conceptsync"
	"concept-visualizer-be/pkg/document"
	"concept-visualizer-be/pkg/render"

	"github.com/gofiber/fiber/v2"
)

// ErrorStatus classifies domain errors for serverutils.ErrorHandlerMiddleware.
func ErrorStatus(err error) (int, bool) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrConceptNotFound):
		return fiber.StatusNotFound, true

	case errors.Is(err, service.ErrUnknownModel),
		errors.Is(err, conceptsync.ErrUnknownAction),
		errors.Is(err, document.ErrInvalidURL),
		errors.Is(err, service.ErrNoContext):
		return fiber.StatusBadRequest, true

	case errors.Is(err, service.ErrSuperseded):
		return fiber.StatusConflict, true

	case errors.Is(err, concept.ErrExtraction),
		errors.Is(err, service.ErrNoVisualizations),
		errors.Is(err, render.ErrRender),
		errors.Is(err, document.ErrPDFURL),
		errors.Is(err, document.ErrContentTooShort),
		errors.Is(err, document.ErrInvalidPDF),
		errors.Is(err, document.ErrNoPDFContent):
		return fiber.StatusUnprocessableEntity, true

	case errors.Is(err, document.ErrFetch):
		return fiber.StatusBadGateway, true
	}
	return 0, false
}
