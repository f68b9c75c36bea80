package controller

import (
	"concept-visualizer-be/internal/dto"
	"concept-visualizer-be/internal/pkg/serverutils"
	"concept-visualizer-be/internal/service"
	"concept-visualizer-be/pkg/document"

	"github.com/gofiber/fiber/v2"
)

type IDocumentController interface {
	RegisterRoutes(r fiber.Router)
	FromURL(ctx *fiber.Ctx) error
	FromPDF(ctx *fiber.Ctx) error
}

type documentController struct {
	service service.IDocumentService
}

func NewDocumentController(service service.IDocumentService) IDocumentController {
	return &documentController{service: service}
}

func (c *documentController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/document/v1")
	h.Post("url", c.FromURL)
	h.Post("pdf", c.FromPDF)
}

func (c *documentController) FromURL(ctx *fiber.Ctx) error {
	var req dto.ScrapeURLRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid request body"))
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.FromURL(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Text extracted from url", res))
}

func (c *documentController) FromPDF(ctx *fiber.Ctx) error {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "File is required"))
	}
	if fileHeader.Size > document.MaxPDFBytes {
		return ctx.Status(fiber.StatusRequestEntityTooLarge).JSON(serverutils.ErrorResponse(413, "File too large"))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return err
	}
	defer file.Close()

	res, err := c.service.FromPDF(ctx.Context(), fileHeader.Filename, file)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Text extracted from pdf", res))
}
