package controller

import (
	"concept-visualizer-be/internal/dto"
	"concept-visualizer-be/internal/pkg/serverutils"
	"concept-visualizer-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IVisualizationController interface {
	RegisterRoutes(r fiber.Router)
	Create(ctx *fiber.Ctx) error
	Visualize(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Reset(ctx *fiber.Ctx) error
	RegenerateConcept(ctx *fiber.Ctx) error
	RefreshFormatting(ctx *fiber.Ctx) error
	Navigate(ctx *fiber.Ctx) error
}

type visualizationController struct {
	service service.IVisualizationService
}

func NewVisualizationController(service service.IVisualizationService) IVisualizationController {
	return &visualizationController{service: service}
}

func (c *visualizationController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/visualization/v1")
	h.Post("", c.Create)
	h.Get(":id", c.Show)
	h.Post(":id/visualize", c.Visualize)
	h.Post(":id/reset", c.Reset)
	h.Post(":id/format", c.RefreshFormatting)
	h.Post(":id/navigate", c.Navigate)
	h.Post(":id/concepts/:index/regenerate", c.RegenerateConcept)
}

func (c *visualizationController) Create(ctx *fiber.Ctx) error {
	var req dto.VisualizeRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid request body"))
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Create(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Visualization created", res))
}

func (c *visualizationController) Visualize(ctx *fiber.Ctx) error {
	var req dto.VisualizeRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid request body"))
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Visualize(ctx.Context(), ctx.Params("id"), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Visualization updated", res))
}

func (c *visualizationController) Show(ctx *fiber.Ctx) error {
	res, err := c.service.Get(ctx.Context(), ctx.Params("id"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show visualization", res))
}

func (c *visualizationController) Reset(ctx *fiber.Ctx) error {
	res, err := c.service.Reset(ctx.Context(), ctx.Params("id"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Visualization reset", res))
}

func (c *visualizationController) RegenerateConcept(ctx *fiber.Ctx) error {
	index, err := ctx.ParamsInt("index")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid concept index"))
	}

	var req dto.RegenerateConceptRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid request body"))
		}
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.RegenerateConcept(ctx.Context(), ctx.Params("id"), index, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Concept regenerated", res))
}

func (c *visualizationController) RefreshFormatting(ctx *fiber.Ctx) error {
	res, err := c.service.RefreshFormatting(ctx.Context(), ctx.Params("id"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Formatting refreshed", res))
}

func (c *visualizationController) Navigate(ctx *fiber.Ctx) error {
	var req dto.NavigateRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid request body"))
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Navigate(ctx.Context(), ctx.Params("id"), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Active concept updated", res))
}
