package serverutils

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Text  string `json:"text" validate:"required"`
	Model string `json:"model" validate:"omitempty,oneof=gemini openai"`
}

func TestValidateRequest(t *testing.T) {
	assert.NoError(t, ValidateRequest(sampleRequest{Text: "x"}))
	assert.NoError(t, ValidateRequest(sampleRequest{Text: "x", Model: "openai"}))

	err := ValidateRequest(sampleRequest{Model: "claude"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "is required", verr.Fields["Text"])
	assert.Equal(t, "must be one of [gemini openai]", verr.Fields["Model"])
}

var (
	errDomain  = errors.New("domain failure")
	errMissing = errors.New("missing")
)

func TestErrorHandlerMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(ErrorHandlerMiddleware(func(err error) (int, bool) {
		switch {
		case errors.Is(err, errDomain):
			return fiber.StatusConflict, true
		case errors.Is(err, errMissing):
			return fiber.StatusNotFound, true
		}
		return 0, false
	}))
	app.Get("/ok", func(c *fiber.Ctx) error {
		return c.JSON(SuccessResponse("fine", 1))
	})
	app.Get("/validation", func(c *fiber.Ctx) error {
		return ValidateRequest(sampleRequest{})
	})
	app.Get("/missing", func(c *fiber.Ctx) error {
		return fmt.Errorf("session abc: %w", errMissing)
	})
	app.Get("/fiber", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusRequestEntityTooLarge, "too big")
	})
	app.Get("/domain", func(c *fiber.Ctx) error {
		return fmt.Errorf("wrapped: %w", errDomain)
	})
	app.Get("/boom", func(c *fiber.Ctx) error {
		return errors.New("boom")
	})

	tests := []struct {
		path    string
		code    int
		success bool
	}{
		{"/ok", 200, true},
		{"/validation", 400, false},
		{"/missing", 404, false},
		{"/fiber", 413, false},
		{"/domain", 409, false},
		{"/boom", 500, false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest("GET", tt.path, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.code, resp.StatusCode)

			body, _ := io.ReadAll(resp.Body)
			var res BaseResponse[any]
			require.NoError(t, json.Unmarshal(body, &res))
			assert.Equal(t, tt.success, res.Success)
			assert.Equal(t, tt.code, res.Code)
		})
	}
}
