package handlers

import (
	"context"
	"errors"
	"log"
	"time"

	"survey-service/internal/models"
	"survey-service/internal/services"

	"github.com/gofiber/fiber/v3"
)

// ResponseHandler serves the public, unauthenticated surface: the respondent
// view of a published survey and response submission.
type ResponseHandler struct {
	surveyService   *services.SurveyService
	responseService *services.ResponseService
}

func NewResponseHandler(surveyService *services.SurveyService, responseService *services.ResponseService) *ResponseHandler {
	return &ResponseHandler{
		surveyService:   surveyService,
		responseService: responseService,
	}
}

func (h *ResponseHandler) RegisterRoutes(app *fiber.App) {
	publicGroup := app.Group("/public/surveys")

	publicGroup.Get("/:id", h.GetPublicSurvey)
	publicGroup.Post("/:id/responses", h.SubmitResponse)
}

func (h *ResponseHandler) GetPublicSurvey(c fiber.Ctx) error {
	surveyID := c.Params("id")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	survey, err := h.surveyService.GetPublicSurvey(ctx, surveyID)
	if err != nil {
		log.Printf("Failed to get public survey %s: %v", surveyID, err)

		if errors.Is(err, models.ErrSurveyNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Survey not found",
			})
		}

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get survey",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Survey retrieved successfully",
		"data": fiber.Map{
			"survey": survey,
		},
	})
}

func (h *ResponseHandler) SubmitResponse(c fiber.Ctx) error {
	surveyID := c.Params("id")

	var req models.SubmitResponseRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	response, err := h.responseService.SubmitResponse(ctx, surveyID, &req)
	if err != nil {
		log.Printf("Failed to submit response for survey %s: %v", surveyID, err)

		if errors.Is(err, models.ErrSurveyNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Survey not found",
			})
		}

		if errors.Is(err, models.ErrSurveyNotAcceptingResponses) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Survey is not accepting responses",
			})
		}

		if errors.Is(err, models.ErrValidation) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}

		if errors.Is(err, models.ErrDuplicateResponse) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "A response from this user already exists",
			})
		}

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to submit response",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Response submitted successfully",
		"data": fiber.Map{
			"responseId": response.ID.Hex(),
			"sessionId":  response.SessionID,
		},
	})
}
