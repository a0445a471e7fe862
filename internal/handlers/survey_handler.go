package handlers

import (
	"context"
	"errors"
	"log"
	"strconv"
	"time"

	"survey-service/internal/middleware"
	"survey-service/internal/models"
	"survey-service/internal/services"

	"github.com/gofiber/fiber/v3"
)

type SurveyHandler struct {
	surveyService *services.SurveyService
}

func NewSurveyHandler(surveyService *services.SurveyService) *SurveyHandler {
	return &SurveyHandler{
		surveyService: surveyService,
	}
}

func (h *SurveyHandler) RegisterRoutes(app *fiber.App) {
	app.Get("/health", h.HealthCheck)

	// Protected routes group
	protectedGroup := app.Group("/protected/surveys", middleware.RequireUser())

	protectedGroup.Post("/", h.CreateSurvey)
	protectedGroup.Get("/", h.ListSurveys)
	protectedGroup.Get("/dashboard", h.GetDashboard)
	protectedGroup.Get("/:id", h.GetSurvey)
	protectedGroup.Put("/:id", h.UpdateSurvey)
	protectedGroup.Delete("/:id", h.DeleteSurvey)
	protectedGroup.Post("/:id/publish", h.PublishSurvey)
	protectedGroup.Post("/:id/close", h.CloseSurvey)
	protectedGroup.Post("/:id/pause", h.PauseSurvey)
	protectedGroup.Post("/:id/duplicate", h.DuplicateSurvey)
	protectedGroup.Get("/:id/responses", h.ListResponses)
}

func (h *SurveyHandler) HealthCheck(c fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":  "healthy",
		"service": "survey-service",
	})
}

func (h *SurveyHandler) CreateSurvey(c fiber.Ctx) error {
	var req models.CreateSurveyRequest

	if err := c.Bind().Body(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	creator := models.Creator{ID: middleware.UserID(c)}

	survey, err := h.surveyService.CreateSurvey(ctx, creator, &req)
	if err != nil {
		log.Printf("Failed to create survey: %v", err)

		if errors.Is(err, models.ErrValidation) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create survey",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Survey created successfully",
		"data": fiber.Map{
			"survey": survey,
		},
	})
}

func (h *SurveyHandler) ListSurveys(c fiber.Ctx) error {
	query := &models.SurveySearchQuery{
		OwnerID:  middleware.UserID(c),
		Status:   c.Query("status"),
		Category: c.Query("category"),
		Search:   c.Query("q"),
		SortBy:   c.Query("sortBy"),
		SortDir:  c.Query("sortDir"),
	}

	if page, err := strconv.Atoi(c.Query("page", "1")); err == nil && page > 0 {
		query.Page = page
	}
	if pageSize, err := strconv.Atoi(c.Query("pageSize", "15")); err == nil && pageSize > 0 {
		query.PageSize = pageSize
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	result, err := h.surveyService.ListSurveys(ctx, query)
	if err != nil {
		log.Printf("Failed to list surveys: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list surveys",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Surveys retrieved successfully",
		"data":    result,
	})
}

func (h *SurveyHandler) GetDashboard(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stats, err := h.surveyService.GetDashboardStats(ctx, middleware.UserID(c))
	if err != nil {
		log.Printf("Failed to get dashboard stats: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get dashboard stats",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Dashboard stats retrieved successfully",
		"data": fiber.Map{
			"stats": stats,
		},
	})
}

func (h *SurveyHandler) GetSurvey(c fiber.Ctx) error {
	surveyID := c.Params("id")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	survey, err := h.surveyService.GetSurvey(ctx, middleware.UserID(c), surveyID)
	if err != nil {
		log.Printf("Failed to get survey %s: %v", surveyID, err)

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

func (h *SurveyHandler) UpdateSurvey(c fiber.Ctx) error {
	surveyID := c.Params("id")

	var req models.UpdateSurveyRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	survey, err := h.surveyService.UpdateSurvey(ctx, middleware.UserID(c), surveyID, &req)
	if err != nil {
		log.Printf("Failed to update survey %s: %v", surveyID, err)

		if errors.Is(err, models.ErrSurveyNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Survey not found",
			})
		}

		if errors.Is(err, models.ErrValidation) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}

		if errors.Is(err, models.ErrPublishedWithResponses) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "Published survey with responses cannot be modified",
			})
		}

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update survey",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Survey updated successfully",
		"data": fiber.Map{
			"survey": survey,
		},
	})
}

func (h *SurveyHandler) DeleteSurvey(c fiber.Ctx) error {
	surveyID := c.Params("id")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := h.surveyService.DeleteSurvey(ctx, middleware.UserID(c), surveyID)
	if err != nil {
		log.Printf("Failed to delete survey %s: %v", surveyID, err)

		if errors.Is(err, models.ErrSurveyNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Survey not found",
			})
		}

		if errors.Is(err, models.ErrPublishedWithResponses) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "Published survey with responses cannot be deleted",
			})
		}

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete survey",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Survey deleted successfully",
	})
}

func (h *SurveyHandler) PublishSurvey(c fiber.Ctx) error {
	surveyID := c.Params("id")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	survey, err := h.surveyService.PublishSurvey(ctx, middleware.UserID(c), surveyID)
	if err != nil {
		log.Printf("Failed to publish survey %s: %v", surveyID, err)

		if errors.Is(err, models.ErrSurveyNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Survey not found",
			})
		}

		if errors.Is(err, models.ErrAlreadyPublished) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "Survey is already published",
			})
		}

		if errors.Is(err, models.ErrAlreadyClosed) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "Closed survey cannot be published",
			})
		}

		if errors.Is(err, models.ErrEmptyQuestions) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Survey has no questions",
			})
		}

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to publish survey",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Survey published successfully",
		"data": fiber.Map{
			"survey": survey,
		},
	})
}

func (h *SurveyHandler) CloseSurvey(c fiber.Ctx) error {
	surveyID := c.Params("id")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	survey, err := h.surveyService.CloseSurvey(ctx, middleware.UserID(c), surveyID)
	if err != nil {
		log.Printf("Failed to close survey %s: %v", surveyID, err)

		if errors.Is(err, models.ErrSurveyNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Survey not found",
			})
		}

		if errors.Is(err, models.ErrAlreadyClosed) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "Survey is already closed",
			})
		}

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to close survey",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Survey closed successfully",
		"data": fiber.Map{
			"survey": survey,
		},
	})
}

func (h *SurveyHandler) PauseSurvey(c fiber.Ctx) error {
	surveyID := c.Params("id")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	survey, err := h.surveyService.PauseSurvey(ctx, middleware.UserID(c), surveyID)
	if err != nil {
		log.Printf("Failed to pause survey %s: %v", surveyID, err)

		if errors.Is(err, models.ErrSurveyNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Survey not found",
			})
		}

		if errors.Is(err, models.ErrAlreadyClosed) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "Closed survey cannot be paused",
			})
		}

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to pause survey",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Survey paused successfully",
		"data": fiber.Map{
			"survey": survey,
		},
	})
}

func (h *SurveyHandler) DuplicateSurvey(c fiber.Ctx) error {
	surveyID := c.Params("id")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	survey, err := h.surveyService.DuplicateSurvey(ctx, middleware.UserID(c), surveyID)
	if err != nil {
		log.Printf("Failed to duplicate survey %s: %v", surveyID, err)

		if errors.Is(err, models.ErrSurveyNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Survey not found",
			})
		}

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to duplicate survey",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Survey duplicated successfully",
		"data": fiber.Map{
			"survey": survey,
		},
	})
}

func (h *SurveyHandler) ListResponses(c fiber.Ctx) error {
	surveyID := c.Params("id")

	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("pageSize", "15"))

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	result, err := h.surveyService.ListResponses(ctx, middleware.UserID(c), surveyID, page, limit)
	if err != nil {
		log.Printf("Failed to list responses for survey %s: %v", surveyID, err)

		if errors.Is(err, models.ErrSurveyNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Survey not found",
			})
		}

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list responses",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Responses retrieved successfully",
		"data":    result,
	})
}
