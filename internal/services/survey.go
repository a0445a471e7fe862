package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"survey-service/internal/config"
	"survey-service/internal/event"
	"survey-service/internal/models"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

var validQuestionTypes = map[models.QuestionType]bool{
	models.QuestionTypeNPS:            true,
	models.QuestionTypeRating:         true,
	models.QuestionTypeMultipleChoice: true,
	models.QuestionTypeText:           true,
	models.QuestionTypeScale:          true,
	models.QuestionTypeSlider:         true,
	models.QuestionTypeYesNo:          true,
	models.QuestionTypeMatrix:         true,
}

type SurveyService struct {
	surveys   SurveyStore
	responses ResponseStore
	analytics *AnalyticsService
	publisher event.Publisher

	frontendBase    string
	defaultPageSize int
	maxPageSize     int

	now func() int64
}

func NewSurveyService(surveys SurveyStore, responses ResponseStore, analytics *AnalyticsService, publisher event.Publisher, surveyConfig config.SurveyConfig) *SurveyService {
	return &SurveyService{
		surveys:         surveys,
		responses:       responses,
		analytics:       analytics,
		publisher:       publisher,
		frontendBase:    surveyConfig.FrontendBaseURL,
		defaultPageSize: surveyConfig.DefaultPageSize,
		maxPageSize:     surveyConfig.MaxPageSize,
		now:             func() int64 { return time.Now().Unix() },
	}
}

func (s *SurveyService) CreateSurvey(ctx context.Context, creator models.Creator, req *models.CreateSurveyRequest) (*models.SurveyDetail, error) {
	if req.Title == "" {
		return nil, fmt.Errorf("%w: title is required", models.ErrValidation)
	}
	if len(req.Questions) == 0 {
		return nil, fmt.Errorf("%w: at least one question is required", models.ErrValidation)
	}
	if err := validateQuestions(req.Questions); err != nil {
		return nil, err
	}

	settings := models.DefaultSettings()
	if req.Settings != nil {
		settings = *req.Settings
	}

	survey := &models.Survey{
		Title:         req.Title,
		Description:   req.Description,
		Category:      req.Category,
		EstimatedTime: req.EstimatedTime,
		Questions:     req.Questions,
		Settings:      settings,
		Status:        models.SurveyStatusDraft,
		CreatedBy:     creator.ID,
		Creator:       creator,
	}

	created, err := s.surveys.Insert(ctx, survey)
	if err != nil {
		return nil, fmt.Errorf("failed to create survey: %w", err)
	}

	s.publishSurveyEvent(event.EventTypeSurveyCreated, created, nil)

	return created.Detail(s.frontendBase), nil
}

func (s *SurveyService) GetSurvey(ctx context.Context, userID, surveyID string) (*models.SurveyDetail, error) {
	survey, err := s.findOwned(ctx, userID, surveyID)
	if err != nil {
		return nil, err
	}

	if err := s.attachAnalytics(ctx, survey); err != nil {
		return nil, err
	}
	return survey.Detail(s.frontendBase), nil
}

func (s *SurveyService) ListSurveys(ctx context.Context, query *models.SurveySearchQuery) (*models.SurveySearchResult, error) {
	if query.Page < 1 {
		query.Page = 1
	}
	if query.PageSize < 1 {
		query.PageSize = s.defaultPageSize
	}
	if query.PageSize > s.maxPageSize {
		query.PageSize = s.maxPageSize
	}

	surveys, totalCount, err := s.surveys.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list surveys: %w", err)
	}

	summaries := make([]*models.SurveySummary, 0, len(surveys))
	for _, survey := range surveys {
		if err := s.attachAnalytics(ctx, survey); err != nil {
			return nil, err
		}
		summaries = append(summaries, survey.Summary(s.frontendBase))
	}

	pageCount := int((totalCount + int64(query.PageSize) - 1) / int64(query.PageSize))

	return &models.SurveySearchResult{
		Surveys:     summaries,
		TotalCount:  totalCount,
		PageCount:   pageCount,
		CurrentPage: query.Page,
	}, nil
}

func (s *SurveyService) UpdateSurvey(ctx context.Context, userID, surveyID string, req *models.UpdateSurveyRequest) (*models.SurveyDetail, error) {
	s.surveys.Lock()
	defer s.surveys.Unlock()

	survey, err := s.findOwned(ctx, userID, surveyID)
	if err != nil {
		return nil, err
	}

	if err := s.checkMutable(ctx, survey); err != nil {
		return nil, err
	}

	changedFields, oldValues, newValues, err := applyUpdate(survey, req)
	if err != nil {
		return nil, err
	}
	if len(changedFields) == 0 {
		if err := s.attachAnalytics(ctx, survey); err != nil {
			return nil, err
		}
		return survey.Detail(s.frontendBase), nil
	}

	updated, err := s.surveys.Replace(ctx, survey)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.ErrSurveyNotFound
		}
		return nil, fmt.Errorf("failed to update survey: %w", err)
	}

	publishErr := s.publisher.PublishSurveyEvent(&event.SurveyEvent{
		EventType:     event.EventTypeSurveyUpdated,
		SurveyID:      updated.ID.Hex(),
		UserID:        updated.CreatedBy,
		Status:        updated.Status,
		Timestamp:     s.now(),
		ChangedFields: changedFields,
		OldValues:     oldValues,
		NewValues:     newValues,
	})
	if publishErr != nil {
		log.Printf("Failed to publish %s event for survey %s: %v", event.EventTypeSurveyUpdated, updated.ID.Hex(), publishErr)
	}

	if err := s.attachAnalytics(ctx, updated); err != nil {
		return nil, err
	}
	return updated.Detail(s.frontendBase), nil
}

func (s *SurveyService) DeleteSurvey(ctx context.Context, userID, surveyID string) error {
	s.surveys.Lock()
	defer s.surveys.Unlock()

	survey, err := s.findOwned(ctx, userID, surveyID)
	if err != nil {
		return err
	}

	if err := s.checkMutable(ctx, survey); err != nil {
		return err
	}

	if err := s.surveys.SoftDelete(ctx, survey.ID, userID); err != nil {
		if err == mongo.ErrNoDocuments {
			return models.ErrSurveyNotFound
		}
		return fmt.Errorf("failed to delete survey: %w", err)
	}

	s.analytics.Invalidate(ctx, survey.ID)
	s.publishSurveyEvent(event.EventTypeSurveyDeleted, survey, nil)
	return nil
}

// PublishSurvey moves a draft or paused survey to published. The first
// publish stamps publishedAt; later publishes from paused keep the original
// timestamp.
func (s *SurveyService) PublishSurvey(ctx context.Context, userID, surveyID string) (*models.SurveyDetail, error) {
	return s.transition(ctx, userID, surveyID, func(survey *models.Survey) (string, error) {
		if survey.Status == models.SurveyStatusPublished {
			return "", models.ErrAlreadyPublished
		}
		if survey.Status == models.SurveyStatusClosed {
			return "", models.ErrAlreadyClosed
		}
		if len(survey.Questions) == 0 {
			return "", models.ErrEmptyQuestions
		}

		survey.Status = models.SurveyStatusPublished
		if survey.PublishedAt == 0 {
			survey.PublishedAt = s.now()
		}
		return event.EventTypeSurveyPublished, nil
	})
}

func (s *SurveyService) CloseSurvey(ctx context.Context, userID, surveyID string) (*models.SurveyDetail, error) {
	return s.transition(ctx, userID, surveyID, func(survey *models.Survey) (string, error) {
		if survey.Status == models.SurveyStatusClosed {
			return "", models.ErrAlreadyClosed
		}
		survey.Status = models.SurveyStatusClosed
		return event.EventTypeSurveyClosed, nil
	})
}

func (s *SurveyService) PauseSurvey(ctx context.Context, userID, surveyID string) (*models.SurveyDetail, error) {
	return s.transition(ctx, userID, surveyID, func(survey *models.Survey) (string, error) {
		// Closed is terminal; pausing it would open a reopen path through
		// publish.
		if survey.Status == models.SurveyStatusClosed {
			return "", models.ErrAlreadyClosed
		}
		survey.Status = models.SurveyStatusPaused
		return event.EventTypeSurveyPaused, nil
	})
}

// DuplicateSurvey deep-copies a survey into a fresh draft with no responses
// and a reset analytics seed.
func (s *SurveyService) DuplicateSurvey(ctx context.Context, userID, surveyID string) (*models.SurveyDetail, error) {
	source, err := s.findOwned(ctx, userID, surveyID)
	if err != nil {
		return nil, err
	}

	copySurvey := &models.Survey{
		Title:         source.Title + " (Copy)",
		Description:   source.Description,
		Category:      source.Category,
		EstimatedTime: source.EstimatedTime,
		Questions:     copyQuestions(source.Questions),
		Settings:      source.Settings,
		Status:        models.SurveyStatusDraft,
		CreatedBy:     source.CreatedBy,
		Creator:       source.Creator,
	}

	created, err := s.surveys.Insert(ctx, copySurvey)
	if err != nil {
		return nil, fmt.Errorf("failed to duplicate survey: %w", err)
	}

	s.publishSurveyEvent(event.EventTypeSurveyDuplicated, created, nil)

	return created.Detail(s.frontendBase), nil
}

func (s *SurveyService) GetDashboardStats(ctx context.Context, userID string) (*models.DashboardStats, error) {
	counts, err := s.surveys.StatusCounts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get dashboard stats: %w", err)
	}

	ids, err := s.surveys.IDsByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get dashboard stats: %w", err)
	}

	totalResponses, err := s.responses.CountBySurveys(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get dashboard stats: %w", err)
	}

	stats := &models.DashboardStats{
		DraftSurveys:     counts[models.SurveyStatusDraft],
		PublishedSurveys: counts[models.SurveyStatusPublished],
		PausedSurveys:    counts[models.SurveyStatusPaused],
		ClosedSurveys:    counts[models.SurveyStatusClosed],
		TotalResponses:   totalResponses,
	}
	stats.TotalSurveys = stats.DraftSurveys + stats.PublishedSurveys + stats.PausedSurveys + stats.ClosedSurveys

	return stats, nil
}

// ListResponses returns a page of raw responses for a survey the caller owns.
func (s *SurveyService) ListResponses(ctx context.Context, userID, surveyID string, page, limit int) (*models.ResponseSearchResult, error) {
	survey, err := s.findOwned(ctx, userID, surveyID)
	if err != nil {
		return nil, err
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = s.defaultPageSize
	}
	if limit > s.maxPageSize {
		limit = s.maxPageSize
	}

	responses, totalCount, err := s.responses.FindBySurvey(ctx, survey.ID, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list responses: %w", err)
	}

	pageCount := int((totalCount + int64(limit) - 1) / int64(limit))

	return &models.ResponseSearchResult{
		Responses:   responses,
		TotalCount:  totalCount,
		PageCount:   pageCount,
		CurrentPage: page,
	}, nil
}

// GetPublicSurvey is the respondent-facing read: only published surveys are
// visible, and the view carries no analytics or creator contact details.
func (s *SurveyService) GetPublicSurvey(ctx context.Context, surveyID string) (*models.PublicSurvey, error) {
	objectID, err := bson.ObjectIDFromHex(surveyID)
	if err != nil {
		return nil, models.ErrSurveyNotFound
	}

	survey, err := s.surveys.FindPublishedByID(ctx, objectID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.ErrSurveyNotFound
		}
		return nil, fmt.Errorf("failed to get survey: %w", err)
	}

	return survey.Public(), nil
}

func (s *SurveyService) transition(ctx context.Context, userID, surveyID string, apply func(*models.Survey) (string, error)) (*models.SurveyDetail, error) {
	s.surveys.Lock()
	defer s.surveys.Unlock()

	survey, err := s.findOwned(ctx, userID, surveyID)
	if err != nil {
		return nil, err
	}

	eventType, err := apply(survey)
	if err != nil {
		return nil, err
	}

	updated, err := s.surveys.Replace(ctx, survey)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.ErrSurveyNotFound
		}
		return nil, fmt.Errorf("failed to update survey status: %w", err)
	}

	s.publishSurveyEvent(eventType, updated, []string{"status"})

	if err := s.attachAnalytics(ctx, updated); err != nil {
		return nil, err
	}
	return updated.Detail(s.frontendBase), nil
}

// findOwned resolves an id string to a live survey owned by userID. A
// malformed id, a missing survey, and someone else's survey are
// indistinguishable to the caller.
func (s *SurveyService) findOwned(ctx context.Context, userID, surveyID string) (*models.Survey, error) {
	objectID, err := bson.ObjectIDFromHex(surveyID)
	if err != nil {
		return nil, models.ErrSurveyNotFound
	}

	survey, err := s.surveys.FindByIDAndOwner(ctx, objectID, userID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.ErrSurveyNotFound
		}
		return nil, fmt.Errorf("failed to get survey: %w", err)
	}
	return survey, nil
}

// checkMutable enforces the mutation guard: a published survey that has
// collected responses can no longer be edited or deleted. Callers must hold
// the survey lock.
func (s *SurveyService) checkMutable(ctx context.Context, survey *models.Survey) error {
	if survey.Status != models.SurveyStatusPublished {
		return nil
	}

	count, err := s.responses.CountBySurvey(ctx, survey.ID)
	if err != nil {
		return fmt.Errorf("failed to count responses: %w", err)
	}
	if count > 0 {
		return models.ErrPublishedWithResponses
	}
	return nil
}

func (s *SurveyService) attachAnalytics(ctx context.Context, survey *models.Survey) error {
	analytics, err := s.analytics.ForSurvey(ctx, survey.ID)
	if err != nil {
		return err
	}
	survey.Analytics = *analytics
	return nil
}

func (s *SurveyService) publishSurveyEvent(eventType string, survey *models.Survey, changedFields []string) {
	err := s.publisher.PublishSurveyEvent(&event.SurveyEvent{
		EventType:     eventType,
		SurveyID:      survey.ID.Hex(),
		UserID:        survey.CreatedBy,
		Status:        survey.Status,
		Timestamp:     s.now(),
		ChangedFields: changedFields,
	})
	if err != nil {
		log.Printf("Failed to publish %s event for survey %s: %v", eventType, survey.ID.Hex(), err)
	}
}

func applyUpdate(survey *models.Survey, req *models.UpdateSurveyRequest) ([]string, map[string]any, map[string]any, error) {
	var changed []string
	oldValues := make(map[string]any)
	newValues := make(map[string]any)

	record := func(field string, oldValue, newValue any) {
		changed = append(changed, field)
		oldValues[field] = oldValue
		newValues[field] = newValue
	}

	if req.Title != nil {
		if *req.Title == "" {
			return nil, nil, nil, fmt.Errorf("%w: title cannot be empty", models.ErrValidation)
		}
		record("title", survey.Title, *req.Title)
		survey.Title = *req.Title
	}
	if req.Description != nil {
		record("description", survey.Description, *req.Description)
		survey.Description = *req.Description
	}
	if req.Category != nil {
		record("category", survey.Category, *req.Category)
		survey.Category = *req.Category
	}
	if req.EstimatedTime != nil {
		record("estimatedTime", survey.EstimatedTime, *req.EstimatedTime)
		survey.EstimatedTime = *req.EstimatedTime
	}
	if req.Questions != nil {
		if len(*req.Questions) == 0 {
			return nil, nil, nil, fmt.Errorf("%w: questions cannot be empty", models.ErrValidation)
		}
		if err := validateQuestions(*req.Questions); err != nil {
			return nil, nil, nil, err
		}
		record("questions", survey.Questions, *req.Questions)
		survey.Questions = *req.Questions
	}
	if req.Settings != nil {
		record("settings", survey.Settings, *req.Settings)
		survey.Settings = *req.Settings
	}

	return changed, oldValues, newValues, nil
}

func validateQuestions(questions []models.Question) error {
	for i, question := range questions {
		if question.ID == "" {
			return fmt.Errorf("%w: question %d has no id", models.ErrValidation, i)
		}
		if question.Question == "" {
			return fmt.Errorf("%w: question %q has no text", models.ErrValidation, question.ID)
		}
		if !validQuestionTypes[question.Type] {
			return fmt.Errorf("%w: question %q has unknown type %q", models.ErrValidation, question.ID, question.Type)
		}
		if question.Type == models.QuestionTypeMultipleChoice && len(question.Options) == 0 {
			return fmt.Errorf("%w: question %q needs options", models.ErrValidation, question.ID)
		}
	}
	return nil
}

func copyQuestions(questions []models.Question) []models.Question {
	copied := make([]models.Question, len(questions))
	for i, question := range questions {
		copied[i] = question
		if question.Options != nil {
			copied[i].Options = append([]string(nil), question.Options...)
		}
	}
	return copied
}
