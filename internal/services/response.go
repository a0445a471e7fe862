package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"survey-service/internal/event"
	"survey-service/internal/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// ResponseService handles response intake from both the public HTTP endpoint
// and the bus consumer. Responses are accepted only while the survey is
// published.
type ResponseService struct {
	surveys   SurveyStore
	responses ResponseStore
	analytics *AnalyticsService
	publisher event.Publisher

	newSessionID func() string
	now          func() int64
}

func NewResponseService(surveys SurveyStore, responses ResponseStore, analytics *AnalyticsService, publisher event.Publisher) *ResponseService {
	return &ResponseService{
		surveys:      surveys,
		responses:    responses,
		analytics:    analytics,
		publisher:    publisher,
		newSessionID: uuid.NewString,
		now:          func() int64 { return time.Now().Unix() },
	}
}

func (s *ResponseService) SubmitResponse(ctx context.Context, surveyID string, req *models.SubmitResponseRequest) (*models.SurveyResponse, error) {
	objectID, err := bson.ObjectIDFromHex(surveyID)
	if err != nil {
		return nil, models.ErrSurveyNotFound
	}
	return s.submit(ctx, objectID, req)
}

// HandleIngestedResponse is the bus-side entry point. Ingested responses go
// through the same acceptance and validation rules as HTTP submissions.
func (s *ResponseService) HandleIngestedResponse(ctx context.Context, surveyID bson.ObjectID, req *models.SubmitResponseRequest) error {
	_, err := s.submit(ctx, surveyID, req)
	return err
}

func (s *ResponseService) submit(ctx context.Context, surveyID bson.ObjectID, req *models.SubmitResponseRequest) (*models.SurveyResponse, error) {
	created, err := s.acceptResponse(ctx, surveyID, req)
	if err != nil {
		return nil, err
	}

	s.analytics.Invalidate(ctx, surveyID)

	err = s.publisher.PublishResponseEvent(&event.ResponseEvent{
		EventType:  event.EventTypeResponseSubmitted,
		ResponseID: created.ID.Hex(),
		SurveyID:   surveyID.Hex(),
		UserID:     created.UserID,
		SessionID:  created.SessionID,
		Timestamp:  s.now(),
	})
	if err != nil {
		log.Printf("Failed to publish response event for survey %s: %v", surveyID.Hex(), err)
	}

	return created, nil
}

// acceptResponse runs the acceptance checks and the insert under the survey
// lock, so intake cannot interleave with the mutation guard's
// status+responseCount read and the write it protects.
func (s *ResponseService) acceptResponse(ctx context.Context, surveyID bson.ObjectID, req *models.SubmitResponseRequest) (*models.SurveyResponse, error) {
	s.surveys.Lock()
	defer s.surveys.Unlock()

	survey, err := s.surveys.FindLiveByID(ctx, surveyID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.ErrSurveyNotFound
		}
		return nil, fmt.Errorf("failed to get survey: %w", err)
	}

	if survey.Status != models.SurveyStatusPublished {
		return nil, models.ErrSurveyNotAcceptingResponses
	}

	if err := validateSubmission(req); err != nil {
		return nil, err
	}

	if survey.Settings.OneResponsePerPerson && req.UserID != "" {
		exists, err := s.responses.HasResponseFromUser(ctx, surveyID, req.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to check existing response: %w", err)
		}
		if exists {
			return nil, models.ErrDuplicateResponse
		}
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = s.newSessionID()
	}

	response := &models.SurveyResponse{
		SurveyID:       surveyID,
		UserID:         req.UserID,
		SessionID:      sessionID,
		Answers:        req.Answers,
		NPSScore:       req.NPSScore,
		Sentiment:      req.Sentiment,
		CompletionTime: req.CompletionTime,
		Metadata:       req.Metadata,
	}

	created, err := s.responses.Insert(ctx, response)
	if err != nil {
		return nil, fmt.Errorf("failed to save response: %w", err)
	}

	return created, nil
}

func validateSubmission(req *models.SubmitResponseRequest) error {
	if len(req.Answers) == 0 {
		return fmt.Errorf("%w: responses are required", models.ErrValidation)
	}
	if req.NPSScore != nil && (*req.NPSScore < 0 || *req.NPSScore > 10) {
		return fmt.Errorf("%w: npsScore must be between 0 and 10", models.ErrValidation)
	}
	if req.CompletionTime != nil && *req.CompletionTime < 0 {
		return fmt.Errorf("%w: completionTime cannot be negative", models.ErrValidation)
	}
	switch req.Sentiment {
	case "", models.SentimentPositive, models.SentimentNeutral, models.SentimentNegative:
	default:
		return fmt.Errorf("%w: unknown sentiment %q", models.ErrValidation, req.Sentiment)
	}
	return nil
}
