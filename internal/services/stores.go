package services

import (
	"context"

	"survey-service/internal/models"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// SurveyStore is the persistence surface the services need from the survey
// repository. Lock/Unlock serialize guard-protected mutations within this
// instance.
type SurveyStore interface {
	Lock()
	Unlock()
	Insert(ctx context.Context, survey *models.Survey) (*models.Survey, error)
	FindByIDAndOwner(ctx context.Context, id bson.ObjectID, ownerID string) (*models.Survey, error)
	FindLiveByID(ctx context.Context, id bson.ObjectID) (*models.Survey, error)
	FindPublishedByID(ctx context.Context, id bson.ObjectID) (*models.Survey, error)
	Replace(ctx context.Context, survey *models.Survey) (*models.Survey, error)
	SoftDelete(ctx context.Context, id bson.ObjectID, ownerID string) error
	Search(ctx context.Context, query *models.SurveySearchQuery) ([]*models.Survey, int64, error)
	StatusCounts(ctx context.Context, ownerID string) (map[models.SurveyStatus]int64, error)
	IDsByOwner(ctx context.Context, ownerID string) ([]bson.ObjectID, error)
}

type ResponseStore interface {
	Insert(ctx context.Context, response *models.SurveyResponse) (*models.SurveyResponse, error)
	AllBySurvey(ctx context.Context, surveyID bson.ObjectID) ([]*models.SurveyResponse, error)
	FindBySurvey(ctx context.Context, surveyID bson.ObjectID, page, limit int) ([]*models.SurveyResponse, int64, error)
	CountBySurvey(ctx context.Context, surveyID bson.ObjectID) (int64, error)
	CountBySurveys(ctx context.Context, surveyIDs []bson.ObjectID) (int64, error)
	HasResponseFromUser(ctx context.Context, surveyID bson.ObjectID, userID string) (bool, error)
}
