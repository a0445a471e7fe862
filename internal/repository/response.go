package repository

import (
	"context"
	"fmt"
	"time"

	"survey-service/internal/models"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type ResponseRepository struct {
	collection *mongo.Collection
}

func NewResponseRepository(db *mongo.Database) *ResponseRepository {
	return &ResponseRepository{
		collection: db.Collection("responses"),
	}
}

func (r *ResponseRepository) Insert(ctx context.Context, response *models.SurveyResponse) (*models.SurveyResponse, error) {
	if response.ID.IsZero() {
		response.ID = bson.NewObjectID()
	}
	if response.CreatedAt == 0 {
		response.CreatedAt = time.Now().Unix()
	}

	_, err := r.collection.InsertOne(ctx, response)
	if err != nil {
		return nil, fmt.Errorf("failed to insert response: %w", err)
	}
	return response, nil
}

// AllBySurvey loads the full response set for one survey. The aggregator
// recomputes analytics from this on every read, so there is no pagination.
func (r *ResponseRepository) AllBySurvey(ctx context.Context, surveyID bson.ObjectID) ([]*models.SurveyResponse, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"surveyId": surveyID})
	if err != nil {
		return nil, fmt.Errorf("failed to find responses: %w", err)
	}
	defer cursor.Close(ctx)

	var responses []*models.SurveyResponse
	if err = cursor.All(ctx, &responses); err != nil {
		return nil, fmt.Errorf("failed to decode responses: %w", err)
	}
	return responses, nil
}

func (r *ResponseRepository) FindBySurvey(ctx context.Context, surveyID bson.ObjectID, page, limit int) ([]*models.SurveyResponse, int64, error) {
	filter := bson.M{"surveyId": surveyID}

	totalCount, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count responses: %w", err)
	}

	opts := options.Find()
	opts.SetSort(bson.M{"createdAt": -1})
	opts.SetSkip(int64((page - 1) * limit))
	opts.SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find responses: %w", err)
	}
	defer cursor.Close(ctx)

	var responses []*models.SurveyResponse
	if err = cursor.All(ctx, &responses); err != nil {
		return nil, 0, fmt.Errorf("failed to decode responses: %w", err)
	}

	return responses, totalCount, nil
}

func (r *ResponseRepository) CountBySurvey(ctx context.Context, surveyID bson.ObjectID) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"surveyId": surveyID})
	if err != nil {
		return 0, fmt.Errorf("failed to count responses: %w", err)
	}
	return count, nil
}

func (r *ResponseRepository) CountBySurveys(ctx context.Context, surveyIDs []bson.ObjectID) (int64, error) {
	if len(surveyIDs) == 0 {
		return 0, nil
	}
	count, err := r.collection.CountDocuments(ctx, bson.M{"surveyId": bson.M{"$in": surveyIDs}})
	if err != nil {
		return 0, fmt.Errorf("failed to count responses: %w", err)
	}
	return count, nil
}

// HasResponseFromUser backs the oneResponsePerPerson setting.
func (r *ResponseRepository) HasResponseFromUser(ctx context.Context, surveyID bson.ObjectID, userID string) (bool, error) {
	err := r.collection.FindOne(ctx, bson.M{"surveyId": surveyID, "userId": userID}).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check existing response: %w", err)
	}
	return true, nil
}

func (r *ResponseRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "surveyId", Value: 1},
				{Key: "createdAt", Value: -1},
			},
		},
		{
			Keys: bson.D{
				{Key: "surveyId", Value: 1},
				{Key: "userId", Value: 1},
			},
		},
	}

	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create response indexes: %w", err)
	}
	return nil
}
