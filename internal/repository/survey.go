package repository

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"survey-service/internal/models"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type SurveyRepository struct {
	collection *mongo.Collection
	mu         *sync.Mutex
}

func NewSurveyRepository(db *mongo.Database) *SurveyRepository {
	return &SurveyRepository{
		collection: db.Collection("surveys"),
		mu:         &sync.Mutex{},
	}
}

// Lock serializes guard-protected mutations (update/delete and lifecycle
// transitions) so the status/response-count check and the write behave as one
// step within this instance. Callers must pair it with Unlock.
func (r *SurveyRepository) Lock()   { r.mu.Lock() }
func (r *SurveyRepository) Unlock() { r.mu.Unlock() }

// live scopes a filter to non-tombstoned documents.
func live(filter bson.M) bson.M {
	filter["metadata.deletedAt"] = int64(0)
	return filter
}

func (r *SurveyRepository) Insert(ctx context.Context, survey *models.Survey) (*models.Survey, error) {
	if survey.ID.IsZero() {
		survey.ID = bson.NewObjectID()
	}

	currentTime := time.Now().Unix()
	if survey.Metadata.CreatedAt == 0 {
		survey.Metadata.CreatedAt = currentTime
	}
	survey.Metadata.UpdatedAt = currentTime

	_, err := r.collection.InsertOne(ctx, survey)
	if err != nil {
		return nil, fmt.Errorf("failed to insert survey: %w", err)
	}
	return survey, nil
}

// FindByIDAndOwner returns a live survey only when it belongs to ownerID;
// anything else surfaces as mongo.ErrNoDocuments.
func (r *SurveyRepository) FindByIDAndOwner(ctx context.Context, id bson.ObjectID, ownerID string) (*models.Survey, error) {
	filter := live(bson.M{"_id": id, "createdBy": ownerID})

	var survey models.Survey
	if err := r.collection.FindOne(ctx, filter).Decode(&survey); err != nil {
		return nil, err
	}
	return &survey, nil
}

// FindLiveByID looks a survey up without ownership or status scope. Response
// intake uses it to tell a missing survey apart from one that exists but is
// not accepting responses.
func (r *SurveyRepository) FindLiveByID(ctx context.Context, id bson.ObjectID) (*models.Survey, error) {
	filter := live(bson.M{"_id": id})

	var survey models.Survey
	if err := r.collection.FindOne(ctx, filter).Decode(&survey); err != nil {
		return nil, err
	}
	return &survey, nil
}

// FindPublishedByID is the respondent-facing lookup: no ownership scope, but
// only published surveys are visible.
func (r *SurveyRepository) FindPublishedByID(ctx context.Context, id bson.ObjectID) (*models.Survey, error) {
	filter := live(bson.M{"_id": id, "status": models.SurveyStatusPublished})

	var survey models.Survey
	if err := r.collection.FindOne(ctx, filter).Decode(&survey); err != nil {
		return nil, err
	}
	return &survey, nil
}

func (r *SurveyRepository) Replace(ctx context.Context, survey *models.Survey) (*models.Survey, error) {
	survey.Metadata.UpdatedAt = time.Now().Unix()

	filter := live(bson.M{"_id": survey.ID, "createdBy": survey.CreatedBy})
	update := bson.M{"$set": survey}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Survey
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update survey: %w", err)
	}
	return &updated, nil
}

// SoftDelete tombstones a survey. The document stays behind so responses keep
// a valid surveyId.
func (r *SurveyRepository) SoftDelete(ctx context.Context, id bson.ObjectID, ownerID string) error {
	currentTime := time.Now().Unix()

	filter := live(bson.M{"_id": id, "createdBy": ownerID})
	update := bson.M{"$set": bson.M{
		"metadata.deletedAt": currentTime,
		"metadata.updatedAt": currentTime,
	}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to delete survey: %w", err)
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

var surveySortFields = map[string]string{
	"createdAt":   "metadata.createdAt",
	"updatedAt":   "metadata.updatedAt",
	"publishedAt": "publishedAt",
	"title":       "title",
	"status":      "status",
}

// searchFilter builds the owner-scoped query for Search. Free-text input is
// regex-escaped so it matches as a literal substring.
func searchFilter(query *models.SurveySearchQuery) bson.M {
	filter := live(bson.M{"createdBy": query.OwnerID})

	if query.Status != "" && query.Status != "all" {
		filter["status"] = query.Status
	}
	if query.Category != "" {
		filter["category"] = query.Category
	}
	if query.Search != "" {
		escaped := regexp.QuoteMeta(query.Search)
		filter["$or"] = []bson.M{
			{"title": bson.M{"$regex": escaped, "$options": "i"}},
			{"description": bson.M{"$regex": escaped, "$options": "i"}},
		}
	}

	return filter
}

func (r *SurveyRepository) Search(ctx context.Context, query *models.SurveySearchQuery) ([]*models.Survey, int64, error) {
	filter := searchFilter(query)

	totalCount, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count surveys: %w", err)
	}

	sortField, ok := surveySortFields[query.SortBy]
	if !ok {
		sortField = "metadata.createdAt"
	}
	sortDir := -1
	if strings.EqualFold(query.SortDir, "asc") {
		sortDir = 1
	}

	opts := options.Find()
	opts.SetSort(bson.D{{Key: sortField, Value: sortDir}})
	opts.SetSkip(int64((query.Page - 1) * query.PageSize))
	opts.SetLimit(int64(query.PageSize))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to search surveys: %w", err)
	}
	defer cursor.Close(ctx)

	var surveys []*models.Survey
	if err = cursor.All(ctx, &surveys); err != nil {
		return nil, 0, fmt.Errorf("failed to decode surveys: %w", err)
	}

	return surveys, totalCount, nil
}

// StatusCounts groups an owner's live surveys by status for the dashboard.
func (r *SurveyRepository) StatusCounts(ctx context.Context, ownerID string) (map[models.SurveyStatus]int64, error) {
	pipeline := []bson.M{
		{"$match": live(bson.M{"createdBy": ownerID})},
		{"$group": bson.M{
			"_id":   "$status",
			"count": bson.M{"$sum": 1},
		}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to get status counts: %w", err)
	}
	defer cursor.Close(ctx)

	var results []struct {
		Status models.SurveyStatus `bson:"_id"`
		Count  int64               `bson:"count"`
	}
	if err = cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("failed to decode status counts: %w", err)
	}

	counts := make(map[models.SurveyStatus]int64)
	for _, result := range results {
		counts[result.Status] = result.Count
	}

	return counts, nil
}

// IDsByOwner returns the ids of all live surveys belonging to ownerID.
func (r *SurveyRepository) IDsByOwner(ctx context.Context, ownerID string) ([]bson.ObjectID, error) {
	filter := live(bson.M{"createdBy": ownerID})

	opts := options.Find().SetProjection(bson.M{"_id": 1})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find survey ids: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []struct {
		ID bson.ObjectID `bson:"_id"`
	}
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode survey ids: %w", err)
	}

	ids := make([]bson.ObjectID, len(docs))
	for i, doc := range docs {
		ids[i] = doc.ID
	}
	return ids, nil
}

func (r *SurveyRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "createdBy", Value: 1},
				{Key: "metadata.deletedAt", Value: 1},
			},
		},
		{
			Keys: bson.D{
				{Key: "createdBy", Value: 1},
				{Key: "status", Value: 1},
			},
		},
		{
			Keys: bson.D{
				{Key: "createdBy", Value: 1},
				{Key: "category", Value: 1},
			},
		},
		{
			Keys: bson.D{{Key: "metadata.createdAt", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "publishedAt", Value: -1}},
		},
	}

	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create survey indexes: %w", err)
	}
	return nil
}
