package services

import (
	"context"
	"strings"
	"sync"

	"survey-service/internal/config"
	"survey-service/internal/event"
	"survey-service/internal/models"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// In-memory stores backing the service tests. They mirror the repository
// contracts: tombstoned surveys are invisible, lookups outside the owner
// scope return mongo.ErrNoDocuments.

type fakeSurveyStore struct {
	mu      sync.Mutex
	surveys map[string]*models.Survey
	nowUnix int64
}

func newFakeSurveyStore() *fakeSurveyStore {
	return &fakeSurveyStore{
		surveys: make(map[string]*models.Survey),
		nowUnix: 1700000000,
	}
}

func (f *fakeSurveyStore) Lock()   { f.mu.Lock() }
func (f *fakeSurveyStore) Unlock() { f.mu.Unlock() }

func copySurvey(s *models.Survey) *models.Survey {
	copied := *s
	copied.Questions = append([]models.Question(nil), s.Questions...)
	return &copied
}

func (f *fakeSurveyStore) Insert(ctx context.Context, survey *models.Survey) (*models.Survey, error) {
	if survey.ID.IsZero() {
		survey.ID = bson.NewObjectID()
	}
	if survey.Metadata.CreatedAt == 0 {
		survey.Metadata.CreatedAt = f.nowUnix
	}
	survey.Metadata.UpdatedAt = f.nowUnix

	f.surveys[survey.ID.Hex()] = copySurvey(survey)
	return survey, nil
}

func (f *fakeSurveyStore) FindByIDAndOwner(ctx context.Context, id bson.ObjectID, ownerID string) (*models.Survey, error) {
	survey, ok := f.surveys[id.Hex()]
	if !ok || survey.Metadata.DeletedAt != 0 || survey.CreatedBy != ownerID {
		return nil, mongo.ErrNoDocuments
	}
	return copySurvey(survey), nil
}

func (f *fakeSurveyStore) FindLiveByID(ctx context.Context, id bson.ObjectID) (*models.Survey, error) {
	survey, ok := f.surveys[id.Hex()]
	if !ok || survey.Metadata.DeletedAt != 0 {
		return nil, mongo.ErrNoDocuments
	}
	return copySurvey(survey), nil
}

func (f *fakeSurveyStore) FindPublishedByID(ctx context.Context, id bson.ObjectID) (*models.Survey, error) {
	survey, ok := f.surveys[id.Hex()]
	if !ok || survey.Metadata.DeletedAt != 0 || survey.Status != models.SurveyStatusPublished {
		return nil, mongo.ErrNoDocuments
	}
	return copySurvey(survey), nil
}

func (f *fakeSurveyStore) Replace(ctx context.Context, survey *models.Survey) (*models.Survey, error) {
	existing, ok := f.surveys[survey.ID.Hex()]
	if !ok || existing.Metadata.DeletedAt != 0 || existing.CreatedBy != survey.CreatedBy {
		return nil, mongo.ErrNoDocuments
	}
	survey.Metadata.UpdatedAt = f.nowUnix
	f.surveys[survey.ID.Hex()] = copySurvey(survey)
	return copySurvey(survey), nil
}

func (f *fakeSurveyStore) SoftDelete(ctx context.Context, id bson.ObjectID, ownerID string) error {
	survey, ok := f.surveys[id.Hex()]
	if !ok || survey.Metadata.DeletedAt != 0 || survey.CreatedBy != ownerID {
		return mongo.ErrNoDocuments
	}
	survey.Metadata.DeletedAt = f.nowUnix
	survey.Metadata.UpdatedAt = f.nowUnix
	return nil
}

func (f *fakeSurveyStore) matches(survey *models.Survey, query *models.SurveySearchQuery) bool {
	if survey.Metadata.DeletedAt != 0 || survey.CreatedBy != query.OwnerID {
		return false
	}
	if query.Status != "" && query.Status != "all" && string(survey.Status) != query.Status {
		return false
	}
	if query.Category != "" && survey.Category != query.Category {
		return false
	}
	if query.Search != "" {
		needle := strings.ToLower(query.Search)
		if !strings.Contains(strings.ToLower(survey.Title), needle) &&
			!strings.Contains(strings.ToLower(survey.Description), needle) {
			return false
		}
	}
	return true
}

func (f *fakeSurveyStore) Search(ctx context.Context, query *models.SurveySearchQuery) ([]*models.Survey, int64, error) {
	var matched []*models.Survey
	for _, survey := range f.surveys {
		if f.matches(survey, query) {
			matched = append(matched, copySurvey(survey))
		}
	}

	totalCount := int64(len(matched))

	start := (query.Page - 1) * query.PageSize
	if start > len(matched) {
		start = len(matched)
	}
	end := start + query.PageSize
	if end > len(matched) {
		end = len(matched)
	}

	return matched[start:end], totalCount, nil
}

func (f *fakeSurveyStore) StatusCounts(ctx context.Context, ownerID string) (map[models.SurveyStatus]int64, error) {
	counts := make(map[models.SurveyStatus]int64)
	for _, survey := range f.surveys {
		if survey.Metadata.DeletedAt == 0 && survey.CreatedBy == ownerID {
			counts[survey.Status]++
		}
	}
	return counts, nil
}

func (f *fakeSurveyStore) IDsByOwner(ctx context.Context, ownerID string) ([]bson.ObjectID, error) {
	var ids []bson.ObjectID
	for _, survey := range f.surveys {
		if survey.Metadata.DeletedAt == 0 && survey.CreatedBy == ownerID {
			ids = append(ids, survey.ID)
		}
	}
	return ids, nil
}

type fakeResponseStore struct {
	responses []*models.SurveyResponse
	nowUnix   int64
}

func newFakeResponseStore() *fakeResponseStore {
	return &fakeResponseStore{nowUnix: 1700000000}
}

func (f *fakeResponseStore) Insert(ctx context.Context, response *models.SurveyResponse) (*models.SurveyResponse, error) {
	if response.ID.IsZero() {
		response.ID = bson.NewObjectID()
	}
	if response.CreatedAt == 0 {
		response.CreatedAt = f.nowUnix
	}
	f.responses = append(f.responses, response)
	return response, nil
}

func (f *fakeResponseStore) AllBySurvey(ctx context.Context, surveyID bson.ObjectID) ([]*models.SurveyResponse, error) {
	var matched []*models.SurveyResponse
	for _, response := range f.responses {
		if response.SurveyID == surveyID {
			matched = append(matched, response)
		}
	}
	return matched, nil
}

func (f *fakeResponseStore) FindBySurvey(ctx context.Context, surveyID bson.ObjectID, page, limit int) ([]*models.SurveyResponse, int64, error) {
	matched, _ := f.AllBySurvey(ctx, surveyID)
	totalCount := int64(len(matched))

	start := (page - 1) * limit
	if start > len(matched) {
		start = len(matched)
	}
	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}

	return matched[start:end], totalCount, nil
}

func (f *fakeResponseStore) CountBySurvey(ctx context.Context, surveyID bson.ObjectID) (int64, error) {
	matched, _ := f.AllBySurvey(ctx, surveyID)
	return int64(len(matched)), nil
}

func (f *fakeResponseStore) CountBySurveys(ctx context.Context, surveyIDs []bson.ObjectID) (int64, error) {
	var count int64
	for _, id := range surveyIDs {
		n, _ := f.CountBySurvey(ctx, id)
		count += n
	}
	return count, nil
}

func (f *fakeResponseStore) HasResponseFromUser(ctx context.Context, surveyID bson.ObjectID, userID string) (bool, error) {
	for _, response := range f.responses {
		if response.SurveyID == surveyID && response.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

type fakeSnapshotCache struct {
	snapshots   map[string]*models.SurveyAnalytics
	invalidated []string
}

func newFakeSnapshotCache() *fakeSnapshotCache {
	return &fakeSnapshotCache{snapshots: make(map[string]*models.SurveyAnalytics)}
}

func (f *fakeSnapshotCache) Get(ctx context.Context, surveyID string) (*models.SurveyAnalytics, bool) {
	snapshot, ok := f.snapshots[surveyID]
	return snapshot, ok
}

func (f *fakeSnapshotCache) Set(ctx context.Context, surveyID string, analytics *models.SurveyAnalytics) {
	f.snapshots[surveyID] = analytics
}

func (f *fakeSnapshotCache) Invalidate(ctx context.Context, surveyID string) {
	delete(f.snapshots, surveyID)
	f.invalidated = append(f.invalidated, surveyID)
}

type fakePublisher struct {
	surveyEvents   []*event.SurveyEvent
	responseEvents []*event.ResponseEvent
}

func (f *fakePublisher) PublishSurveyEvent(e *event.SurveyEvent) error {
	f.surveyEvents = append(f.surveyEvents, e)
	return nil
}

func (f *fakePublisher) PublishResponseEvent(e *event.ResponseEvent) error {
	f.responseEvents = append(f.responseEvents, e)
	return nil
}

func (f *fakePublisher) Close() error { return nil }

const testFrontendBase = "https://surveys.test"

func newTestSurveyService() (*SurveyService, *fakeSurveyStore, *fakeResponseStore, *fakePublisher) {
	surveys := newFakeSurveyStore()
	responses := newFakeResponseStore()
	publisher := &fakePublisher{}

	analytics := NewAnalyticsService(responses, newFakeSnapshotCache())
	analytics.now = func() int64 { return 1700000100 }

	service := NewSurveyService(surveys, responses, analytics, publisher, config.SurveyConfig{
		FrontendBaseURL: testFrontendBase,
		DefaultPageSize: 15,
		MaxPageSize:     100,
	})
	service.now = func() int64 { return 1700000100 }

	return service, surveys, responses, publisher
}

func newTestResponseService() (*ResponseService, *fakeSurveyStore, *fakeResponseStore, *fakePublisher) {
	surveys := newFakeSurveyStore()
	responses := newFakeResponseStore()
	publisher := &fakePublisher{}

	analytics := NewAnalyticsService(responses, newFakeSnapshotCache())
	analytics.now = func() int64 { return 1700000100 }

	service := NewResponseService(surveys, responses, analytics, publisher)
	service.now = func() int64 { return 1700000100 }
	service.newSessionID = func() string { return "generated-session" }

	return service, surveys, responses, publisher
}

// seedSurvey inserts a survey directly into the fake store, bypassing service
// validation, so tests can set up arbitrary states.
func seedSurvey(store *fakeSurveyStore, survey *models.Survey) *models.Survey {
	created, _ := store.Insert(context.Background(), survey)
	return created
}

func questionFixture() []models.Question {
	return []models.Question{
		{ID: "q1", Type: models.QuestionTypeNPS, Question: "How likely are you to recommend us?", Required: true},
		{ID: "q2", Type: models.QuestionTypeText, Question: "What could we improve?"},
	}
}
