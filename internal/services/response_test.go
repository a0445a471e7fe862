package services

import (
	"context"
	"errors"
	"testing"

	"survey-service/internal/models"

	"go.mongodb.org/mongo-driver/v2/bson"
)

func answersFixture() map[string]any {
	return map[string]any{"q1": 9, "q2": "Faster support"}
}

func TestSubmitResponse_OnlyPublishedAccepts(t *testing.T) {
	service, surveys, _, _ := newTestResponseService()
	ctx := context.Background()

	statuses := []models.SurveyStatus{
		models.SurveyStatusDraft,
		models.SurveyStatusPaused,
		models.SurveyStatusClosed,
	}

	for _, status := range statuses {
		seeded := seedSurvey(surveys, &models.Survey{
			Title:     "Survey " + string(status),
			Questions: questionFixture(),
			Status:    status,
			CreatedBy: "user-1",
		})

		_, err := service.SubmitResponse(ctx, seeded.ID.Hex(), &models.SubmitResponseRequest{
			Answers: answersFixture(),
		})
		if !errors.Is(err, models.ErrSurveyNotAcceptingResponses) {
			t.Errorf("Status %s: expected ErrSurveyNotAcceptingResponses, got %v", status, err)
		}
	}
}

func TestSubmitResponse_MissingSurvey(t *testing.T) {
	service, _, _, _ := newTestResponseService()
	ctx := context.Background()

	_, err := service.SubmitResponse(ctx, bson.NewObjectID().Hex(), &models.SubmitResponseRequest{
		Answers: answersFixture(),
	})
	if !errors.Is(err, models.ErrSurveyNotFound) {
		t.Errorf("Expected ErrSurveyNotFound, got %v", err)
	}

	_, err = service.SubmitResponse(ctx, "bad-id", &models.SubmitResponseRequest{
		Answers: answersFixture(),
	})
	if !errors.Is(err, models.ErrSurveyNotFound) {
		t.Errorf("Expected ErrSurveyNotFound for malformed id, got %v", err)
	}
}

func TestSubmitResponse_Validation(t *testing.T) {
	service, surveys, _, _ := newTestResponseService()
	ctx := context.Background()

	seeded := seedSurvey(surveys, &models.Survey{
		Title:     "Live",
		Questions: questionFixture(),
		Status:    models.SurveyStatusPublished,
		CreatedBy: "user-1",
	})

	tests := []struct {
		name string
		req  *models.SubmitResponseRequest
	}{
		{"no answers", &models.SubmitResponseRequest{}},
		{"nps above range", &models.SubmitResponseRequest{Answers: answersFixture(), NPSScore: intPtr(11)}},
		{"nps below range", &models.SubmitResponseRequest{Answers: answersFixture(), NPSScore: intPtr(-1)}},
		{"negative completion time", &models.SubmitResponseRequest{Answers: answersFixture(), CompletionTime: intPtr(-5)}},
		{"unknown sentiment", &models.SubmitResponseRequest{Answers: answersFixture(), Sentiment: "angry"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.SubmitResponse(ctx, seeded.ID.Hex(), tt.req)
			if !errors.Is(err, models.ErrValidation) {
				t.Errorf("Expected validation error, got %v", err)
			}
		})
	}

	// Boundary scores are valid.
	for _, score := range []int{0, 10} {
		if _, err := service.SubmitResponse(ctx, seeded.ID.Hex(), &models.SubmitResponseRequest{
			Answers:  answersFixture(),
			NPSScore: intPtr(score),
		}); err != nil {
			t.Errorf("Expected score %d to be accepted, got %v", score, err)
		}
	}
}

func TestSubmitResponse_DuplicateGuard(t *testing.T) {
	service, surveys, _, _ := newTestResponseService()
	ctx := context.Background()

	seeded := seedSurvey(surveys, &models.Survey{
		Title:     "Live",
		Questions: questionFixture(),
		Status:    models.SurveyStatusPublished,
		CreatedBy: "user-1",
		Settings:  models.SurveySettings{OneResponsePerPerson: true},
	})

	first := &models.SubmitResponseRequest{UserID: "respondent-1", Answers: answersFixture()}
	if _, err := service.SubmitResponse(ctx, seeded.ID.Hex(), first); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if _, err := service.SubmitResponse(ctx, seeded.ID.Hex(), first); !errors.Is(err, models.ErrDuplicateResponse) {
		t.Errorf("Expected ErrDuplicateResponse, got %v", err)
	}

	// A different known user still passes.
	if _, err := service.SubmitResponse(ctx, seeded.ID.Hex(), &models.SubmitResponseRequest{
		UserID: "respondent-2", Answers: answersFixture(),
	}); err != nil {
		t.Errorf("Expected second user to pass, got %v", err)
	}

	// Anonymous submissions cannot be deduplicated and always pass.
	for i := 0; i < 2; i++ {
		if _, err := service.SubmitResponse(ctx, seeded.ID.Hex(), &models.SubmitResponseRequest{
			Answers: answersFixture(),
		}); err != nil {
			t.Errorf("Expected anonymous submission %d to pass, got %v", i, err)
		}
	}
}

func TestSubmitResponse_DuplicateGuardDisabled(t *testing.T) {
	service, surveys, _, _ := newTestResponseService()
	ctx := context.Background()

	seeded := seedSurvey(surveys, &models.Survey{
		Title:     "Live",
		Questions: questionFixture(),
		Status:    models.SurveyStatusPublished,
		CreatedBy: "user-1",
		Settings:  models.SurveySettings{OneResponsePerPerson: false},
	})

	req := &models.SubmitResponseRequest{UserID: "respondent-1", Answers: answersFixture()}
	for i := 0; i < 2; i++ {
		if _, err := service.SubmitResponse(ctx, seeded.ID.Hex(), req); err != nil {
			t.Errorf("Expected repeat submission %d to pass, got %v", i, err)
		}
	}
}

func TestSubmitResponse_SessionID(t *testing.T) {
	service, surveys, _, _ := newTestResponseService()
	ctx := context.Background()

	seeded := seedSurvey(surveys, &models.Survey{
		Title:     "Live",
		Questions: questionFixture(),
		Status:    models.SurveyStatusPublished,
		CreatedBy: "user-1",
	})

	anonymous, err := service.SubmitResponse(ctx, seeded.ID.Hex(), &models.SubmitResponseRequest{
		Answers: answersFixture(),
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if anonymous.SessionID != "generated-session" {
		t.Errorf("Expected generated session id, got %q", anonymous.SessionID)
	}

	tracked, err := service.SubmitResponse(ctx, seeded.ID.Hex(), &models.SubmitResponseRequest{
		SessionID: "client-session",
		Answers:   answersFixture(),
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if tracked.SessionID != "client-session" {
		t.Errorf("Expected client session id to stick, got %q", tracked.SessionID)
	}
}

func TestSubmitResponse_PersistsAndPublishes(t *testing.T) {
	service, surveys, responses, publisher := newTestResponseService()
	ctx := context.Background()

	seeded := seedSurvey(surveys, &models.Survey{
		Title:     "Live",
		Questions: questionFixture(),
		Status:    models.SurveyStatusPublished,
		CreatedBy: "user-1",
	})

	created, err := service.SubmitResponse(ctx, seeded.ID.Hex(), &models.SubmitResponseRequest{
		UserID:         "respondent-1",
		Answers:        answersFixture(),
		NPSScore:       intPtr(9),
		Sentiment:      models.SentimentPositive,
		CompletionTime: intPtr(42),
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if created.ID.IsZero() {
		t.Error("Expected response to get an id")
	}
	if created.SurveyID != seeded.ID {
		t.Error("Expected response bound to the survey")
	}

	stored, _ := responses.AllBySurvey(ctx, seeded.ID)
	if len(stored) != 1 {
		t.Fatalf("Expected 1 stored response, got %d", len(stored))
	}

	if len(publisher.responseEvents) != 1 {
		t.Fatalf("Expected 1 response event, got %d", len(publisher.responseEvents))
	}
	e := publisher.responseEvents[0]
	if e.EventType != "response.submitted" || e.SurveyID != seeded.ID.Hex() || e.UserID != "respondent-1" {
		t.Errorf("Unexpected event: %+v", e)
	}
}

// lockCheckingResponseStore fails the test when a response insert runs
// without the survey lock held.
type lockCheckingResponseStore struct {
	*fakeResponseStore
	surveys  *fakeSurveyStore
	t        *testing.T
	inserted bool
}

func (s *lockCheckingResponseStore) Insert(ctx context.Context, response *models.SurveyResponse) (*models.SurveyResponse, error) {
	if s.surveys.mu.TryLock() {
		s.surveys.mu.Unlock()
		s.t.Error("Expected response insert to run under the survey lock")
	}
	s.inserted = true
	return s.fakeResponseStore.Insert(ctx, response)
}

// Intake serializes with guard-protected survey mutations: the acceptance
// check and the insert happen under the same lock the mutation guard holds,
// so a submission cannot land between the guard's response count and the
// write it protects.
func TestSubmitResponse_SerializedWithMutationGuard(t *testing.T) {
	surveys := newFakeSurveyStore()
	responses := &lockCheckingResponseStore{
		fakeResponseStore: newFakeResponseStore(),
		surveys:           surveys,
		t:                 t,
	}
	publisher := &fakePublisher{}

	analytics := NewAnalyticsService(responses, newFakeSnapshotCache())
	analytics.now = func() int64 { return 1700000100 }
	service := NewResponseService(surveys, responses, analytics, publisher)
	service.newSessionID = func() string { return "generated-session" }

	ctx := context.Background()
	seeded := seedSurvey(surveys, &models.Survey{
		Title:     "Live",
		Questions: questionFixture(),
		Status:    models.SurveyStatusPublished,
		CreatedBy: "user-1",
	})

	if _, err := service.SubmitResponse(ctx, seeded.ID.Hex(), &models.SubmitResponseRequest{
		Answers: answersFixture(),
	}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !responses.inserted {
		t.Fatal("Expected the insert to run")
	}

	// The bus path goes through the same critical section.
	responses.inserted = false
	if err := service.HandleIngestedResponse(ctx, seeded.ID, &models.SubmitResponseRequest{
		Answers: answersFixture(),
	}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !responses.inserted {
		t.Fatal("Expected the ingested insert to run")
	}
}

// A submission must drop the cached snapshot so the next analytics read sees
// the new response.
func TestSubmitResponse_InvalidatesSnapshot(t *testing.T) {
	surveys := newFakeSurveyStore()
	responses := newFakeResponseStore()
	snapshots := newFakeSnapshotCache()
	publisher := &fakePublisher{}

	analytics := NewAnalyticsService(responses, snapshots)
	analytics.now = func() int64 { return 1700000100 }
	service := NewResponseService(surveys, responses, analytics, publisher)
	service.newSessionID = func() string { return "generated-session" }

	ctx := context.Background()
	seeded := seedSurvey(surveys, &models.Survey{
		Title:     "Live",
		Questions: questionFixture(),
		Status:    models.SurveyStatusPublished,
		CreatedBy: "user-1",
	})

	// Warm the cache with the empty snapshot.
	if _, err := analytics.ForSurvey(ctx, seeded.ID); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if _, ok := snapshots.Get(ctx, seeded.ID.Hex()); !ok {
		t.Fatal("Expected snapshot to be cached after a read")
	}

	if _, err := service.SubmitResponse(ctx, seeded.ID.Hex(), &models.SubmitResponseRequest{
		Answers: answersFixture(),
	}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if _, ok := snapshots.Get(ctx, seeded.ID.Hex()); ok {
		t.Error("Expected snapshot to be invalidated by the submission")
	}

	recomputed, err := analytics.ForSurvey(ctx, seeded.ID)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if recomputed.TotalResponses != 1 {
		t.Errorf("Expected recomputed snapshot with 1 response, got %d", recomputed.TotalResponses)
	}
}

// Bus-ingested responses obey the same acceptance rules as HTTP submissions.
func TestHandleIngestedResponse(t *testing.T) {
	service, surveys, responses, _ := newTestResponseService()
	ctx := context.Background()

	draft := seedSurvey(surveys, &models.Survey{
		Title:     "Draft",
		Questions: questionFixture(),
		Status:    models.SurveyStatusDraft,
		CreatedBy: "user-1",
	})
	live := seedSurvey(surveys, &models.Survey{
		Title:     "Live",
		Questions: questionFixture(),
		Status:    models.SurveyStatusPublished,
		CreatedBy: "user-1",
	})

	err := service.HandleIngestedResponse(ctx, draft.ID, &models.SubmitResponseRequest{Answers: answersFixture()})
	if !errors.Is(err, models.ErrSurveyNotAcceptingResponses) {
		t.Errorf("Expected ErrSurveyNotAcceptingResponses, got %v", err)
	}

	if err := service.HandleIngestedResponse(ctx, live.ID, &models.SubmitResponseRequest{Answers: answersFixture()}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	stored, _ := responses.AllBySurvey(ctx, live.ID)
	if len(stored) != 1 {
		t.Errorf("Expected 1 ingested response, got %d", len(stored))
	}
}
