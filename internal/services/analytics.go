package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"survey-service/internal/models"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// SnapshotCache is the cache surface for computed analytics snapshots,
// implemented by the Redis-backed cache package.
type SnapshotCache interface {
	Get(ctx context.Context, surveyID string) (*models.SurveyAnalytics, bool)
	Set(ctx context.Context, surveyID string, analytics *models.SurveyAnalytics)
	Invalidate(ctx context.Context, surveyID string)
}

// ComputeAnalytics derives the analytics snapshot from the raw response set.
// It is a pure function of its inputs; now becomes lastUpdated.
//
// Rules:
//   - completionRate is completed/total*100 rounded to 2 decimals, where a
//     response counts as completed when it carries a completionTime.
//   - averageTime is the rounded mean of the completionTimes present.
//   - npsScore is round((promoters-detractors)/scored*100) over responses
//     carrying an npsScore (promoter >= 9, detractor <= 6, passives 7-8 count
//     only in the denominator). It stays nil until at least one scored
//     response exists; nil and 0 mean different things.
//   - responses without a sentiment count in no sentiment bucket.
func ComputeAnalytics(responses []*models.SurveyResponse, now int64) *models.SurveyAnalytics {
	analytics := &models.SurveyAnalytics{
		TotalResponses: int64(len(responses)),
		LastUpdated:    now,
	}
	if len(responses) == 0 {
		return analytics
	}

	var completed int64
	var timeSum int64
	var promoters, detractors, scored int64

	for _, response := range responses {
		if response.CompletionTime != nil {
			completed++
			timeSum += int64(*response.CompletionTime)
		}

		if response.NPSScore != nil {
			scored++
			switch {
			case *response.NPSScore >= 9:
				promoters++
			case *response.NPSScore <= 6:
				detractors++
			}
		}

		switch response.Sentiment {
		case models.SentimentPositive:
			analytics.SentimentBreakdown.Positive++
		case models.SentimentNeutral:
			analytics.SentimentBreakdown.Neutral++
		case models.SentimentNegative:
			analytics.SentimentBreakdown.Negative++
		}
	}

	rate := float64(completed) / float64(analytics.TotalResponses) * 100
	analytics.CompletionRate = math.Round(rate*100) / 100

	if completed > 0 {
		analytics.AverageTime = int64(math.Round(float64(timeSum) / float64(completed)))
	}

	if scored > 0 {
		nps := int(math.Round(float64(promoters-detractors) / float64(scored) * 100))
		analytics.NPSScore = &nps
	}

	return analytics
}

// AnalyticsService serves computed snapshots, fronted by the short-lived
// Redis cache. The stored seed on the survey document is never returned.
type AnalyticsService struct {
	responses ResponseStore
	snapshots SnapshotCache
	now       func() int64
}

func NewAnalyticsService(responses ResponseStore, snapshots SnapshotCache) *AnalyticsService {
	return &AnalyticsService{
		responses: responses,
		snapshots: snapshots,
		now:       func() int64 { return time.Now().Unix() },
	}
}

func (s *AnalyticsService) ForSurvey(ctx context.Context, surveyID bson.ObjectID) (*models.SurveyAnalytics, error) {
	if snapshot, ok := s.snapshots.Get(ctx, surveyID.Hex()); ok {
		return snapshot, nil
	}

	responses, err := s.responses.AllBySurvey(ctx, surveyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load responses for analytics: %w", err)
	}

	analytics := ComputeAnalytics(responses, s.now())
	s.snapshots.Set(ctx, surveyID.Hex(), analytics)
	return analytics, nil
}

// Invalidate drops the cached snapshot so the next read recomputes. Called on
// every write that can change the numbers.
func (s *AnalyticsService) Invalidate(ctx context.Context, surveyID bson.ObjectID) {
	s.snapshots.Invalidate(ctx, surveyID.Hex())
}
