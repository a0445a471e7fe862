package cache

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"survey-service/internal/models"

	"github.com/redis/go-redis/v9"
)

// AnalyticsCache keeps short-lived computed analytics snapshots in Redis.
// Every write path through the service invalidates the snapshot, so a cached
// value still reflects all responses committed through this service. Cache
// failures are logged and degrade to a recompute, never to an error.
type AnalyticsCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewAnalyticsCache(client *redis.Client, ttl time.Duration) *AnalyticsCache {
	return &AnalyticsCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *AnalyticsCache) key(surveyID string) string {
	return "analytics:" + surveyID
}

func (c *AnalyticsCache) Get(ctx context.Context, surveyID string) (*models.SurveyAnalytics, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}

	data, err := c.client.Get(ctx, c.key(surveyID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("Failed to read analytics cache for %s: %v", surveyID, err)
		}
		return nil, false
	}

	var analytics models.SurveyAnalytics
	if err := json.Unmarshal(data, &analytics); err != nil {
		log.Printf("Failed to decode analytics cache for %s: %v", surveyID, err)
		return nil, false
	}
	return &analytics, true
}

func (c *AnalyticsCache) Set(ctx context.Context, surveyID string, analytics *models.SurveyAnalytics) {
	if c == nil || c.client == nil {
		return
	}

	data, err := json.Marshal(analytics)
	if err != nil {
		log.Printf("Failed to encode analytics cache for %s: %v", surveyID, err)
		return
	}

	if err := c.client.Set(ctx, c.key(surveyID), data, c.ttl).Err(); err != nil {
		log.Printf("Failed to write analytics cache for %s: %v", surveyID, err)
	}
}

func (c *AnalyticsCache) Invalidate(ctx context.Context, surveyID string) {
	if c == nil || c.client == nil {
		return
	}

	if err := c.client.Del(ctx, c.key(surveyID)).Err(); err != nil {
		log.Printf("Failed to invalidate analytics cache for %s: %v", surveyID, err)
	}
}
