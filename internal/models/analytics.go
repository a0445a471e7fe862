package models

// SurveyAnalytics is the live snapshot computed from the raw response set on
// every read. A zero-value seed is persisted on the survey document at
// creation; the stored numbers are never authoritative and are overwritten by
// the computed values before the survey leaves the service.
type SurveyAnalytics struct {
	TotalResponses     int64              `json:"totalResponses" bson:"totalResponses"`
	CompletionRate     float64            `json:"completionRate" bson:"completionRate"`
	AverageTime        int64              `json:"averageTime" bson:"averageTime"`
	NPSScore           *int               `json:"npsScore" bson:"npsScore,omitempty"`
	SentimentBreakdown SentimentBreakdown `json:"sentimentBreakdown" bson:"sentimentBreakdown"`
	LastUpdated        int64              `json:"lastUpdated" bson:"lastUpdated"`
}

type SentimentBreakdown struct {
	Positive int64 `json:"positive" bson:"positive"`
	Neutral  int64 `json:"neutral" bson:"neutral"`
	Negative int64 `json:"negative" bson:"negative"`
}

// DashboardStats aggregates an owner's surveys for the dashboard endpoint.
type DashboardStats struct {
	TotalSurveys     int64 `json:"totalSurveys"`
	DraftSurveys     int64 `json:"draftSurveys"`
	PublishedSurveys int64 `json:"publishedSurveys"`
	PausedSurveys    int64 `json:"pausedSurveys"`
	ClosedSurveys    int64 `json:"closedSurveys"`
	TotalResponses   int64 `json:"totalResponses"`
}
