package event

import "survey-service/internal/models"

const (
	EventTypeSurveyCreated    = "survey.created"
	EventTypeSurveyUpdated    = "survey.updated"
	EventTypeSurveyDeleted    = "survey.deleted"
	EventTypeSurveyPublished  = "survey.published"
	EventTypeSurveyClosed     = "survey.closed"
	EventTypeSurveyPaused     = "survey.paused"
	EventTypeSurveyDuplicated = "survey.duplicated"

	EventTypeResponseSubmitted = "response.submitted"
)

type SurveyEvent struct {
	EventType     string              `json:"eventType"`
	SurveyID      string              `json:"surveyId"`
	UserID        string              `json:"userId"`
	Status        models.SurveyStatus `json:"status"`
	Timestamp     int64               `json:"timestamp"`
	ChangedFields []string            `json:"changedFields,omitempty"`
	OldValues     map[string]any      `json:"oldValues,omitempty"`
	NewValues     map[string]any      `json:"newValues,omitempty"`
}

type ResponseEvent struct {
	EventType  string `json:"eventType"`
	ResponseID string `json:"responseId"`
	SurveyID   string `json:"surveyId"`
	UserID     string `json:"userId,omitempty"`
	SessionID  string `json:"sessionId,omitempty"`
	Timestamp  int64  `json:"timestamp"`
}
