package models

import (
	"go.mongodb.org/mongo-driver/v2/bson"
)

type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// SurveyResponse is append-only: once inserted it is never updated or deleted
// by normal flows. Responses are owned by the survey they answer.
type SurveyResponse struct {
	ID             bson.ObjectID     `json:"id,omitempty" bson:"_id,omitempty"`
	SurveyID       bson.ObjectID     `json:"surveyId" bson:"surveyId"`
	UserID         string            `json:"userId,omitempty" bson:"userId,omitempty"`
	SessionID      string            `json:"sessionId,omitempty" bson:"sessionId,omitempty"`
	Answers        map[string]any    `json:"responses" bson:"responses"`
	NPSScore       *int              `json:"npsScore,omitempty" bson:"npsScore,omitempty"`
	Sentiment      Sentiment         `json:"sentiment,omitempty" bson:"sentiment,omitempty"`
	CompletionTime *int              `json:"completionTime,omitempty" bson:"completionTime,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty" bson:"metadata,omitempty"`
	CreatedAt      int64             `json:"createdAt" bson:"createdAt"`
}

type SubmitResponseRequest struct {
	UserID         string            `json:"userId"`
	SessionID      string            `json:"sessionId"`
	Answers        map[string]any    `json:"responses"`
	NPSScore       *int              `json:"npsScore"`
	Sentiment      Sentiment         `json:"sentiment"`
	CompletionTime *int              `json:"completionTime"`
	Metadata       map[string]string `json:"metadata"`
}

type ResponseSearchResult struct {
	Responses   []*SurveyResponse `json:"responses"`
	TotalCount  int64             `json:"totalCount"`
	PageCount   int               `json:"pageCount"`
	CurrentPage int               `json:"currentPage"`
}
