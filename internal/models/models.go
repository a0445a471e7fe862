package models

import (
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Enums and Constants
type SurveyStatus string

const (
	SurveyStatusDraft     SurveyStatus = "draft"
	SurveyStatusPublished SurveyStatus = "published"
	SurveyStatusPaused    SurveyStatus = "paused"
	SurveyStatusClosed    SurveyStatus = "closed"
)

type QuestionType string

const (
	QuestionTypeNPS            QuestionType = "nps"
	QuestionTypeRating         QuestionType = "rating"
	QuestionTypeMultipleChoice QuestionType = "multiple_choice"
	QuestionTypeText           QuestionType = "text"
	QuestionTypeScale          QuestionType = "scale"
	QuestionTypeSlider         QuestionType = "slider"
	QuestionTypeYesNo          QuestionType = "yes_no"
	QuestionTypeMatrix         QuestionType = "matrix"
)

// Core Models
type Survey struct {
	ID            bson.ObjectID   `json:"id,omitempty" bson:"_id,omitempty"`
	Title         string          `json:"title" bson:"title"`
	Description   string          `json:"description,omitempty" bson:"description,omitempty"`
	Category      string          `json:"category,omitempty" bson:"category,omitempty"`
	EstimatedTime int             `json:"estimatedTime,omitempty" bson:"estimatedTime,omitempty"`
	Questions     []Question      `json:"questions" bson:"questions"`
	Settings      SurveySettings  `json:"settings" bson:"settings"`
	Status        SurveyStatus    `json:"status" bson:"status"`
	CreatedBy     string          `json:"createdBy" bson:"createdBy"`
	Creator       Creator         `json:"creator" bson:"creator"`
	PublishedAt   int64           `json:"publishedAt,omitempty" bson:"publishedAt,omitempty"`
	Analytics     SurveyAnalytics `json:"analytics" bson:"analytics"`
	Metadata      Metadata        `json:"metadata" bson:"metadata"`
}

type Question struct {
	ID       string       `json:"id" bson:"id"`
	Type     QuestionType `json:"type" bson:"type"`
	Question string       `json:"question" bson:"question"`
	Required bool         `json:"required" bson:"required"`
	Options  []string     `json:"options,omitempty" bson:"options,omitempty"`
}

type SurveySettings struct {
	CollectEmail         bool `json:"collectEmail" bson:"collectEmail"`
	AnonymousResponses   bool `json:"anonymousResponses" bson:"anonymousResponses"`
	OneResponsePerPerson bool `json:"oneResponsePerPerson" bson:"oneResponsePerPerson"`
	ShowProgressBar      bool `json:"showProgressBar" bson:"showProgressBar"`
}

// DefaultSettings returns the settings applied at creation when the request
// carries none.
func DefaultSettings() SurveySettings {
	return SurveySettings{
		CollectEmail:         false,
		AnonymousResponses:   true,
		OneResponsePerPerson: true,
		ShowProgressBar:      true,
	}
}

type Creator struct {
	ID    string `json:"id" bson:"id"`
	Name  string `json:"name,omitempty" bson:"name,omitempty"`
	Email string `json:"email,omitempty" bson:"email,omitempty"`
}

// Metadata carries the entity timestamps. DeletedAt is the tombstone: 0 means
// live, any other value is the soft-delete time and the document is excluded
// from every query path.
type Metadata struct {
	CreatedAt int64 `json:"createdAt" bson:"createdAt"`
	UpdatedAt int64 `json:"updatedAt" bson:"updatedAt"`
	DeletedAt int64 `json:"-" bson:"deletedAt"`
}

// DTOs and Requests
type CreateSurveyRequest struct {
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	Category      string          `json:"category"`
	EstimatedTime int             `json:"estimatedTime"`
	Questions     []Question      `json:"questions"`
	Settings      *SurveySettings `json:"settings"`
}

type UpdateSurveyRequest struct {
	Title         *string         `json:"title"`
	Description   *string         `json:"description"`
	Category      *string         `json:"category"`
	EstimatedTime *int            `json:"estimatedTime"`
	Questions     *[]Question     `json:"questions"`
	Settings      *SurveySettings `json:"settings"`
}

type SurveySearchQuery struct {
	OwnerID  string
	Status   string
	Category string
	Search   string
	SortBy   string
	SortDir  string
	Page     int
	PageSize int
}

// Response DTOs
type SurveySummary struct {
	ID            string          `json:"id"`
	Title         string          `json:"title"`
	Description   string          `json:"description,omitempty"`
	Category      string          `json:"category,omitempty"`
	Status        SurveyStatus    `json:"status"`
	QuestionCount int             `json:"questionCount"`
	EstimatedTime int             `json:"estimatedTime,omitempty"`
	URL           string          `json:"url"`
	ShareURL      string          `json:"shareUrl"`
	Analytics     SurveyAnalytics `json:"analytics"`
	Creator       Creator         `json:"creator"`
	CreatedAt     int64           `json:"createdAt"`
	UpdatedAt     int64           `json:"updatedAt"`
	PublishedAt   int64           `json:"publishedAt,omitempty"`
}

type SurveyDetail struct {
	SurveySummary
	Questions []Question     `json:"questions"`
	Settings  SurveySettings `json:"settings"`
}

type SurveySearchResult struct {
	Surveys     []*SurveySummary `json:"surveys"`
	TotalCount  int64            `json:"totalCount"`
	PageCount   int              `json:"pageCount"`
	CurrentPage int              `json:"currentPage"`
}

// PublicSurvey is the respondent-facing view: no analytics, no creator
// contact details beyond the display name.
type PublicSurvey struct {
	ID            string         `json:"id"`
	Title         string         `json:"title"`
	Description   string         `json:"description,omitempty"`
	Category      string         `json:"category,omitempty"`
	EstimatedTime int            `json:"estimatedTime,omitempty"`
	Questions     []Question     `json:"questions"`
	Settings      SurveySettings `json:"settings"`
}

// Summary builds the list-view projection of a survey. frontendBase is the
// public frontend origin used for the derived url fields.
func (s *Survey) Summary(frontendBase string) *SurveySummary {
	url := frontendBase + "/survey/" + s.ID.Hex()
	return &SurveySummary{
		ID:            s.ID.Hex(),
		Title:         s.Title,
		Description:   s.Description,
		Category:      s.Category,
		Status:        s.Status,
		QuestionCount: len(s.Questions),
		EstimatedTime: s.EstimatedTime,
		URL:           url,
		ShareURL:      url + "?ref=share",
		Analytics:     s.Analytics,
		Creator:       s.Creator,
		CreatedAt:     s.Metadata.CreatedAt,
		UpdatedAt:     s.Metadata.UpdatedAt,
		PublishedAt:   s.PublishedAt,
	}
}

func (s *Survey) Detail(frontendBase string) *SurveyDetail {
	return &SurveyDetail{
		SurveySummary: *s.Summary(frontendBase),
		Questions:     s.Questions,
		Settings:      s.Settings,
	}
}

func (s *Survey) Public() *PublicSurvey {
	return &PublicSurvey{
		ID:            s.ID.Hex(),
		Title:         s.Title,
		Description:   s.Description,
		Category:      s.Category,
		EstimatedTime: s.EstimatedTime,
		Questions:     s.Questions,
		Settings:      s.Settings,
	}
}
