package models

import "errors"

// Business-rule errors. All of these are terminal and non-retryable; only
// wrapped store failures (anything not matching this taxonomy) are worth a
// caller-side retry. Handlers map them to HTTP statuses with errors.Is.
var (
	// ErrSurveyNotFound covers both a missing survey and one owned by a
	// different user, so callers cannot probe for existence.
	ErrSurveyNotFound = errors.New("survey not found")

	ErrValidation = errors.New("validation failed")

	ErrAlreadyPublished = errors.New("survey is already published")
	ErrAlreadyClosed    = errors.New("survey is already closed")
	ErrEmptyQuestions   = errors.New("survey has no questions")

	// ErrPublishedWithResponses guards respondent data: a published survey
	// that has collected responses can no longer be edited or deleted, only
	// paused or closed.
	ErrPublishedWithResponses = errors.New("published survey with responses cannot be modified")

	ErrSurveyNotAcceptingResponses = errors.New("survey is not accepting responses")
	ErrDuplicateResponse           = errors.New("a response from this user already exists")
)
