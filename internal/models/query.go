package models

import (
	"errors"
	"strings"
)

// ErrEmptyQuestion is returned when an ask request carries no question.
var ErrEmptyQuestion = errors.New("question cannot be empty")

// AskRequest asks one question. Query is what gets sent to the web search provider;
// when empty the question itself is searched.
type AskRequest struct {
	Query    string `json:"query,omitempty"`
	Question string `json:"question"`
}

// Validate applies defaults and returns ErrEmptyQuestion if the question is blank.
// The question itself is left untouched since it reaches the model verbatim.
func (r *AskRequest) Validate() error {
	if strings.TrimSpace(r.Question) == "" {
		return ErrEmptyQuestion
	}
	r.Query = strings.TrimSpace(r.Query)
	if r.Query == "" {
		r.Query = strings.TrimSpace(r.Question)
	}
	return nil
}
