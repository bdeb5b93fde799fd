package models

import (
	"errors"
	"testing"
)

func TestAskRequest_Validate(t *testing.T) {
	tests := []struct {
		name      string
		req       *AskRequest
		wantErr   error
		wantQuery string
	}{
		{"empty question", &AskRequest{Query: "tokyo"}, ErrEmptyQuestion, ""},
		{"blank question", &AskRequest{Question: "   "}, ErrEmptyQuestion, ""},
		{"query defaults to question", &AskRequest{Question: " What is Go? "}, nil, "What is Go?"},
		{"explicit query kept", &AskRequest{Query: "tokyo new year's eve party", Question: "Where to go?"}, nil, "tokyo new year's eve party"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() error = %v, want %v", err, tt.wantErr)
			}
			if err == nil && tt.req.Query != tt.wantQuery {
				t.Errorf("Query = %q, want %q", tt.req.Query, tt.wantQuery)
			}
		})
	}
}

func TestAskRequest_ValidateKeepsQuestion(t *testing.T) {
	req := &AskRequest{Question: " What is Go? "}
	if err := req.Validate(); err != nil {
		t.Fatal(err)
	}
	if req.Question != " What is Go? " {
		t.Errorf("Question = %q, want it unchanged", req.Question)
	}
}

func TestTokenUsage_Add(t *testing.T) {
	a := TokenUsage{PromptTokens: 50, CompletionTokens: 20, TotalTokens: 70}
	got := a.Add(a)
	want := TokenUsage{PromptTokens: 100, CompletionTokens: 40, TotalTokens: 140}
	if got != want {
		t.Errorf("Add = %+v, want %+v", got, want)
	}
	if !(TokenUsage{}).IsZero() || a.IsZero() {
		t.Error("IsZero mismatch")
	}
}
