// ReelRank - Per-User Content Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/tomtom215/reelrank/internal/recommend"
)

type eventRequest struct {
	UserID     string `json:"user_id" validate:"required,entityid"`
	CategoryID string `json:"category_id" validate:"required,entityid"`
	Like       string `json:"like" validate:"omitempty,likestate"`
	Count      int    `json:"count" validate:"min=1,max=100"`
}

func TestGetValidator_Singleton(t *testing.T) {
	if GetValidator() != GetValidator() {
		t.Error("GetValidator() should return the same instance")
	}
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name      string
		input     eventRequest
		wantField string
		wantTag   string
	}{
		{
			name:  "valid",
			input: eventRequest{UserID: "u1", CategoryID: "music", Like: "like", Count: 10},
		},
		{
			name:  "empty like is allowed",
			input: eventRequest{UserID: "u1", CategoryID: "music", Count: 1},
		},
		{
			name:      "missing user",
			input:     eventRequest{CategoryID: "music", Count: 1},
			wantField: "user_id",
			wantTag:   "required",
		},
		{
			name:      "colon in category",
			input:     eventRequest{UserID: "u1", CategoryID: "a:b", Count: 1},
			wantField: "category_id",
			wantTag:   "entityid",
		},
		{
			name:      "unknown like state",
			input:     eventRequest{UserID: "u1", CategoryID: "music", Like: "love", Count: 1},
			wantField: "like",
			wantTag:   "likestate",
		},
		{
			name:      "count too large",
			input:     eventRequest{UserID: "u1", CategoryID: "music", Count: 101},
			wantField: "count",
			wantTag:   "max",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(&tt.input)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected validation error")
			}
			if len(err.Errors()) != 1 {
				t.Fatalf("expected 1 error, got %d: %v", len(err.Errors()), err)
			}
			fe := err.Errors()[0]
			if fe.Field() != tt.wantField || fe.Tag() != tt.wantTag {
				t.Errorf("got %s/%s, want %s/%s", fe.Field(), fe.Tag(), tt.wantField, tt.wantTag)
			}
			if !strings.Contains(fe.Error(), tt.wantField) {
				t.Errorf("message %q should name the field", fe.Error())
			}
		})
	}
}

func TestRequestValidationError_IsInvalidArgument(t *testing.T) {
	err := ValidateStruct(&eventRequest{Count: 1})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !errors.Is(err, recommend.ErrInvalidArgument) {
		t.Error("validation errors should match recommend.ErrInvalidArgument")
	}
}

func TestToAPIError(t *testing.T) {
	t.Run("single error", func(t *testing.T) {
		apiErr := ValidateStruct(&eventRequest{UserID: "u1", CategoryID: "music", Count: 0}).ToAPIError()
		if apiErr.Code != CodeValidationError {
			t.Errorf("Code = %q", apiErr.Code)
		}
		if apiErr.Message != "count must be at least 1" {
			t.Errorf("Message = %q", apiErr.Message)
		}
		if apiErr.Details["field"] != "count" {
			t.Errorf("Details = %v", apiErr.Details)
		}
	})

	t.Run("multiple errors", func(t *testing.T) {
		apiErr := ValidateStruct(&eventRequest{Count: 1}).ToAPIError()
		fields, ok := apiErr.Details["fields"].([]map[string]interface{})
		if !ok || len(fields) != 2 {
			t.Fatalf("Details = %v, want two field entries", apiErr.Details)
		}
		if !strings.Contains(apiErr.Message, "user_id is required") ||
			!strings.Contains(apiErr.Message, "category_id is required") {
			t.Errorf("Message = %q", apiErr.Message)
		}
	})
}
