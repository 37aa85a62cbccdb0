package validator

import (
	"errors"
	"strings"
	"testing"

	"contactcleaner/pkg/logger"
	"contactcleaner/pkg/model"
)

func TestCleanRequestValidator(t *testing.T) {
	v := NewCleanRequestValidator(logger.Discard())

	tests := []struct {
		name      string
		req       *CleanRequest
		wantError bool
		wantField string
	}{
		{
			name: "single option",
			req:  &CleanRequest{CleaningOptions: []string{"trim_whitespace"}},
		},
		{
			name: "unknown options are accepted",
			req:  &CleanRequest{CleaningOptions: []string{"trim_whitespace", "make_coffee"}},
		},
		{
			name:      "missing options",
			req:       &CleanRequest{},
			wantError: true,
			wantField: "cleaning_options",
		},
		{
			name:      "empty options",
			req:       &CleanRequest{CleaningOptions: []string{}},
			wantError: true,
			wantField: "cleaning_options",
		},
		{
			name:      "blank option",
			req:       &CleanRequest{CleaningOptions: []string{""}},
			wantError: true,
			wantField: "cleaning_options[0]",
		},
		{
			name:      "oversized option",
			req:       &CleanRequest{CleaningOptions: []string{strings.Repeat("x", 65)}},
			wantError: true,
			wantField: "cleaning_options[0]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.req)
			if !tt.wantError {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}

			var verrs ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("expected ValidationErrors, got %T (%v)", err, err)
			}
			if len(verrs) != 1 || verrs[0].Field != tt.wantField {
				t.Errorf("got %+v, want one error on %s", verrs, tt.wantField)
			}
		})
	}
}

func TestCleanRequest_StageIDs(t *testing.T) {
	req := &CleanRequest{CleaningOptions: []string{"trim_whitespace", "filter_columns"}}

	got := req.StageIDs()
	want := []model.StageID{model.StageTrimWhitespace, model.StageFilterColumns}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("StageIDs() = %v, want %v", got, want)
	}
}
