package server

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/mealsnap/mealsnap/nutrition"
)

func formRequest(t *testing.T, values url.Values) *http.Request {
	t.Helper()

	r := httptest.NewRequest(http.MethodPost, "/api/meals", strings.NewReader(values.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return r
}

func TestFormEstimate(t *testing.T) {
	tests := []struct {
		name    string
		values  url.Values
		want    *nutrition.Estimate
		wantErr bool
	}{
		{
			name:   "no correction",
			values: url.Values{"label": {"pasta"}},
			want:   nil,
		},
		{
			name: "full correction",
			values: url.Values{
				"label":     {"pasta"},
				"calories":  {"520"},
				"protein_g": {"18"},
				"carbs_g":   {"70"},
				"fat_g":     {"15"},
			},
			want: &nutrition.Estimate{Label: "pasta", Calories: 520, ProteinG: 18, CarbsG: 70, FatG: 15, Confidence: 1},
		},
		{
			name:   "calories only",
			values: url.Values{"calories": {"300"}},
			want:   &nutrition.Estimate{Calories: 300, Confidence: 1},
		},
		{
			name:   "negative clamped",
			values: url.Values{"calories": {"300"}, "fat_g": {"-4"}},
			want:   &nutrition.Estimate{Calories: 300, Confidence: 1},
		},
		{
			name:    "unparseable",
			values:  url.Values{"calories": {"lots"}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := formEstimate(formRequest(t, tt.values))
			if (err != nil) != tt.wantErr {
				t.Fatalf("formEstimate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.want == nil {
				if got != nil {
					t.Errorf("formEstimate() = %+v, want nil", got)
				}
				return
			}
			if got == nil || *got != *tt.want {
				t.Errorf("formEstimate() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestReadPhotoMissing(t *testing.T) {
	r := formRequest(t, url.Values{"label": {"pasta"}})
	if _, err := readPhoto(r); err == nil {
		t.Error("readPhoto() accepted a request without a photo")
	}
}
