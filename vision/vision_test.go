package vision

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mealsnap/mealsnap/nutrition"
)

func TestParseEstimate(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		want    nutrition.Estimate
		wantErr bool
	}{
		{
			name:  "plain json",
			reply: `{"label":"chicken salad","calories":420,"protein_g":35,"carbs_g":12,"fat_g":22,"confidence":0.85}`,
			want:  nutrition.Estimate{Label: "chicken salad", Calories: 420, ProteinG: 35, CarbsG: 12, FatG: 22, Confidence: 0.85},
		},
		{
			name:  "fenced json",
			reply: "```json\n{\"label\":\"toast\",\"calories\":180,\"confidence\":0.6}\n```",
			want:  nutrition.Estimate{Label: "toast", Calories: 180, Confidence: 0.6},
		},
		{
			name:  "negative macros clamped",
			reply: `{"label":"soup","calories":150,"fat_g":-3,"confidence":2}`,
			want:  nutrition.Estimate{Label: "soup", Calories: 150, Confidence: 1},
		},
		{
			name:  "not food",
			reply: `{"label":"","calories":0,"confidence":0}`,
			want:  nutrition.Estimate{},
		},
		{
			name:    "missing calories",
			reply:   `{"label":"mystery"}`,
			wantErr: true,
		},
		{
			name:    "not json",
			reply:   "I cannot identify this meal.",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseEstimate(tt.reply)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseEstimate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseEstimate() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestAnalyze(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{
					"message": map[string]any{
						"role":    "assistant",
						"content": `{"label":"burrito","calories":650,"protein_g":28,"carbs_g":75,"fat_g":24,"confidence":0.7}`,
					},
				},
			},
		})
	}))
	defer srv.Close()

	a := New("test-key", "test-model", srv.URL)
	got, err := a.Analyze(context.Background(), []byte("fake jpeg bytes"))
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	want := nutrition.Estimate{Label: "burrito", Calories: 650, ProteinG: 28, CarbsG: 75, FatG: 24, Confidence: 0.7}
	if got != want {
		t.Errorf("Analyze() = %+v, want %+v", got, want)
	}
}

func TestAnalyzeServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"overloaded"}}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	a := New("test-key", "test-model", srv.URL)
	if _, err := a.Analyze(context.Background(), []byte("fake jpeg bytes")); err == nil {
		t.Error("Analyze() succeeded against a failing server")
	}
}
