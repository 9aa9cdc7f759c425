package vision

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mealsnap/mealsnap/nutrition"
)

// ParseEstimate turns the model's reply into an estimate. Models
// occasionally wrap the JSON in a markdown fence even when asked not to,
// so fences are stripped first. A reply without a calories field is an
// error rather than a zero guess.
func ParseEstimate(reply string) (nutrition.Estimate, error) {
	reply = stripFence(reply)

	var raw struct {
		Label      string   `json:"label"`
		Calories   *float64 `json:"calories"`
		ProteinG   float64  `json:"protein_g"`
		CarbsG     float64  `json:"carbs_g"`
		FatG       float64  `json:"fat_g"`
		Confidence float64  `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(reply), &raw); err != nil {
		return nutrition.Estimate{}, fmt.Errorf("parsing estimate: %w", err)
	}

	if raw.Calories == nil {
		return nutrition.Estimate{}, fmt.Errorf("parsing estimate: no calories in reply")
	}

	e := nutrition.Estimate{
		Label:      raw.Label,
		Calories:   *raw.Calories,
		ProteinG:   raw.ProteinG,
		CarbsG:     raw.CarbsG,
		FatG:       raw.FatG,
		Confidence: raw.Confidence,
	}
	e.Clamp()
	return e, nil
}

func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
