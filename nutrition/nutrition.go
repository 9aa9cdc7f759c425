// Package nutrition holds the value types shared by the vision analyzer,
// the backend store and the gateway.
package nutrition

import "time"

// Estimate is a single nutritional estimate for one photographed meal,
// as produced by the vision model or corrected by the user.
type Estimate struct {
	Label      string  `json:"label"`
	Calories   float64 `json:"calories"`
	ProteinG   float64 `json:"protein_g"`
	CarbsG     float64 `json:"carbs_g"`
	FatG       float64 `json:"fat_g"`
	Confidence float64 `json:"confidence"`
}

// Clamp brings an estimate back into its valid range: macros are
// non-negative, confidence sits in [0, 1].
func (e *Estimate) Clamp() {
	if e.Calories < 0 {
		e.Calories = 0
	}
	if e.ProteinG < 0 {
		e.ProteinG = 0
	}
	if e.CarbsG < 0 {
		e.CarbsG = 0
	}
	if e.FatG < 0 {
		e.FatG = 0
	}
	if e.Confidence < 0 {
		e.Confidence = 0
	}
	if e.Confidence > 1 {
		e.Confidence = 1
	}
}

// Meal is a persisted row in the meals table.
type Meal struct {
	ID         string    `json:"id,omitempty"`
	UserID     string    `json:"user_id"`
	Label      string    `json:"label"`
	Calories   float64   `json:"calories"`
	ProteinG   float64   `json:"protein_g"`
	CarbsG     float64   `json:"carbs_g"`
	FatG       float64   `json:"fat_g"`
	Confidence float64   `json:"confidence"`
	ThumbURL   string    `json:"thumb_url,omitempty"`
	CreatedAt  time.Time `json:"created_at,omitempty"`
}

// FromEstimate builds an unsaved meal for a user out of an estimate.
func FromEstimate(userID string, e Estimate) Meal {
	return Meal{
		UserID:     userID,
		Label:      e.Label,
		Calories:   e.Calories,
		ProteinG:   e.ProteinG,
		CarbsG:     e.CarbsG,
		FatG:       e.FatG,
		Confidence: e.Confidence,
	}
}

// Totals is the sum of estimates over some set of meals.
type Totals struct {
	Meals    int     `json:"meals"`
	Calories float64 `json:"calories"`
	ProteinG float64 `json:"protein_g"`
	CarbsG   float64 `json:"carbs_g"`
	FatG     float64 `json:"fat_g"`
}

// DailyTotals sums up every meal logged on the same calendar day as day,
// in day's location.
func DailyTotals(meals []Meal, day time.Time) Totals {
	var t Totals
	y, m, d := day.Date()
	for _, meal := range meals {
		my, mm, md := meal.CreatedAt.In(day.Location()).Date()
		if my != y || mm != m || md != d {
			continue
		}
		t.Meals++
		t.Calories += meal.Calories
		t.ProteinG += meal.ProteinG
		t.CarbsG += meal.CarbsG
		t.FatG += meal.FatG
	}
	return t
}
