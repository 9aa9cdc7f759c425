package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/mealsnap/mealsnap/nutrition"
)

func mealFromEstimate(userID string, e nutrition.Estimate, thumbURL string) nutrition.Meal {
	meal := nutrition.FromEstimate(userID, e)
	meal.ThumbURL = thumbURL
	meal.CreatedAt = time.Now().UTC()
	return meal
}

func formatEstimate(e nutrition.Estimate) string {
	label := e.Label
	if label == "" {
		label = "(unlabeled)"
	}
	return fmt.Sprintf("%s: %.0f kcal, %.0fg protein, %.0fg carbs, %.0fg fat (confidence %.0f%%)\n",
		label, e.Calories, e.ProteinG, e.CarbsG, e.FatG, e.Confidence*100)
}

func formatMeals(meals []nutrition.Meal) string {
	if len(meals) == 0 {
		return "no meals logged\n"
	}

	var b strings.Builder
	for _, m := range meals {
		label := m.Label
		if label == "" {
			label = "(unlabeled)"
		}
		fmt.Fprintf(&b, "%s  %-24s %5.0f kcal %4.0fp %4.0fc %4.0ff\n",
			m.CreatedAt.Format("2006-01-02 15:04"), label, m.Calories, m.ProteinG, m.CarbsG, m.FatG)
	}
	return b.String()
}
