// Package seed loads a small demo catalog so a fresh console has something
// to render. Seeding is idempotent: a backend that already holds ingredient
// records is left alone.
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pantrylabs/console/internal/storage"
)

// Backend is a store that supports both reads and inserts.
type Backend interface {
	storage.Store
	storage.Inserter
}

// Run inserts the demo records. created_at values are spread backwards over
// several weeks so trend charts have shape out of the box.
func Run(ctx context.Context, store Backend, logger *zap.Logger) error {
	existing, err := store.FetchCollection(ctx, "ingredient")
	if err != nil {
		return fmt.Errorf("seed: checking existing records: %w", err)
	}
	if len(existing) > 0 {
		logger.Info("records already seeded, skipping", zap.Int("count", len(existing)))
		return nil
	}

	now := time.Now().UTC()
	at := func(daysAgo int) string {
		return now.AddDate(0, 0, -daysAgo).Format(time.RFC3339)
	}

	elements := []storage.Record{
		{
			"name": "Iron", "category": "mineral", "unit": "mg", "rdi": 18.0,
			"description": "Oxygen transport; deficiency is the most common nutrient shortfall.",
			"created_at":  at(40),
		},
		{
			"name": "Calcium", "category": "mineral", "unit": "mg", "rdi": 1300.0,
			"created_at": at(38),
		},
		{
			"name": "Sodium", "category": "mineral", "unit": "mg", "rdi": 2300.0,
			"hazards": []any{
				map[string]any{"name": "Hypertension risk", "severity": "moderate"},
			},
			"created_at": at(35),
		},
	}
	elementIDs, err := insertAll(ctx, store, "element", elements)
	if err != nil {
		return err
	}

	ingredients := []storage.Record{
		{
			"name": "Spinach", "alt_name": "Spinacia oleracea", "category": "produce",
			"nutrition": map[string]any{
				"energy":  map[string]any{"amount": 23.0, "unit": "kcal"},
				"protein": map[string]any{"amount": 2.9, "unit": "g"},
				"fat":     map[string]any{"amount": 0.4, "unit": "g"},
				"vitamins": map[string]any{
					"vitamin_a": map[string]any{"amount": 469.0, "unit": "µg", "rdi_percent": 52.0},
					"vitamin_k": map[string]any{"amount": 483.0, "unit": "µg", "rdi_percent": 402.0},
				},
				"minerals": map[string]any{
					"iron":    map[string]any{"amount": 2.7, "unit": "mg", "rdi_percent": 15.0},
					"calcium": map[string]any{"amount": 99.0, "unit": "mg", "rdi_percent": 8.0},
				},
			},
			"elements":    []any{elementIDs[0], elementIDs[1]},
			"description": "Leafy green, dense in vitamin K and folate.",
			"image":       "img/spinach.jpg",
			"verified":    true,
			"created_at":  at(30),
		},
		{
			"name": "Sea Salt", "alt_name": "sodium chloride", "category": "seasoning",
			"nutrition": map[string]any{
				"sodium": map[string]any{"amount": 38758.0, "unit": "mg", "rdi_percent": 1685.0},
			},
			"elements":   []any{elementIDs[2]},
			"hazards":    []any{map[string]any{"name": "High sodium", "severity": "moderate"}},
			"verified":   true,
			"created_at": at(21),
		},
		{
			"name": "Oat Flour", "category": "grain",
			"nutrition": map[string]any{
				"energy":       map[string]any{"amount": 404.0, "unit": "kcal"},
				"protein":      map[string]any{"amount": 14.7, "unit": "g"},
				"carbohydrate": map[string]any{"amount": 65.7, "unit": "g"},
				"fat":          map[string]any{"amount": 9.1, "unit": "g"},
			},
			"created_at": at(9),
		},
	}
	ingredientIDs, err := insertAll(ctx, store, "ingredient", ingredients)
	if err != nil {
		return err
	}

	recipes := []storage.Record{
		{
			"title":       "Green Smoothie",
			"servings":    2.0,
			"ingredients": []any{ingredientIDs[0]},
			"steps": []any{
				map[string]any{"text": "Blend spinach with water."},
				map[string]any{"text": "Serve chilled."},
			},
			"tags":       []any{"vegan", "breakfast"},
			"created_at": at(14),
		},
		{
			"title":       "Oat Pancakes",
			"servings":    4.0,
			"ingredients": []any{ingredientIDs[2], ingredientIDs[1]},
			"steps": []any{
				map[string]any{"text": "Whisk oat flour with water and a pinch of salt."},
				map[string]any{"text": "Fry on a hot griddle."},
			},
			"tags":       []any{"breakfast"},
			"created_at": at(6),
		},
	}
	recipeIDs, err := insertAll(ctx, store, "recipe", recipes)
	if err != nil {
		return err
	}

	products := []storage.Record{
		{
			"name": "Daily Greens Mix", "brand": "PantryLabs",
			"barcode": "0123456789012", "category": "supplement", "verified": true,
			"ingredients": []any{ingredientIDs[0], ingredientIDs[2]},
			"nutrition": map[string]any{
				"energy":  map[string]any{"amount": 180.0, "unit": "kcal"},
				"protein": map[string]any{"amount": 8.0, "unit": "g"},
			},
			"image":      "img/daily-greens.jpg",
			"created_at": at(12),
		},
	}
	productIDs, err := insertAll(ctx, store, "product", products)
	if err != nil {
		return err
	}

	scans := []storage.Record{
		{"barcode": "0123456789012", "status": "matched", "matched_product": []any{productIDs[0]}, "created_at": at(3)},
		{"barcode": "9876543210987", "status": "failed", "raw_label": "label unreadable, low light", "created_at": at(1)},
	}
	if _, err := insertAll(ctx, store, "scan", scans); err != nil {
		return err
	}

	signups := []storage.Record{
		{"email": "pat@example.com", "name": "Pat", "confirmed": true, "shared": true, "source": "organic", "referral_code": "PAT10", "created_at": at(20)},
		{"email": "sam@example.com", "confirmed": true, "source": "social", "created_at": at(13)},
		{"email": "ria@example.com", "confirmed": false, "created_at": at(5)},
		{"email": "lee@example.com", "name": "Lee", "confirmed": true, "source": "referral", "referral_code": "LEE22", "created_at": at(2)},
	}
	if _, err := insertAll(ctx, store, "signup", signups); err != nil {
		return err
	}

	logger.Info("seeded demo records",
		zap.Int("ingredients", len(ingredientIDs)),
		zap.Int("recipes", len(recipeIDs)))
	return nil
}

func insertAll(ctx context.Context, store Backend, kind string, records []storage.Record) ([]string, error) {
	ids := make([]string, 0, len(records))
	for _, rec := range records {
		id := uuid.NewString()
		rec["id"] = id
		if err := store.InsertRecord(ctx, kind, rec); err != nil {
			return nil, fmt.Errorf("seed: inserting %s: %w", kind, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
