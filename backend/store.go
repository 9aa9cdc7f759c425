package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/supabase-community/postgrest-go"
	storage_go "github.com/supabase-community/storage-go"
	"github.com/supabase-community/supabase-go"

	"github.com/mealsnap/mealsnap/nutrition"
)

const (
	// ThumbBucket is the storage bucket thumbnails land in.
	ThumbBucket = "meal-thumbs"

	mealsTable    = "meals"
	insertMealRPC = "insert_meal"
)

// ErrRPCUnavailable marks a failed insert_meal invocation; callers fall
// back to the direct table insert.
var ErrRPCUnavailable = errors.New("insert_meal rpc unavailable")

// WritePath says which write path a save went through.
type WritePath string

const (
	WriteRPC   WritePath = "rpc"
	WriteTable WritePath = "table"
)

// Store reads and writes meals through a session-bound client handle.
type Store struct {
	client *supabase.Client
}

func NewStore(client *supabase.Client) *Store {
	return &Store{client: client}
}

// SaveMeal persists a meal. The insert_meal stored function is the primary
// write path; if it fails for any reason the row goes in through a direct
// table insert with identical content.
func (s *Store) SaveMeal(ctx context.Context, meal nutrition.Meal) (WritePath, error) {
	rpcErr := s.insertRPC(meal)
	if rpcErr == nil {
		return WriteRPC, nil
	}

	if err := s.insertTable(meal); err != nil {
		return "", fmt.Errorf("saving meal: %w (rpc: %v)", err, rpcErr)
	}
	return WriteTable, nil
}

func (s *Store) insertRPC(meal nutrition.Meal) error {
	res := s.client.Rpc(insertMealRPC, "", map[string]any{"meal": meal})

	// The rpc helper swallows transport errors and hands back a bare
	// string: empty on failure, a postgres error document on a server-side
	// failure, the new row id otherwise.
	if res == "" {
		return ErrRPCUnavailable
	}

	var pgErr struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal([]byte(res), &pgErr); err == nil && pgErr.Code != "" {
		return fmt.Errorf("%w: %s (%s)", ErrRPCUnavailable, pgErr.Message, pgErr.Code)
	}

	return nil
}

func (s *Store) insertTable(meal nutrition.Meal) error {
	_, _, err := s.client.From(mealsTable).Insert(meal, false, "", "", "").Execute()
	if err != nil {
		return fmt.Errorf("table insert: %w", err)
	}
	return nil
}

// UploadThumbnail stores a JPEG thumbnail under the user's prefix and
// returns its public URL.
func (s *Store) UploadThumbnail(ctx context.Context, userID string, jpeg []byte) (string, error) {
	objectPath := fmt.Sprintf("%s/%s.jpg", userID, uuid.New().String())
	contentType := "image/jpeg"

	_, err := s.client.Storage.UploadFile(ThumbBucket, objectPath, bytes.NewReader(jpeg), storage_go.FileOptions{
		ContentType: &contentType,
	})
	if err != nil {
		return "", fmt.Errorf("uploading thumbnail: %w", err)
	}

	res := s.client.Storage.GetPublicUrl(ThumbBucket, objectPath)
	return res.SignedURL, nil
}

// RecentMeals returns the user's newest meals, newest first.
func (s *Store) RecentMeals(ctx context.Context, userID string, limit int) ([]nutrition.Meal, error) {
	data, _, err := s.client.From(mealsTable).
		Select("*", "", false).
		Eq("user_id", userID).
		Order("created_at", &postgrest.OrderOpts{Ascending: false}).
		Limit(limit, "").
		Execute()
	if err != nil {
		return nil, fmt.Errorf("listing meals: %w", err)
	}

	var meals []nutrition.Meal
	if err := json.Unmarshal(data, &meals); err != nil {
		return nil, fmt.Errorf("listing meals: %w", err)
	}
	return meals, nil
}

// MealsSince returns the user's meals logged at or after since, newest
// first.
func (s *Store) MealsSince(ctx context.Context, userID string, since time.Time) ([]nutrition.Meal, error) {
	data, _, err := s.client.From(mealsTable).
		Select("*", "", false).
		Eq("user_id", userID).
		Gte("created_at", since.UTC().Format(time.RFC3339)).
		Order("created_at", &postgrest.OrderOpts{Ascending: false}).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("listing meals since %s: %w", since.Format(time.RFC3339), err)
	}

	var meals []nutrition.Meal
	if err := json.Unmarshal(data, &meals); err != nil {
		return nil, fmt.Errorf("listing meals since %s: %w", since.Format(time.RFC3339), err)
	}
	return meals, nil
}

// DeleteMeal removes one of the user's meals.
func (s *Store) DeleteMeal(ctx context.Context, userID, mealID string) error {
	_, _, err := s.client.From(mealsTable).
		Delete("", "").
		Eq("id", mealID).
		Eq("user_id", userID).
		Execute()
	if err != nil {
		return fmt.Errorf("deleting meal: %w", err)
	}
	return nil
}
