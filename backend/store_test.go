package backend

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/mealsnap/mealsnap/nutrition"
)

// fakeProject is a minimal stand-in for the Supabase REST surface.
type fakeProject struct {
	mu         sync.Mutex
	rpcStatus  int
	rpcBody    string
	rowStatus  int
	rpcHits    int
	tableHits  int
	listBody   string
	lastQuery  string
	deleteHits int
}

func (f *fakeProject) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/rest/v1/rpc/insert_meal", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.rpcHits++
		f.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(f.rpcStatus)
		w.Write([]byte(f.rpcBody))
	})

	mux.HandleFunc("/rest/v1/meals", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.Method {
		case http.MethodPost:
			f.mu.Lock()
			f.tableHits++
			f.mu.Unlock()
			w.WriteHeader(f.rowStatus)
			w.Write([]byte(`[]`))
		case http.MethodGet:
			f.mu.Lock()
			f.lastQuery = r.URL.RawQuery
			f.mu.Unlock()
			w.Write([]byte(f.listBody))
		case http.MethodDelete:
			f.mu.Lock()
			f.deleteHits++
			f.mu.Unlock()
			w.Write([]byte(`[]`))
		}
	})

	return mux
}

func newTestStore(t *testing.T, f *fakeProject) *Store {
	t.Helper()

	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)

	client, err := New(srv.URL, "anon-key")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return NewStore(client)
}

func testMeal() nutrition.Meal {
	return nutrition.Meal{
		UserID:   "user-1",
		Label:    "pad thai",
		Calories: 700,
		ProteinG: 25,
		CarbsG:   90,
		FatG:     22,
	}
}

func TestSaveMealRPC(t *testing.T) {
	f := &fakeProject{rpcStatus: http.StatusOK, rpcBody: `"4f2f0be1-9df1-4fd4-bf2d-8e0afcb6fc41"`}
	store := newTestStore(t, f)

	path, err := store.SaveMeal(context.Background(), testMeal())
	if err != nil {
		t.Fatalf("SaveMeal() error = %v", err)
	}
	if path != WriteRPC {
		t.Errorf("SaveMeal() path = %q, want %q", path, WriteRPC)
	}
	if f.tableHits != 0 {
		t.Errorf("table insert hit %d times on the rpc path", f.tableHits)
	}
}

func TestSaveMealFallsBackToTable(t *testing.T) {
	f := &fakeProject{
		rpcStatus: http.StatusNotFound,
		rpcBody:   `{"code":"42883","message":"function public.insert_meal does not exist"}`,
		rowStatus: http.StatusCreated,
	}
	store := newTestStore(t, f)

	path, err := store.SaveMeal(context.Background(), testMeal())
	if err != nil {
		t.Fatalf("SaveMeal() error = %v", err)
	}
	if path != WriteTable {
		t.Errorf("SaveMeal() path = %q, want %q", path, WriteTable)
	}
	if f.rpcHits != 1 {
		t.Errorf("rpc hit %d times, want exactly 1", f.rpcHits)
	}
	if f.tableHits != 1 {
		t.Errorf("table insert hit %d times, want 1", f.tableHits)
	}
}

func TestSaveMealBothPathsFail(t *testing.T) {
	f := &fakeProject{
		rpcStatus: http.StatusNotFound,
		rpcBody:   `{"code":"42883","message":"no such function"}`,
		rowStatus: http.StatusInternalServerError,
	}
	store := newTestStore(t, f)

	if _, err := store.SaveMeal(context.Background(), testMeal()); err == nil {
		t.Error("SaveMeal() succeeded with both write paths failing")
	}
}

func TestInsertRPCErrorDocument(t *testing.T) {
	f := &fakeProject{
		rpcStatus: http.StatusOK,
		rpcBody:   `{"code":"PGRST301","message":"jwt expired"}`,
	}
	store := newTestStore(t, f)

	err := store.insertRPC(testMeal())
	if !errors.Is(err, ErrRPCUnavailable) {
		t.Errorf("insertRPC() error = %v, want ErrRPCUnavailable", err)
	}
}

func TestRecentMeals(t *testing.T) {
	f := &fakeProject{
		listBody: `[{"id":"m1","user_id":"user-1","label":"oatmeal","calories":310,"protein_g":11,"carbs_g":54,"fat_g":6}]`,
	}
	store := newTestStore(t, f)

	meals, err := store.RecentMeals(context.Background(), "user-1", 10)
	if err != nil {
		t.Fatalf("RecentMeals() error = %v", err)
	}
	if len(meals) != 1 || meals[0].Label != "oatmeal" || meals[0].Calories != 310 {
		t.Errorf("RecentMeals() = %+v", meals)
	}
}

func TestMealsSince(t *testing.T) {
	f := &fakeProject{listBody: `[]`}
	store := newTestStore(t, f)

	since := time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC)
	if _, err := store.MealsSince(context.Background(), "user-1", since); err != nil {
		t.Fatalf("MealsSince() error = %v", err)
	}

	query, err := url.ParseQuery(f.lastQuery)
	if err != nil {
		t.Fatalf("parsing recorded query %q: %v", f.lastQuery, err)
	}
	if got := query.Get("created_at"); got != "gte.2025-03-03T00:00:00Z" {
		t.Errorf("created_at filter = %q, want %q", got, "gte.2025-03-03T00:00:00Z")
	}
	if got := query.Get("user_id"); got != "eq.user-1" {
		t.Errorf("user_id filter = %q, want %q", got, "eq.user-1")
	}
}

func TestDeleteMeal(t *testing.T) {
	f := &fakeProject{}
	store := newTestStore(t, f)

	if err := store.DeleteMeal(context.Background(), "user-1", "m1"); err != nil {
		t.Fatalf("DeleteMeal() error = %v", err)
	}
	if f.deleteHits != 1 {
		t.Errorf("delete hit %d times, want 1", f.deleteHits)
	}
}
