package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mealsnap/mealsnap/nutrition"
)

// DB is the local outbox: meals that failed every remote write path wait
// here until a flush succeeds.
type DB struct {
	db *sql.DB
}

func Make(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	_, err = db.Exec(`
		create table if not exists outbox (
			id integer primary key autoincrement,
			user_id text not null,
			payload text not null,
			created timestamp default current_timestamp
		);
	`)
	if err != nil {
		return nil, err
	}
	return &DB{db: db}, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

// Pending is one queued meal.
type Pending struct {
	ID      int64
	Meal    nutrition.Meal
	Created time.Time
}

func (d *DB) Enqueue(meal nutrition.Meal) error {
	payload, err := json.Marshal(meal)
	if err != nil {
		return fmt.Errorf("enqueueing meal: %w", err)
	}

	_, err = d.db.Exec(`
		insert into outbox (user_id, payload)
		values (?, ?)
	`, meal.UserID, string(payload))
	if err != nil {
		return fmt.Errorf("enqueueing meal: %w", err)
	}
	return nil
}

// PendingFor returns the user's queued meals, oldest first.
func (d *DB) PendingFor(userID string) ([]Pending, error) {
	rows, err := d.db.Query(`
		select id, payload, created from outbox
		where user_id = ?
		order by id asc
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pending []Pending
	for rows.Next() {
		var p Pending
		var payload string
		if err := rows.Scan(&p.ID, &payload, &p.Created); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(payload), &p.Meal); err != nil {
			return nil, fmt.Errorf("decoding queued meal %d: %w", p.ID, err)
		}
		pending = append(pending, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return pending, nil
}

// Remove drops a queued meal once its remote write went through.
func (d *DB) Remove(id int64) error {
	_, err := d.db.Exec(`delete from outbox where id = ?`, id)
	return err
}

// Count returns the number of queued meals across all users.
func (d *DB) Count() (int, error) {
	var n int
	err := d.db.QueryRow(`select count(*) from outbox`).Scan(&n)
	return n, err
}
