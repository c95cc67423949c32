// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package reviewstore persists literature reviews so the approval
// decision can happen in a later CLI invocation than the generation.
// State changes go through types.Transition; the store enforces the
// same legality rules as the in-memory model.
package reviewstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/finbrief/pkg/types"
)

const dbFile = "finbrief.db"

// Store manages the review SQLite database.
type Store struct {
	db *sql.DB
}

// StoredReview is a persisted review with its row identity.
type StoredReview struct {
	ID        int64
	Topic     string
	Language  string
	Review    types.LiteratureReview
	CreatedAt time.Time
	UpdatedAt time.Time
}

// New opens or creates the review database at dataDir/finbrief.db.
func New(cfg types.StoreConfig) (*Store, error) {
	dataDir := cfg.DataDir
	if dataDir == "" {
		dataDir = "data"
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS reviews (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		topic TEXT NOT NULL,
		language TEXT,
		search_query TEXT,
		summary TEXT,
		papers TEXT NOT NULL,
		themes TEXT,
		gaps TEXT,
		state TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("executing schema statement: %w", err)
	}
	return nil
}

// Save inserts a review and returns its row id.
func (s *Store) Save(ctx context.Context, topic, language string, review types.LiteratureReview) (int64, error) {
	papers, err := json.Marshal(review.Papers)
	if err != nil {
		return 0, fmt.Errorf("serializing papers: %w", err)
	}
	themes, err := json.Marshal(review.Themes)
	if err != nil {
		return 0, fmt.Errorf("serializing themes: %w", err)
	}
	gaps, err := json.Marshal(review.Gaps)
	if err != nil {
		return 0, fmt.Errorf("serializing gaps: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO reviews (topic, language, search_query, summary, papers, themes, gaps, state, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		topic, language, review.SearchQuery, review.Summary,
		string(papers), string(themes), string(gaps), string(review.State), now, now)
	if err != nil {
		return 0, fmt.Errorf("inserting review: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading insert id: %w", err)
	}
	return id, nil
}

// Get loads one review by id.
func (s *Store) Get(ctx context.Context, id int64) (StoredReview, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, topic, language, search_query, summary, papers, themes, gaps, state, created_at, updated_at
		 FROM reviews WHERE id = ?`, id)
	sr, err := scanReview(row)
	if err == sql.ErrNoRows {
		return StoredReview{}, fmt.Errorf("review %d not found", id)
	}
	return sr, err
}

// List returns all reviews, newest first.
func (s *Store) List(ctx context.Context) ([]StoredReview, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, topic, language, search_query, summary, papers, themes, gaps, state, created_at, updated_at
		 FROM reviews ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing reviews: %w", err)
	}
	defer rows.Close()

	var reviews []StoredReview
	for rows.Next() {
		sr, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, sr)
	}
	return reviews, rows.Err()
}

// SetState applies an approval decision to a stored review. Decisions
// on non-generated reviews fail with the transition error.
func (s *Store) SetState(ctx context.Context, id int64, decision types.ReviewDecision) (types.ReviewState, error) {
	var current string
	err := s.db.QueryRowContext(ctx, `SELECT state FROM reviews WHERE id = ?`, id).Scan(&current)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("review %d not found", id)
	}
	if err != nil {
		return "", fmt.Errorf("reading review state: %w", err)
	}

	next, err := types.Transition(types.ReviewState(current), decision)
	if err != nil {
		return "", err
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := s.db.ExecContext(ctx,
		`UPDATE reviews SET state = ?, updated_at = ? WHERE id = ?`, string(next), now, id); err != nil {
		return "", fmt.Errorf("updating review state: %w", err)
	}
	return next, nil
}

// scanner covers *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanReview(row scanner) (StoredReview, error) {
	var sr StoredReview
	var papers, themes, gaps, state, createdAt, updatedAt string

	err := row.Scan(&sr.ID, &sr.Topic, &sr.Language, &sr.Review.SearchQuery, &sr.Review.Summary,
		&papers, &themes, &gaps, &state, &createdAt, &updatedAt)
	if err != nil {
		return StoredReview{}, err
	}

	if err := json.Unmarshal([]byte(papers), &sr.Review.Papers); err != nil {
		return StoredReview{}, fmt.Errorf("parsing papers for review %d: %w", sr.ID, err)
	}
	if err := json.Unmarshal([]byte(themes), &sr.Review.Themes); err != nil {
		return StoredReview{}, fmt.Errorf("parsing themes for review %d: %w", sr.ID, err)
	}
	if err := json.Unmarshal([]byte(gaps), &sr.Review.Gaps); err != nil {
		return StoredReview{}, fmt.Errorf("parsing gaps for review %d: %w", sr.ID, err)
	}
	sr.Review.State = types.ReviewState(state)

	if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		sr.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339Nano, updatedAt); err == nil {
		sr.UpdatedAt = t
	}
	return sr, nil
}
