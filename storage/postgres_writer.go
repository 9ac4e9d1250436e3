package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"mercado-pricer/models"
)

// PostgresWriter persists pipeline analyses and their recommendations.
type PostgresWriter struct {
	db *sql.DB
}

// RecommendationRecord is one stored recommendation row, served back
// through the API.
type RecommendationRecord struct {
	ID               int64     `json:"id"`
	AnalysisID       string    `json:"analysis_id"`
	Input            string    `json:"input"`
	RecommendedPrice float64   `json:"recommended_price"`
	Confidence       string    `json:"confidence"`
	TargetPercentile float64   `json:"target_percentile"`
	MarginPercent    float64   `json:"margin_percent"`
	MarketPosition   string    `json:"market_position"`
	Reasoning        string    `json:"reasoning"`
	CreatedAt        time.Time `json:"created_at"`
}

// NewPostgresWriter opens a connection to PostgreSQL, runs schema
// migrations, and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(dsn string) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	pw := &PostgresWriter{db: db}
	if err := pw.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pw, nil
}

// newPostgresWriterFromDB wires an existing handle; used by tests.
func newPostgresWriterFromDB(db *sql.DB) *PostgresWriter {
	return &PostgresWriter{db: db}
}

func (pw *PostgresWriter) migrate() error {
	_, err := pw.db.Exec(`
		CREATE TABLE IF NOT EXISTS analyses (
			id               UUID PRIMARY KEY,
			input            TEXT          NOT NULL,
			errors           TEXT          NOT NULL DEFAULT '',
			result           JSONB         NOT NULL,
			duration_seconds NUMERIC(10,3) NOT NULL DEFAULT 0,
			created_at       TIMESTAMPTZ   NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS recommendations (
			id                SERIAL PRIMARY KEY,
			analysis_id       UUID          NOT NULL REFERENCES analyses(id),
			input             TEXT          NOT NULL,
			recommended_price NUMERIC(12,2) NOT NULL,
			confidence        VARCHAR(10)   NOT NULL,
			target_percentile NUMERIC(5,2)  NOT NULL,
			margin_percent    NUMERIC(7,2)  NOT NULL,
			market_position   VARCHAR(20)   NOT NULL,
			reasoning         TEXT          NOT NULL DEFAULT '',
			created_at        TIMESTAMPTZ   NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_analyses_created_at        ON analyses(created_at);
		CREATE INDEX IF NOT EXISTS idx_recommendations_analysis   ON recommendations(analysis_id);
		CREATE INDEX IF NOT EXISTS idx_recommendations_created_at ON recommendations(created_at);
	`)
	return err
}

// Write stores one completed analysis and, when present, its
// recommendation.
func (pw *PostgresWriter) Write(result *models.PipelineResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("postgres: marshal result: %w", err)
	}

	_, err = pw.db.Exec(`
		INSERT INTO analyses (id, input, errors, result, duration_seconds)
		VALUES ($1, $2, $3, $4, $5)
	`, result.ID, result.Input, strings.Join(result.Errors, "; "), payload, result.DurationSeconds)
	if err != nil {
		return fmt.Errorf("postgres: insert analysis: %w", err)
	}

	rec := result.FinalRecommendation
	if rec == nil {
		return nil
	}

	_, err = pw.db.Exec(`
		INSERT INTO recommendations
			(analysis_id, input, recommended_price, confidence, target_percentile,
			 margin_percent, market_position, reasoning)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, result.ID, result.Input, rec.RecommendedPrice, rec.Confidence, rec.TargetPercentile,
		rec.MarginPercent, string(rec.MarketPosition), rec.Reasoning)
	if err != nil {
		return fmt.Errorf("postgres: insert recommendation: %w", err)
	}

	return nil
}

// FetchRecent retrieves the latest stored recommendations, newest first.
func (pw *PostgresWriter) FetchRecent(limit int) ([]*RecommendationRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := pw.db.Query(`
		SELECT id, analysis_id, input, recommended_price, confidence,
		       target_percentile, margin_percent, market_position, reasoning, created_at
		FROM recommendations
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch recent: %w", err)
	}
	defer rows.Close()

	var records []*RecommendationRecord
	for rows.Next() {
		r := &RecommendationRecord{}
		if err := rows.Scan(
			&r.ID, &r.AnalysisID, &r.Input, &r.RecommendedPrice, &r.Confidence,
			&r.TargetPercentile, &r.MarginPercent, &r.MarketPosition, &r.Reasoning, &r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Close releases the underlying connection pool.
func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}
