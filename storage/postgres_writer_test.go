package storage

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"mercado-pricer/models"
)

func testResult() *models.PipelineResult {
	return &models.PipelineResult{
		ID:        "6f1d8a4e-0000-0000-0000-000000000001",
		Input:     "sony wh-1000xm5",
		Timestamp: time.Now(),
		Steps:     []models.StepRecord{{Name: "scraping", Status: models.StepCompleted}},
		Errors:    []string{},
		FinalRecommendation: &models.Recommendation{
			RecommendedPrice: 2799,
			Confidence:       "high",
			TargetPercentile: 50,
			MarginPercent:    55.5,
			Reasoning:        "competitive positioning",
			MarketPosition:   models.PositionCompetitive,
		},
		DurationSeconds: 1.5,
	}
}

func TestWriteStoresAnalysisAndRecommendation(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	result := testResult()

	mock.ExpectExec("INSERT INTO analyses").
		WithArgs(result.ID, result.Input, "", sqlmock.AnyArg(), result.DurationSeconds).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO recommendations").
		WithArgs(result.ID, result.Input, 2799.0, "high", 50.0, 55.5, "competitive", "competitive positioning").
		WillReturnResult(sqlmock.NewResult(1, 1))

	pw := newPostgresWriterFromDB(db)
	if err := pw.Write(result); err != nil {
		t.Fatalf("write: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestWriteFailedRunSkipsRecommendation(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	result := testResult()
	result.FinalRecommendation = nil
	result.Errors = []string{"no offers found", "aborted"}

	mock.ExpectExec("INSERT INTO analyses").
		WithArgs(result.ID, result.Input, "no offers found; aborted", sqlmock.AnyArg(), result.DurationSeconds).
		WillReturnResult(sqlmock.NewResult(1, 1))

	pw := newPostgresWriterFromDB(db)
	if err := pw.Write(result); err != nil {
		t.Fatalf("write: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestFetchRecent(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	columns := []string{
		"id", "analysis_id", "input", "recommended_price", "confidence",
		"target_percentile", "margin_percent", "market_position", "reasoning", "created_at",
	}
	rows := sqlmock.NewRows(columns).
		AddRow(2, "a2", "bose qc45", 4100.0, "medium", 75.0, 41.0, "premium", "", time.Now()).
		AddRow(1, "a1", "sony wh-1000xm5", 2799.0, "high", 50.0, 55.5, "competitive", "r", time.Now())

	mock.ExpectQuery("SELECT (.+) FROM recommendations").
		WithArgs(5).
		WillReturnRows(rows)

	pw := newPostgresWriterFromDB(db)
	records, err := pw.FetchRecent(5)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("records: got %d, want 2", len(records))
	}
	if records[0].Input != "bose qc45" || records[0].MarketPosition != "premium" {
		t.Errorf("first record: got %+v", records[0])
	}
	if records[1].RecommendedPrice != 2799 {
		t.Errorf("second record price: got %v", records[1].RecommendedPrice)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestFetchRecentDefaultsLimit(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM recommendations").
		WithArgs(20).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "analysis_id", "input", "recommended_price", "confidence",
			"target_percentile", "margin_percent", "market_position", "reasoning", "created_at",
		}))

	pw := newPostgresWriterFromDB(db)
	records, err := pw.FetchRecent(0)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("records: got %d, want 0", len(records))
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
