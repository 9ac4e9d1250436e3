package models

import "time"

// Summary holds the distribution measures for one price population.
// Quartiles use the linear-interpolation percentile method.
type Summary struct {
	Min        float64 `json:"min"`
	Max        float64 `json:"max"`
	Mean       float64 `json:"mean"`
	Median     float64 `json:"median"`
	Q1         float64 `json:"q1"`
	Q3         float64 `json:"q3"`
	StdDev     float64 `json:"std_dev"`
	SampleSize int     `json:"sample_size"`
}

// PriceStatistics summarizes a comparable-offer price population. The
// embedded Summary describes the outlier-trimmed set (values outside
// [q1 − 1.5·IQR, q3 + 1.5·IQR] removed); Raw keeps the full-sample numbers.
type PriceStatistics struct {
	Summary
	Raw             Summary               `json:"raw"`
	OutliersRemoved int                   `json:"outliers_removed"`
	ByCondition     map[Condition]Summary `json:"by_condition,omitempty"`
}

// MarketPosition labels where a minimum viable price lands relative to the
// competitor distribution.
type MarketPosition string

const (
	PositionBudget      MarketPosition = "budget"
	PositionCompetitive MarketPosition = "competitive"
	PositionPremium     MarketPosition = "premium"
)

// PositionTarget is the market-position selection derived from cost and
// target margin against the price distribution.
type PositionTarget struct {
	Position         MarketPosition `json:"position"`
	TargetPercentile float64        `json:"target_percentile"`
	MinViablePrice   float64        `json:"min_viable_price"`
}

// Classification is the comparability verdict for a single offer.
type Classification struct {
	ItemID     string  `json:"item_id"`
	Title      string  `json:"title"`
	Comparable bool    `json:"comparable"`
	Accessory  bool    `json:"accessory"`
	Bundle     bool    `json:"bundle"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

// MatchResult partitions scraped offers into comparable and excluded sets.
type MatchResult struct {
	Comparable      []Offer          `json:"comparable_offers"`
	Excluded        []Offer          `json:"excluded_offers"`
	Classifications []Classification `json:"classifications"`
}

// SearchPlan holds optimized search terms derived from a pivot product.
type SearchPlan struct {
	PrimarySearch       string   `json:"primary_search"`
	AlternativeSearches []string `json:"alternative_searches,omitempty"`
	KeySpecs            []string `json:"key_specs,omitempty"`
	Reasoning           string   `json:"reasoning,omitempty"`
}

// RecommendationRequest carries everything the recommendation capability
// needs to produce pricing advice for one product.
type RecommendationRequest struct {
	TargetProduct       string           `json:"target_product"`
	Cost                float64          `json:"cost"`
	CurrentPrice        *float64         `json:"current_price,omitempty"`
	TargetMarginPercent float64          `json:"target_margin_percent"`
	CompetitorPrices    []float64        `json:"competitor_prices"`
	Statistics          *PriceStatistics `json:"statistics"`
	Target              PositionTarget   `json:"target"`
	ComparableCount     int              `json:"comparable_count"`
}

// Recommendation is the final pricing advice produced for one product.
type Recommendation struct {
	RecommendedPrice  float64        `json:"recommended_price"`
	Confidence        string         `json:"confidence"` // low, medium, high
	TargetPercentile  float64        `json:"target_percentile"`
	MarginPercent     float64        `json:"margin_percent"`
	Reasoning         string         `json:"reasoning"`
	AlternativePrices []float64      `json:"alternative_prices"`
	MarketPosition    MarketPosition `json:"market_position"`
}

// StepStatus marks how a pipeline stage ended.
type StepStatus string

const (
	StepCompleted StepStatus = "completed"
	StepFailed    StepStatus = "failed"
)

// StepRecord is one entry of the pipeline's ordered step log. Every stage
// appends exactly one record, including on failure.
type StepRecord struct {
	Name    string         `json:"name"`
	Status  StepStatus     `json:"status"`
	Metrics map[string]any `json:"metrics,omitempty"`
}

// ProductInput is one analysis request. Input is either a marketplace
// product URL (pivot mode) or a free-text description.
type ProductInput struct {
	Input               string   `json:"input"`
	Cost                float64  `json:"cost"`
	CurrentPrice        *float64 `json:"current_price,omitempty"`
	TargetMarginPercent float64  `json:"target_margin_percent,omitempty"`
	MaxOffers           int      `json:"max_offers,omitempty"`
}

// PipelineResult accumulates the outcome of one product analysis. It is
// always well-formed: a failed run carries the steps completed so far plus
// a non-empty Errors list and a nil FinalRecommendation.
type PipelineResult struct {
	ID                  string           `json:"id"`
	Input               string           `json:"input"`
	Timestamp           time.Time        `json:"timestamp"`
	Steps               []StepRecord     `json:"pipeline_steps"`
	Statistics          *PriceStatistics `json:"statistics,omitempty"`
	FinalRecommendation *Recommendation  `json:"final_recommendation"`
	Errors              []string         `json:"errors"`
	DurationSeconds     float64          `json:"duration_seconds"`
}

// Succeeded reports whether the run completed without recorded errors.
func (r *PipelineResult) Succeeded() bool {
	return r != nil && len(r.Errors) == 0 && r.FinalRecommendation != nil
}

// BatchResult aggregates the independent per-product analyses of one batch.
type BatchResult struct {
	TotalProducts int               `json:"total_products"`
	Successful    int               `json:"successful"`
	Failed        int               `json:"failed"`
	Results       []*PipelineResult `json:"results"`
}
