// Package agents holds the pluggable classification, recommendation and
// search-strategy capabilities the pipeline consumes. Heuristic backends
// are deterministic and run with no external calls; the Gemini backends
// swap in behind the same interfaces.
package agents

import (
	"context"
	"fmt"
	"math"
	"strings"

	"mercado-pricer/models"
	"mercado-pricer/utils"
)

// accessoryKeywords and bundleKeywords drive the deterministic classifier.
var (
	accessoryKeywords = []string{
		"funda", "case", "cable", "cargador", "protector",
		"mica", "glass", "adaptador", "base", "soporte",
	}
	bundleKeywords = []string{
		"paquete", "combo", "kit", " + ", "incluye",
	}
)

// HeuristicClassifier partitions offers by accessory/bundle keyword rules.
// It is the deterministic fallback for the LLM classifier and the default
// backend in tests.
type HeuristicClassifier struct {
	logger *utils.Logger
}

// NewHeuristicClassifier creates the keyword-based classifier.
func NewHeuristicClassifier(logger *utils.Logger) *HeuristicClassifier {
	return &HeuristicClassifier{logger: logger}
}

// Classify marks each offer as comparable unless its title carries an
// accessory or bundle keyword.
func (c *HeuristicClassifier) Classify(ctx context.Context, target string, offers []models.Offer) (*models.MatchResult, error) {
	result := &models.MatchResult{
		Comparable:      []models.Offer{},
		Excluded:        []models.Offer{},
		Classifications: make([]models.Classification, 0, len(offers)),
	}

	for _, o := range offers {
		title := strings.ToLower(o.Title)

		isAccessory := containsAny(title, accessoryKeywords)
		isBundle := containsAny(title, bundleKeywords)
		comparable := !isAccessory && !isBundle

		cl := models.Classification{
			ItemID:     o.ItemID,
			Title:      o.Title,
			Comparable: comparable,
			Accessory:  isAccessory,
			Bundle:     isBundle,
		}
		switch {
		case isAccessory:
			cl.Confidence = 0.9
			cl.Reason = "accessory detected"
		case isBundle:
			cl.Confidence = 0.9
			cl.Reason = "bundle detected"
		default:
			cl.Confidence = 0.8
			cl.Reason = "comparable product"
		}
		result.Classifications = append(result.Classifications, cl)

		if comparable {
			result.Comparable = append(result.Comparable, o)
		} else {
			result.Excluded = append(result.Excluded, o)
		}
	}

	c.logger.Info("[classifier] %q: %d offers → %d comparable, %d excluded",
		target, len(offers), len(result.Comparable), len(result.Excluded))

	return result, nil
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// HeuristicRecommender derives a price from the trimmed distribution at the
// selected target percentile, floored at the minimum viable price.
type HeuristicRecommender struct {
	logger *utils.Logger
}

// NewHeuristicRecommender creates the rule-based recommender.
func NewHeuristicRecommender(logger *utils.Logger) *HeuristicRecommender {
	return &HeuristicRecommender{logger: logger}
}

// Recommend prices at the target percentile of the trimmed competitor
// distribution. When even the percentile price cannot cover the target
// margin, the minimum viable price wins and confidence drops.
func (r *HeuristicRecommender) Recommend(ctx context.Context, req models.RecommendationRequest) (*models.Recommendation, error) {
	stats := req.Statistics
	if stats == nil || stats.SampleSize == 0 {
		return nil, fmt.Errorf("no statistics for %q", req.TargetProduct)
	}

	var price float64
	switch req.Target.TargetPercentile {
	case 25:
		price = stats.Q1
	case 75:
		price = stats.Q3
	default:
		price = stats.Median
	}

	confidence := "low"
	switch {
	case stats.SampleSize >= 10:
		confidence = "high"
	case stats.SampleSize >= 5:
		confidence = "medium"
	}

	reasoning := fmt.Sprintf(
		"%s positioning at the %.0fth percentile: %d comparable offers, median %.2f, IQR %.2f–%.2f.",
		req.Target.Position, req.Target.TargetPercentile, stats.SampleSize, stats.Median, stats.Q1, stats.Q3)

	if price < req.Target.MinViablePrice {
		price = req.Target.MinViablePrice
		confidence = "low"
		reasoning += fmt.Sprintf(" Floored at %.2f to preserve the %.0f%% target margin.",
			price, req.TargetMarginPercent)
	}

	marginPct := 0.0
	if req.Cost > 0 {
		marginPct = (price - req.Cost) / req.Cost * 100
	}

	rec := &models.Recommendation{
		RecommendedPrice: round2(price),
		Confidence:       confidence,
		TargetPercentile: req.Target.TargetPercentile,
		MarginPercent:    round2(marginPct),
		Reasoning:        reasoning,
		AlternativePrices: []float64{
			round2(stats.Q1 * 0.95), // aggressive
			round2(stats.Median),    // conservative
			round2(stats.Q3 * 0.95), // premium
		},
		MarketPosition: req.Target.Position,
	}

	r.logger.Info("[recommender] %q → %.2f (%s, %s)",
		req.TargetProduct, rec.RecommendedPrice, rec.MarketPosition, rec.Confidence)

	return rec, nil
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
