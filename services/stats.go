package services

import (
	"errors"
	"math"
	"sort"

	"mercado-pricer/models"
	"mercado-pricer/utils"
)

// ErrNoStatistics reports an empty price population.
var ErrNoStatistics = errors.New("statistics unavailable: empty price population")

// StatsService computes outlier-resistant summaries of competitor price
// populations and derives the market-position target.
type StatsService struct {
	logger *utils.Logger
}

// NewStatsService creates a StatsService with the given logger.
func NewStatsService(logger *utils.Logger) *StatsService {
	return &StatsService{logger: logger}
}

// Analyze summarizes the offer prices. The headline fields describe the
// outlier-trimmed population (1.5·IQR fences around the quartiles); the
// full-sample numbers are kept alongside, with per-condition sub-summaries.
func (s *StatsService) Analyze(offers []models.Offer) (*models.PriceStatistics, error) {
	prices := make([]float64, 0, len(offers))
	for _, o := range offers {
		if o.Price > 0 {
			prices = append(prices, o.Price)
		}
	}
	if len(prices) == 0 {
		return nil, ErrNoStatistics
	}

	raw := summarize(prices)

	iqr := raw.Q3 - raw.Q1
	lo := raw.Q1 - 1.5*iqr
	hi := raw.Q3 + 1.5*iqr

	clean := make([]float64, 0, len(prices))
	for _, p := range prices {
		if p >= lo && p <= hi {
			clean = append(clean, p)
		}
	}

	byCondition := make(map[models.Condition][]float64)
	for _, o := range offers {
		if o.Price > 0 {
			byCondition[o.Condition] = append(byCondition[o.Condition], o.Price)
		}
	}
	condStats := make(map[models.Condition]models.Summary, len(byCondition))
	for cond, ps := range byCondition {
		condStats[cond] = summarize(ps)
	}

	stats := &models.PriceStatistics{
		Summary:         summarize(clean),
		Raw:             raw,
		OutliersRemoved: len(prices) - len(clean),
		ByCondition:     condStats,
	}

	s.logger.Info("[stats] Analyzed %d prices — median: %.2f mean: %.2f outliers removed: %d",
		len(prices), stats.Median, stats.Mean, stats.OutliersRemoved)

	return stats, nil
}

// SelectPosition picks the market position for a cost and target margin
// against the trimmed distribution. Boundary ties resolve to the cheaper
// tier: a minimum viable price exactly at p25 is still "budget".
func (s *StatsService) SelectPosition(stats *models.PriceStatistics, cost, targetMarginPercent float64) models.PositionTarget {
	minViable := cost * (1 + targetMarginPercent/100)

	target := models.PositionTarget{MinViablePrice: minViable}
	switch {
	case minViable <= stats.Q1:
		target.Position = models.PositionBudget
		target.TargetPercentile = 25
	case minViable <= stats.Median:
		target.Position = models.PositionCompetitive
		target.TargetPercentile = 50
	default:
		target.Position = models.PositionPremium
		target.TargetPercentile = 75
	}

	return target
}

// summarize computes the distribution measures for one price set.
func summarize(prices []float64) models.Summary {
	sorted := make([]float64, len(prices))
	copy(sorted, prices)
	sort.Float64s(sorted)

	n := len(sorted)
	if n == 0 {
		return models.Summary{}
	}

	var sum float64
	for _, p := range sorted {
		sum += p
	}
	mean := sum / float64(n)

	var variance float64
	for _, p := range sorted {
		d := p - mean
		variance += d * d
	}
	variance /= float64(n)

	return models.Summary{
		Min:        sorted[0],
		Max:        sorted[n-1],
		Mean:       mean,
		Median:     Percentile(sorted, 50),
		Q1:         Percentile(sorted, 25),
		Q3:         Percentile(sorted, 75),
		StdDev:     math.Sqrt(variance),
		SampleSize: n,
	}
}

// Percentile returns the p-th percentile of an ascending-sorted sample
// using linear interpolation between closest ranks.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}

	pos := p / 100 * float64(n-1)
	lower := int(math.Floor(pos))
	if lower >= n-1 {
		return sorted[n-1]
	}
	frac := pos - float64(lower)
	return sorted[lower] + frac*(sorted[lower+1]-sorted[lower])
}
