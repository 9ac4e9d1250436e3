package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"

	"mercado-pricer/config"
	"mercado-pricer/models"
	"mercado-pricer/utils"
)

// ProductScraper is the extraction engine the pipeline drives. Scrape
// failures surface as degraded results, not errors.
type ProductScraper interface {
	SearchProducts(ctx context.Context, description string, maxOffers int) models.ScrapingResult
	ExtractProductDetails(ctx context.Context, productURL string) (*models.ProductDetails, error)
}

// Classifier decides which scraped offers are truly comparable to the
// target. Backed by an LLM in production, by deterministic heuristics in
// tests.
type Classifier interface {
	Classify(ctx context.Context, target string, offers []models.Offer) (*models.MatchResult, error)
}

// Recommender turns market statistics into a concrete pricing strategy.
type Recommender interface {
	Recommend(ctx context.Context, req models.RecommendationRequest) (*models.Recommendation, error)
}

// SearchStrategist derives optimized search terms from a pivot product's
// own record.
type SearchStrategist interface {
	PlanSearch(ctx context.Context, pivot *models.ProductDetails) (*models.SearchPlan, error)
}

// ResultSink receives every completed pipeline result for persistence.
type ResultSink interface {
	Write(result *models.PipelineResult) error
}

// productURLRegexp decides whether an input is a marketplace product URL.
var productURLRegexp = regexp.MustCompile(`mercadolibre\.com\.`)

// Pipeline sequences scraping, classification, statistics and
// recommendation for one product, tolerating partial failure: every stage
// appends a step record, a stage with no usable output records an error and
// stops the run, and nothing raises past the pipeline boundary.
type Pipeline struct {
	cfg         *config.Config
	logger      *utils.Logger
	scraper     ProductScraper
	strategist  SearchStrategist
	classifier  Classifier
	recommender Recommender
	stats       *StatsService
	sink        ResultSink
}

// NewPipeline wires the orchestrator with its collaborators.
func NewPipeline(cfg *config.Config, logger *utils.Logger, scraper ProductScraper,
	strategist SearchStrategist, classifier Classifier, recommender Recommender) *Pipeline {
	return &Pipeline{
		cfg:         cfg,
		logger:      logger,
		scraper:     scraper,
		strategist:  strategist,
		classifier:  classifier,
		recommender: recommender,
		stats:       NewStatsService(logger),
	}
}

// SetResultSink enables persistence of completed results. Sink failures are
// logged, never surfaced into the analysis.
func (p *Pipeline) SetResultSink(sink ResultSink) {
	p.sink = sink
}

// Analyze runs the full pricing analysis for a single product. The result
// is always well-formed; a run that cannot produce a recommendation comes
// back with a nil FinalRecommendation and a non-empty error list.
func (p *Pipeline) Analyze(ctx context.Context, input models.ProductInput) (result *models.PipelineResult) {
	start := time.Now()
	result = &models.PipelineResult{
		ID:        uuid.NewString(),
		Input:     input.Input,
		Timestamp: start,
		Steps:     []models.StepRecord{},
		Errors:    []string{},
	}

	defer func() {
		if rec := recover(); rec != nil {
			p.logger.Error("[pipeline] Panic recovered: %v", rec)
			result.Errors = append(result.Errors, fmt.Sprintf("pipeline failure: %v", rec))
		}
		result.DurationSeconds = time.Since(start).Seconds()
		p.logger.Info("[pipeline] Analysis done — input: %q errors: %d recommendation: %v duration: %.2fs",
			input.Input, len(result.Errors), result.FinalRecommendation != nil, result.DurationSeconds)
		if p.sink != nil {
			if err := p.sink.Write(result); err != nil {
				p.logger.Warn("[pipeline] Result persistence failed: %v", err)
			}
		}
	}()

	maxOffers := input.MaxOffers
	if maxOffers <= 0 {
		maxOffers = p.cfg.MaxOffers
	}
	margin := input.TargetMarginPercent
	if margin <= 0 {
		margin = p.cfg.TargetMarginPct
	}

	description := input.Input
	target := input.Input

	// Pivot mode: a product URL yields the pivot's own record first, then
	// an optimized search plan.
	if productURLRegexp.MatchString(input.Input) {
		pivot, err := p.scraper.ExtractProductDetails(ctx, input.Input)
		if err != nil || pivot == nil {
			p.addStep(result, "pivot_product", models.StepFailed, nil)
			p.fail(result, "failed to extract product details from URL")
			return result
		}
		p.addStep(result, "pivot_product", models.StepCompleted, map[string]any{
			"product_id": pivot.ProductID,
			"title":      pivot.Title,
			"price":      pivot.Price,
			"brand":      pivot.Brand,
		})
		target = pivot.Title

		plan, err := p.planSearch(ctx, pivot)
		if err != nil {
			p.addStep(result, "search_strategy", models.StepFailed, nil)
			p.fail(result, "search strategy failed: "+err.Error())
			return result
		}
		p.addStep(result, "search_strategy", models.StepCompleted, map[string]any{
			"primary_search":       plan.PrimarySearch,
			"alternative_searches": plan.AlternativeSearches,
			"reasoning":            plan.Reasoning,
		})
		description = plan.PrimarySearch
	}

	scraping := p.scraper.SearchProducts(ctx, description, maxOffers)
	scrapeMetrics := map[string]any{
		"search_term":  description,
		"strategy":     scraping.Strategy,
		"offers_found": len(scraping.Offers),
		"url":          scraping.ListingURL,
	}
	if scraping.Strategy == models.StrategyError {
		p.addStep(result, "scraping", models.StepFailed, scrapeMetrics)
		p.fail(result, "listing fetch failed: "+scraping.ListingURL)
		return result
	}
	p.addStep(result, "scraping", models.StepCompleted, scrapeMetrics)
	if len(scraping.Offers) == 0 {
		p.fail(result, "no offers found")
		return result
	}

	matching, err := p.classify(ctx, target, scraping.Offers)
	if err != nil {
		p.addStep(result, "matching", models.StepFailed, nil)
		p.fail(result, "classification failed: "+err.Error())
		return result
	}
	p.addStep(result, "matching", models.StepCompleted, map[string]any{
		"total_offers": len(scraping.Offers),
		"comparable":   len(matching.Comparable),
		"excluded":     len(matching.Excluded),
	})
	if len(matching.Comparable) < p.cfg.MinComparables {
		p.fail(result, fmt.Sprintf("too few comparable products: %d", len(matching.Comparable)))
		return result
	}

	stats, err := p.stats.Analyze(matching.Comparable)
	if err != nil {
		p.addStep(result, "statistics", models.StepFailed, nil)
		p.fail(result, "statistics unavailable: "+err.Error())
		return result
	}
	result.Statistics = stats
	position := p.stats.SelectPosition(stats, input.Cost, margin)
	p.addStep(result, "statistics", models.StepCompleted, map[string]any{
		"sample_size":       stats.SampleSize,
		"outliers_removed":  stats.OutliersRemoved,
		"median":            stats.Median,
		"position":          position.Position,
		"target_percentile": position.TargetPercentile,
		"min_viable_price":  position.MinViablePrice,
	})

	prices := make([]float64, len(matching.Comparable))
	for i, o := range matching.Comparable {
		prices[i] = o.Price
	}
	recommendation, err := p.recommend(ctx, models.RecommendationRequest{
		TargetProduct:       target,
		Cost:                input.Cost,
		CurrentPrice:        input.CurrentPrice,
		TargetMarginPercent: margin,
		CompetitorPrices:    prices,
		Statistics:          stats,
		Target:              position,
		ComparableCount:     len(matching.Comparable),
	})
	if err != nil {
		p.addStep(result, "recommendation", models.StepFailed, nil)
		p.fail(result, "recommendation failed: "+err.Error())
		return result
	}
	p.addStep(result, "recommendation", models.StepCompleted, map[string]any{
		"recommended_price": recommendation.RecommendedPrice,
		"confidence":        recommendation.Confidence,
		"market_position":   recommendation.MarketPosition,
	})
	result.FinalRecommendation = recommendation

	return result
}

// AnalyzeBatch fans the single-product pipeline out across independent
// inputs. One input's failure never cancels or corrupts its siblings: every
// slot gets a well-formed result.
func (p *Pipeline) AnalyzeBatch(ctx context.Context, inputs []models.ProductInput) *models.BatchResult {
	p.logger.Info("[pipeline] Starting batch analysis of %d products", len(inputs))

	results := make([]*models.PipelineResult, len(inputs))
	pool := utils.NewWorkerPool(p.cfg.MaxConcurrency, p.cfg.RateLimitMs)

	for i, in := range inputs {
		i, in := i, in
		pool.Submit(func() {
			results[i] = p.Analyze(ctx, in)
		})
	}
	pool.Wait()

	batch := &models.BatchResult{
		TotalProducts: len(inputs),
		Results:       results,
	}
	for _, r := range results {
		if r.Succeeded() {
			batch.Successful++
		} else {
			batch.Failed++
		}
	}

	p.logger.Info("[pipeline] Batch done — successful: %d failed: %d", batch.Successful, batch.Failed)
	return batch
}

// planSearch, classify and recommend guard the external capabilities: a
// panicking backend is converted to an error at this boundary.
func (p *Pipeline) planSearch(ctx context.Context, pivot *models.ProductDetails) (plan *models.SearchPlan, err error) {
	defer recoverAsError("search strategy", &err)
	plan, err = p.strategist.PlanSearch(ctx, pivot)
	if err == nil && (plan == nil || plan.PrimarySearch == "") {
		err = errors.New("empty search plan")
	}
	return plan, err
}

func (p *Pipeline) classify(ctx context.Context, target string, offers []models.Offer) (mr *models.MatchResult, err error) {
	defer recoverAsError("classifier", &err)
	mr, err = p.classifier.Classify(ctx, target, offers)
	if err == nil && mr == nil {
		err = errors.New("nil classification result")
	}
	return mr, err
}

func (p *Pipeline) recommend(ctx context.Context, req models.RecommendationRequest) (rec *models.Recommendation, err error) {
	defer recoverAsError("recommender", &err)
	rec, err = p.recommender.Recommend(ctx, req)
	if err == nil && rec == nil {
		err = errors.New("nil recommendation")
	}
	return rec, err
}

func recoverAsError(name string, err *error) {
	if rec := recover(); rec != nil {
		*err = fmt.Errorf("%s panicked: %v", name, rec)
	}
}

func (p *Pipeline) addStep(r *models.PipelineResult, name string, status models.StepStatus, metrics map[string]any) {
	r.Steps = append(r.Steps, models.StepRecord{Name: name, Status: status, Metrics: metrics})
}

func (p *Pipeline) fail(r *models.PipelineResult, msg string) {
	p.logger.Warn("[pipeline] %s", msg)
	r.Errors = append(r.Errors, msg)
}
