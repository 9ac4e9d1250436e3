package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"mercado-pricer/agents"
	"mercado-pricer/config"
	"mercado-pricer/models"
	"mercado-pricer/scraper/mercado"
	"mercado-pricer/server"
	"mercado-pricer/services"
	"mercado-pricer/storage"
	"mercado-pricer/utils"
)

func main() {
	logger := utils.NewLogger()
	cfg := config.Load()
	ctx := context.Background()

	logger.Info("=== Competitor Pricing System starting ===")
	logger.Info("Config — max offers: %d | min comparables: %d | concurrency: %d | rate: %dms",
		cfg.MaxOffers, cfg.MinComparables, cfg.MaxConcurrency, cfg.RateLimitMs)

	scraper := mercado.New(cfg, logger)

	csvWriter, err := storage.NewCSVWriter(cfg.CSVOutputPath)
	if err != nil {
		logger.Error("Failed to create CSV writer: %v", err)
		os.Exit(1)
	}
	defer csvWriter.Close()
	scraper.SetOfferSink(csvWriter)

	strategist := agents.NewHeuristicStrategist(logger)

	var classifier services.Classifier
	var recommender services.Recommender
	if cfg.GeminiAPIKey != "" {
		gemini, err := agents.NewGeminiAgent(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, logger)
		if err != nil {
			logger.Error("Failed to create Gemini agent: %v", err)
			os.Exit(1)
		}
		logger.Info("Using Gemini backend (%s) for classification and recommendation", cfg.GeminiModel)
		classifier, recommender = gemini, gemini
	} else {
		logger.Info("GEMINI_API_KEY not set — using heuristic classification and recommendation")
		classifier = agents.NewHeuristicClassifier(logger)
		recommender = agents.NewHeuristicRecommender(logger)
	}

	pipeline := services.NewPipeline(cfg, logger, scraper, strategist, classifier, recommender)

	// Interface-typed so a failed connection leaves the store genuinely nil.
	var store server.RecommendationStore
	pgWriter, err := storage.NewPostgresWriter(cfg.DSN())
	if err != nil {
		logger.Warn("PostgreSQL unavailable, running without persistence: %v", err)
	} else {
		defer pgWriter.Close()
		pipeline.SetResultSink(pgWriter)
		store = pgWriter
	}

	// With product descriptions (or URLs) on the command line, run a
	// one-shot batch analysis. Otherwise serve the HTTP API.
	if len(os.Args) > 1 {
		runBatch(ctx, cfg, logger, pipeline, os.Args[1:])
		return
	}

	srv := server.New(cfg, logger, pipeline, store)
	if err := srv.Run(); err != nil {
		logger.Error("Server stopped: %v", err)
		os.Exit(1)
	}
}

func runBatch(ctx context.Context, cfg *config.Config, logger *utils.Logger,
	pipeline *services.Pipeline, args []string) {
	inputs := make([]models.ProductInput, 0, len(args))
	for _, arg := range args {
		in := models.ProductInput{Input: arg, Cost: cfg.ProductCost}
		if cfg.CurrentPrice > 0 {
			price := cfg.CurrentPrice
			in.CurrentPrice = &price
		}
		inputs = append(inputs, in)
	}

	batch := pipeline.AnalyzeBatch(ctx, inputs)
	printReport(batch)

	fmt.Printf("  Done. Raw offers → %s | Analyses → PostgreSQL (analyses table)\n\n",
		cfg.CSVOutputPath)

	if batch.Successful == 0 {
		logger.Error("No product produced a recommendation.")
		os.Exit(1)
	}
}

func printReport(batch *models.BatchResult) {
	sep := strings.Repeat("=", 62)
	fmt.Printf("\n%s\n  PRICING REPORT — %d products (%d ok, %d failed)\n%s\n",
		sep, batch.TotalProducts, batch.Successful, batch.Failed, sep)

	for _, r := range batch.Results {
		fmt.Printf("\n  %s\n", r.Input)
		if rec := r.FinalRecommendation; rec != nil {
			fmt.Printf("    Recommended price : $%.2f (%s confidence)\n", rec.RecommendedPrice, rec.Confidence)
			fmt.Printf("    Market position   : %s (percentile %.0f, margin %.1f%%)\n",
				rec.MarketPosition, rec.TargetPercentile, rec.MarginPercent)
			if stats := r.Statistics; stats != nil {
				fmt.Printf("    Market (n=%d)      : min $%.2f | median $%.2f | max $%.2f\n",
					stats.SampleSize, stats.Min, stats.Median, stats.Max)
			}
			if rec.Reasoning != "" {
				fmt.Printf("    Why               : %s\n", rec.Reasoning)
			}
		} else {
			fmt.Printf("    FAILED: %s\n", strings.Join(r.Errors, "; "))
		}
		fmt.Printf("    Duration          : %.1fs\n", r.DurationSeconds)
	}
	fmt.Printf("\n%s\n\n", sep)
}
