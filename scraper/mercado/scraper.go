package mercado

import (
	"context"
	"time"

	"mercado-pricer/config"
	"mercado-pricer/models"
	"mercado-pricer/utils"
)

// OfferSink receives the raw offers of every scrape, before any
// downstream matching trims them.
type OfferSink interface {
	WriteOffers(result models.ScrapingResult) error
}

// Scraper recovers competitor offers from marketplace listing pages without
// an official API. It tries the embedded state object first and falls back
// to JSON-LD structured data.
type Scraper struct {
	cfg     *config.Config
	logger  *utils.Logger
	fetcher *Fetcher
	matcher *Matcher
	sink    OfferSink
}

// New creates a ready-to-use marketplace Scraper.
func New(cfg *config.Config, logger *utils.Logger) *Scraper {
	return &Scraper{
		cfg:    cfg,
		logger: logger,
		fetcher: NewFetcher(logger,
			time.Duration(cfg.ListingTimeoutS)*time.Second,
			time.Duration(cfg.DetailTimeoutS)*time.Second,
			cfg.MaxRetries),
		matcher: NewMatcher(nil),
	}
}

// SetOfferSink enables raw-offer snapshots. Sink failures are logged and
// never affect the scrape.
func (s *Scraper) SetOfferSink(sink OfferSink) {
	s.sink = sink
}

// SearchProducts scrapes the listing page for a product description and
// returns the comparable offers found there. It never returns an error:
// fetch and parse failures degrade to a result with the matching strategy
// tag and zero offers.
func (s *Scraper) SearchProducts(ctx context.Context, description string, maxOffers int) models.ScrapingResult {
	product := ExtractProduct(description)
	url := ListingURL(s.cfg.ListingBaseURL, product.Signature)

	s.logger.Info("[scraper] Searching — signature: %q brand: %q model: %q url: %s",
		product.Signature, product.Brand, product.Model, url)

	result := models.ScrapingResult{
		IdentifiedProduct: product,
		ListingURL:        url,
		Offers:            []models.Offer{},
		Timestamp:         time.Now(),
	}

	html, err := s.fetcher.FetchListing(ctx, url)
	if err != nil {
		result.Strategy = models.StrategyError
		return result
	}

	// Mine generously, then cap: matching trims the set further downstream.
	mineLimit := maxOffers * 6

	var offers []models.Offer
	if state, err := ExtractPreloadedState(html); err == nil {
		offers = MineOffers(state, product, s.matcher, models.StrategyPreloadedState, mineLimit)
		result.Strategy = models.StrategyPreloadedState
		s.logger.Info("[scraper] Extracted %d offers from preloaded state", len(offers))
	}

	if len(offers) == 0 {
		offers = MineOffers(ExtractJSONLDPayloads(html), product, s.matcher, models.StrategyJSONLD, mineLimit)
		if len(offers) > 0 {
			result.Strategy = models.StrategyJSONLD
		} else {
			result.Strategy = models.StrategyNoOffers
		}
		s.logger.Info("[scraper] Extracted %d offers from JSON-LD fallback", len(offers))
	}

	result.Offers = capOffers(dedupeOffers(offers), maxOffers)

	if s.sink != nil && len(result.Offers) > 0 {
		if err := s.sink.WriteOffers(result); err != nil {
			s.logger.Warn("[scraper] Offer snapshot failed: %v", err)
		}
	}

	return result
}

// dedupeOffers drops repeat listings by URL, preserving first-seen order.
// Offers without a URL are kept as-is.
func dedupeOffers(offers []models.Offer) []models.Offer {
	seen := utils.NewURLSet()
	out := make([]models.Offer, 0, len(offers))
	for _, o := range offers {
		if o.URL != "" && !seen.Add(o.URL) {
			continue
		}
		out = append(out, o)
	}
	return out
}

func capOffers(offers []models.Offer, max int) []models.Offer {
	if max > 0 && len(offers) > max {
		return offers[:max]
	}
	return offers
}
