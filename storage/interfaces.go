package storage

import "mercado-pricer/models"

// OfferWriter persists raw scraped offer snapshots.
type OfferWriter interface {
	WriteOffers(result models.ScrapingResult) error
	Close() error
}

// ResultWriter persists completed pipeline analyses.
type ResultWriter interface {
	Write(result *models.PipelineResult) error
	Close() error
}

var (
	_ OfferWriter  = (*CSVWriter)(nil)
	_ ResultWriter = (*PostgresWriter)(nil)
)
