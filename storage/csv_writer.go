package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"mercado-pricer/models"
)

// CSVWriter snapshots raw scraped offers to a CSV file, one row per offer.
// It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

// NewCSVWriter creates (or truncates) the CSV file at the given path and
// writes the header row. Intermediate directories are created automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	w := csv.NewWriter(f)

	if err := w.Write([]string{
		"signature", "strategy", "title", "price", "condition", "url", "item_id", "source", "scraped_at",
	}); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	w.Flush()

	return &CSVWriter{file: f, writer: w}, nil
}

// WriteOffers appends every offer of one scrape to the file.
func (c *CSVWriter) WriteOffers(result models.ScrapingResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ts := result.Timestamp.Format(time.RFC3339)
	for _, o := range result.Offers {
		row := []string{
			result.IdentifiedProduct.Signature,
			string(result.Strategy),
			o.Title,
			strconv.FormatFloat(o.Price, 'f', 2, 64),
			string(o.Condition),
			o.URL,
			o.ItemID,
			string(o.Source),
			ts,
		}
		if err := c.writer.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.writer.Flush()
	return c.file.Close()
}
