package models

import "time"

// Condition is the sale condition advertised on a marketplace offer.
type Condition string

const (
	ConditionNew     Condition = "new"
	ConditionUsed    Condition = "used"
	ConditionUnknown Condition = "unknown"
)

// ParseCondition maps the free-form condition strings found in marketplace
// payloads onto the known enum values.
func ParseCondition(s string) Condition {
	switch s {
	case "new", "nuevo", "NewCondition", "https://schema.org/NewCondition":
		return ConditionNew
	case "used", "usado", "UsedCondition", "https://schema.org/UsedCondition":
		return ConditionUsed
	default:
		return ConditionUnknown
	}
}

// ExtractionStrategy records which embedded-data format yielded the offers.
type ExtractionStrategy string

const (
	StrategyPreloadedState ExtractionStrategy = "preloaded_state"
	StrategyJSONLD         ExtractionStrategy = "jsonld"
	StrategyNoOffers       ExtractionStrategy = "no_offers"
	StrategyError          ExtractionStrategy = "error"
)

// IdentifiedProduct is the canonical brand/model signature derived from a
// free-text product description. Signature is never empty: it falls back to
// the raw trimmed description when no brand or model was detected.
type IdentifiedProduct struct {
	Brand     string `json:"brand,omitempty"`
	Model     string `json:"model,omitempty"`
	ModelNorm string `json:"model_norm,omitempty"`
	Signature string `json:"signature"`
}

// Offer is a single competitor listing recovered from a marketplace page.
type Offer struct {
	Title     string             `json:"title"`
	Price     float64            `json:"price"`
	Condition Condition          `json:"condition"`
	URL       string             `json:"url"`
	ItemID    string             `json:"item_id"`
	Source    ExtractionStrategy `json:"source"`
}

// ScrapingResult is the point-in-time outcome of one listing-page scrape.
type ScrapingResult struct {
	IdentifiedProduct IdentifiedProduct  `json:"identified_product"`
	Strategy          ExtractionStrategy `json:"strategy"`
	ListingURL        string             `json:"listing_url"`
	Offers            []Offer            `json:"offers"`
	Timestamp         time.Time          `json:"timestamp"`
}

// ProductDetails holds the pivot product's own page data, extracted once per
// detail URL before the competitor search runs.
type ProductDetails struct {
	ProductID   string            `json:"product_id"`
	Title       string            `json:"title"`
	Price       float64           `json:"price"`
	Currency    string            `json:"currency"`
	Condition   Condition         `json:"condition"`
	Brand       string            `json:"brand,omitempty"`
	Model       string            `json:"model,omitempty"`
	Category    string            `json:"category,omitempty"`
	Attributes  map[string]string `json:"attributes"`
	Description string            `json:"description,omitempty"`
	Images      []string          `json:"images"`
	SellerName  string            `json:"seller_name,omitempty"`
	Permalink   string            `json:"permalink"`
}
