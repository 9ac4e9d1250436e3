package mercado

import (
	"regexp"
	"strings"

	"mercado-pricer/models"
)

var (
	// whitespaceRegexp collapses runs of whitespace to a single space
	whitespaceRegexp = regexp.MustCompile(`\s+`)
	// nonAlnumRegexp strips everything outside [a-z0-9]
	nonAlnumRegexp = regexp.MustCompile(`[^a-z0-9]`)
	// modelRegexp captures model-like tokens such as "wh-1000xm5" or "mdr zx110"
	modelRegexp = regexp.MustCompile(`\b([a-z]{1,4}\s*-?\s*\d{2,6}\s*[a-z]{0,6}\d*)\b`)
	// slugRegexp turns normalized text into URL slugs
	slugRegexp = regexp.MustCompile(`[^a-z0-9]+`)
)

// knownBrands is the fixed brand vocabulary matched against descriptions.
var knownBrands = []string{
	"sony", "samsung", "bose", "jbl", "lg", "xiaomi", "apple", "sennheiser",
}

// NormalizeText lowercases, collapses whitespace runs and trims. Idempotent.
func NormalizeText(s string) string {
	return whitespaceRegexp.ReplaceAllString(strings.TrimSpace(strings.ToLower(s)), " ")
}

// NormalizeModel reduces a model token to its alphanumeric core. Idempotent.
func NormalizeModel(s string) string {
	return nonAlnumRegexp.ReplaceAllString(NormalizeText(s), "")
}

// ExtractProduct derives the canonical brand/model signature from a
// free-text description. When neither a brand nor a model is detected the
// signature falls back to the raw trimmed description, so it is never empty.
func ExtractProduct(description string) models.IdentifiedProduct {
	d := NormalizeText(description)

	var brand string
	padded := " " + d + " "
	for _, b := range knownBrands {
		if strings.Contains(padded, " "+b+" ") {
			brand = b
			break
		}
	}

	var model, modelNorm string
	if mm := modelRegexp.FindStringSubmatch(d); mm != nil {
		model = mm[1]
		modelNorm = NormalizeModel(model)
	}

	parts := make([]string, 0, 2)
	if brand != "" {
		parts = append(parts, brand)
	}
	if model != "" {
		parts = append(parts, model)
	}
	signature := strings.Join(parts, " ")
	if signature == "" {
		signature = strings.TrimSpace(description)
	}

	return models.IdentifiedProduct{
		Brand:     brand,
		Model:     model,
		ModelNorm: modelNorm,
		Signature: signature,
	}
}

// ListingURL slugifies a search signature and composes the marketplace
// listing-page URL.
func ListingURL(baseURL, signature string) string {
	slug := strings.Trim(slugRegexp.ReplaceAllString(NormalizeText(signature), "-"), "-")
	return strings.TrimRight(baseURL, "/") + "/" + slug
}
