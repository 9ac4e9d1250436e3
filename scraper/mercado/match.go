package mercado

import (
	"strings"

	"mercado-pricer/models"
)

// DefaultAccessoryKeywords are the accessory/bundle terms that disqualify a
// title outright. Owned by configuration so locales can swap the set.
var DefaultAccessoryKeywords = []string{
	"funda", "case", "carcasa", "protector", "mica", "glass", "templado", "cable",
	"adaptador", "cargador", "base", "soporte", "refacción", "repuesto", "control",
	"almohadillas", "earpads", "estuche", "solo caja",
}

// Matcher makes the binary comparability decision for offer titles.
type Matcher struct {
	accessoryKeywords []string
}

// NewMatcher creates a Matcher with the given accessory keyword set. A nil
// set falls back to DefaultAccessoryKeywords.
func NewMatcher(accessoryKeywords []string) *Matcher {
	if accessoryKeywords == nil {
		accessoryKeywords = DefaultAccessoryKeywords
	}
	return &Matcher{accessoryKeywords: accessoryKeywords}
}

// Match reports whether a listing title is comparable to the target
// product. Precision-first order: the accessory veto always wins, a model
// match beats a brand match, and a target with no identifying signal
// accepts everything rather than losing the whole search.
func (m *Matcher) Match(title string, product models.IdentifiedProduct) bool {
	t := NormalizeText(title)

	for _, kw := range m.accessoryKeywords {
		if strings.Contains(t, kw) {
			return false
		}
	}

	if product.ModelNorm != "" {
		return strings.Contains(NormalizeModel(title), product.ModelNorm)
	}

	if product.Brand != "" {
		return strings.Contains(t, product.Brand)
	}

	return true
}
