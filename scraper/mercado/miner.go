package mercado

import (
	"sort"
	"strconv"

	"mercado-pricer/models"
)

// MineOffers walks a parsed payload tree and pulls out every node that
// carries both a title and a positive price, filtered through the matcher.
// The same primitive serves both extraction strategies; only the source tag
// and the tree shape differ. Traversal stops as soon as limit offers have
// been accepted, which bounds work on pathological trees. The walk is
// deterministic: list elements in document order, map children in key
// order, so the same payload always survives the cap the same way.
func MineOffers(root any, product models.IdentifiedProduct, matcher *Matcher, source models.ExtractionStrategy, limit int) []models.Offer {
	out := make([]models.Offer, 0)
	stack := []any{root}

	for len(stack) > 0 && len(out) < limit {
		x := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch v := x.(type) {
		case map[string]any:
			if offer, ok := offerFromNode(v, source); ok && matcher.Match(offer.Title, product) {
				out = append(out, offer)
			}
			keys := make([]string, 0, len(v))
			for k := range v {
				switch v[k].(type) {
				case map[string]any, []any:
					keys = append(keys, k)
				}
			}
			sort.Strings(keys)
			for i := len(keys) - 1; i >= 0; i-- {
				stack = append(stack, v[keys[i]])
			}
		case []any:
			for i := len(v) - 1; i >= 0; i-- {
				switch v[i].(type) {
				case map[string]any, []any:
					stack = append(stack, v[i])
				}
			}
		}
	}

	return out
}

// offerFromNode reads the (title, price, condition, url, id) tuple out of a
// single object node. Price may be a bare number, a numeric string, or an
// object with an amount/value sub-field; JSON-LD product nodes keep it one
// level down inside offers.
func offerFromNode(node map[string]any, source models.ExtractionStrategy) (models.Offer, bool) {
	title := stringField(node, "title", "name")
	if title == "" {
		return models.Offer{}, false
	}

	price, url, ok := priceFromNode(node)
	if !ok || price <= 0 {
		return models.Offer{}, false
	}

	if url == "" {
		url = stringField(node, "permalink", "url")
	}

	return models.Offer{
		Title:     title,
		Price:     price,
		Condition: models.ParseCondition(stringField(node, "condition", "itemCondition")),
		URL:       url,
		ItemID:    stringField(node, "id", "item_id", "sku"),
		Source:    source,
	}, true
}

// priceFromNode resolves the node's price, also returning an offer URL when
// the price came from a nested offers object.
func priceFromNode(node map[string]any) (float64, string, bool) {
	if p, ok := numericValue(node["price"]); ok {
		return p, "", true
	}

	switch offers := node["offers"].(type) {
	case map[string]any:
		if p, ok := numericValue(offers["price"]); ok {
			return p, stringField(offers, "url"), true
		}
	case []any:
		for _, o := range offers {
			om, ok := o.(map[string]any)
			if !ok {
				continue
			}
			if p, ok := numericValue(om["price"]); ok {
				return p, stringField(om, "url"), true
			}
		}
	}

	return 0, "", false
}

// numericValue narrows a payload value to a float. Accepts bare numbers,
// numeric strings, and {amount|value} wrappers.
func numericValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	case map[string]any:
		if f, ok := numericValue(n["amount"]); ok {
			return f, true
		}
		return numericValue(n["value"])
	default:
		return 0, false
	}
}

// stringField returns the first present key rendered as a string. Numeric
// IDs come back in their decimal form.
func stringField(node map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := node[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}
