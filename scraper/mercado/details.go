package mercado

import (
	"context"
	"errors"
	"regexp"

	"mercado-pricer/models"
)

// ErrDetailsNotFound reports that a product detail page yielded no
// extractable product data under either strategy.
var ErrDetailsNotFound = errors.New("product details not found")

// mlItemIDRegexp recovers the marketplace item ID embedded in product URLs.
var mlItemIDRegexp = regexp.MustCompile(`ML[A-Z]\d+`)

// ExtractProductDetails fetches a pivot product's own page and extracts its
// full record, preferring the embedded state object over JSON-LD.
func (s *Scraper) ExtractProductDetails(ctx context.Context, productURL string) (*models.ProductDetails, error) {
	s.logger.Info("[scraper] Extracting product details: %s", productURL)

	html, err := s.fetcher.FetchDetail(ctx, productURL)
	if err != nil {
		return nil, err
	}

	if state, err := ExtractPreloadedState(html); err == nil {
		if d := detailsFromState(state, productURL); d != nil {
			return d, nil
		}
	}

	if d := detailsFromJSONLD(ExtractJSONLDNodes(html), productURL); d != nil {
		return d, nil
	}

	s.logger.Warn("[scraper] Could not extract product details from %s", productURL)
	return nil, ErrDetailsNotFound
}

// detailsFromState digs the product record out of the state object's
// component map. Payload paths vary, so both "product" and "item" slots are
// probed.
func detailsFromState(state map[string]any, url string) *models.ProductDetails {
	components, ok := state["components"].(map[string]any)
	if !ok {
		return nil
	}

	var productData map[string]any
	for _, value := range components {
		comp, ok := value.(map[string]any)
		if !ok {
			continue
		}
		if p, ok := comp["product"].(map[string]any); ok {
			productData = p
			break
		}
		if p, ok := comp["item"].(map[string]any); ok {
			productData = p
			break
		}
	}
	if productData == nil {
		return nil
	}

	attributes := make(map[string]string)
	if attrs, ok := productData["attributes"].([]any); ok {
		for _, a := range attrs {
			attr, ok := a.(map[string]any)
			if !ok {
				continue
			}
			name := stringField(attr, "name", "id")
			value := stringField(attr, "value_name", "value")
			if name != "" && value != "" {
				attributes[name] = value
			}
		}
	}

	var images []string
	if pics, ok := productData["pictures"].([]any); ok {
		for _, p := range pics {
			if pic, ok := p.(map[string]any); ok {
				if u := stringField(pic, "url"); u != "" {
					images = append(images, u)
				}
			}
		}
	}

	price, _ := numericValue(productData["price"])

	var seller string
	if sl, ok := productData["seller"].(map[string]any); ok {
		seller = stringField(sl, "nickname")
	}

	currency := stringField(productData, "currency_id")
	if currency == "" {
		currency = "MXN"
	}

	brand := attributes["Marca"]
	if brand == "" {
		brand = attributes["BRAND"]
	}
	model := attributes["Modelo"]
	if model == "" {
		model = attributes["MODEL"]
	}

	return &models.ProductDetails{
		ProductID:   stringField(productData, "id"),
		Title:       stringField(productData, "title"),
		Price:       price,
		Currency:    currency,
		Condition:   models.ParseCondition(stringField(productData, "condition")),
		Brand:       brand,
		Model:       model,
		Category:    stringField(productData, "category_id"),
		Attributes:  attributes,
		Description: stringField(productData, "description"),
		Images:      images,
		SellerName:  seller,
		Permalink:   url,
	}
}

// detailsFromJSONLD builds the record from the first Product-typed node.
// JSON-LD rarely carries the technical attribute table, so Attributes stays
// empty here.
func detailsFromJSONLD(nodes []map[string]any, url string) *models.ProductDetails {
	var productNode map[string]any
	for _, node := range nodes {
		if t, _ := node["@type"].(string); t == "Product" {
			productNode = node
			break
		}
	}
	if productNode == nil {
		return nil
	}

	var price float64
	currency := "MXN"
	offersData := productNode["offers"]
	if list, ok := offersData.([]any); ok && len(list) > 0 {
		offersData = list[0]
	}
	if offers, ok := offersData.(map[string]any); ok {
		price, _ = numericValue(offers["price"])
		if c := stringField(offers, "priceCurrency"); c != "" {
			currency = c
		}
	}

	var brand string
	switch b := productNode["brand"].(type) {
	case map[string]any:
		brand = stringField(b, "name")
	case string:
		brand = b
	}

	var images []string
	switch img := productNode["image"].(type) {
	case string:
		images = []string{img}
	case []any:
		for _, i := range img {
			switch v := i.(type) {
			case string:
				images = append(images, v)
			case map[string]any:
				if u := stringField(v, "url"); u != "" {
					images = append(images, u)
				}
			}
		}
	}

	productID := stringField(productNode, "sku")
	if productID == "" {
		productID = mlItemIDRegexp.FindString(url)
	}

	return &models.ProductDetails{
		ProductID:   productID,
		Title:       stringField(productNode, "name"),
		Price:       price,
		Currency:    currency,
		Condition:   models.ParseCondition(stringField(productNode, "itemCondition")),
		Brand:       brand,
		Model:       stringField(productNode, "model"),
		Category:    stringField(productNode, "category"),
		Attributes:  map[string]string{},
		Description: stringField(productNode, "description"),
		Images:      images,
		Permalink:   url,
	}
}
