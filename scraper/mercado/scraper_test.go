package mercado

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"mercado-pricer/config"
	"mercado-pricer/models"
	"mercado-pricer/utils"
)

func testConfig(baseURL string) *config.Config {
	return &config.Config{
		ListingBaseURL:  baseURL,
		ListingTimeoutS: 5,
		DetailTimeoutS:  5,
		MaxRetries:      1,
		MaxOffers:       25,
	}
}

const statePage = `<html><script>
window.__PRELOADED_STATE__ = {"results":[
	{"title":"Sony WH-1000XM5 Negro","price":2999,"permalink":"https://articulo.mercadolibre.com.mx/MLM-1"},
	{"title":"Sony WH-1000XM5 Plata","price":2899,"permalink":"https://articulo.mercadolibre.com.mx/MLM-2"},
	{"title":"Sony WH-1000XM5 Negro (repost)","price":2999,"permalink":"https://articulo.mercadolibre.com.mx/MLM-1"},
	{"title":"Funda para Sony WH-1000XM5","price":399,"permalink":"https://articulo.mercadolibre.com.mx/MLM-3"}
]};
</script></html>`

func TestSearchProductsPreloadedState(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(statePage))
	}))
	defer srv.Close()

	s := New(testConfig(srv.URL), utils.NewLogger())
	result := s.SearchProducts(context.Background(), "sony wh-1000xm5", 10)

	if result.Strategy != models.StrategyPreloadedState {
		t.Fatalf("strategy: got %q, want preloaded_state", result.Strategy)
	}
	// Accessory filtered, duplicate URL deduplicated.
	if len(result.Offers) != 2 {
		t.Fatalf("offers: got %d, want 2", len(result.Offers))
	}
	if result.IdentifiedProduct.Signature != "sony wh-1000xm5" {
		t.Errorf("signature: got %q", result.IdentifiedProduct.Signature)
	}
}

func TestSearchProductsJSONLDFallback(t *testing.T) {
	page := `<html><script type="application/ld+json">
	{"@type":"Product","name":"Sony WH-1000XM5",
	 "offers":{"price":"2750.00","url":"https://articulo.mercadolibre.com.mx/MLM-7"}}
	</script></html>`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page))
	}))
	defer srv.Close()

	s := New(testConfig(srv.URL), utils.NewLogger())
	result := s.SearchProducts(context.Background(), "sony wh-1000xm5", 10)

	if result.Strategy != models.StrategyJSONLD {
		t.Fatalf("strategy: got %q, want jsonld", result.Strategy)
	}
	if len(result.Offers) != 1 || result.Offers[0].Price != 2750 {
		t.Errorf("offers: got %+v", result.Offers)
	}
}

func TestSearchProductsJSONLDNestedProductsCountedOnce(t *testing.T) {
	// A product node nested inside another product node, with no URLs to
	// deduplicate on: each must yield exactly one offer.
	page := `<html><script type="application/ld+json">
	{"@type":"Product","name":"Sony WH-1000XM5 Negro","price":2999,
	 "isSimilarTo":{"@type":"Product","name":"Sony WH-1000XM5 Plata","price":2899}}
	</script></html>`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page))
	}))
	defer srv.Close()

	s := New(testConfig(srv.URL), utils.NewLogger())
	result := s.SearchProducts(context.Background(), "sony wh-1000xm5", 10)

	if result.Strategy != models.StrategyJSONLD {
		t.Fatalf("strategy: got %q, want jsonld", result.Strategy)
	}
	if len(result.Offers) != 2 {
		t.Fatalf("offers: got %d, want 2", len(result.Offers))
	}
	seen := make(map[string]int)
	for _, o := range result.Offers {
		seen[o.Title]++
	}
	for title, n := range seen {
		if n != 1 {
			t.Errorf("%q mined %d times, want once", title, n)
		}
	}
}

func TestSearchProductsNoOffers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>nothing embedded</body></html>"))
	}))
	defer srv.Close()

	s := New(testConfig(srv.URL), utils.NewLogger())
	result := s.SearchProducts(context.Background(), "sony wh-1000xm5", 10)

	if result.Strategy != models.StrategyNoOffers {
		t.Errorf("strategy: got %q, want no_offers", result.Strategy)
	}
	if len(result.Offers) != 0 {
		t.Errorf("offers: got %d, want 0", len(result.Offers))
	}
}

func TestSearchProductsFetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := New(testConfig(srv.URL), utils.NewLogger())
	result := s.SearchProducts(context.Background(), "sony wh-1000xm5", 10)

	if result.Strategy != models.StrategyError {
		t.Errorf("strategy: got %q, want error", result.Strategy)
	}
	if len(result.Offers) != 0 {
		t.Errorf("offers: got %d, want 0", len(result.Offers))
	}
}

func TestSearchProductsCapsOffers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(statePage))
	}))
	defer srv.Close()

	s := New(testConfig(srv.URL), utils.NewLogger())
	result := s.SearchProducts(context.Background(), "sony wh-1000xm5", 1)

	if len(result.Offers) != 1 {
		t.Errorf("offers: got %d, want cap of 1", len(result.Offers))
	}
}

const detailPage = `<html><script>
window.__PRELOADED_STATE__ = {"components":{"head":{"item":{
	"id":"MLM123456","title":"Sony WH-1000XM5","price":2999,"condition":"nuevo",
	"currency_id":"MXN","category_id":"audio",
	"attributes":[{"name":"Marca","value_name":"Sony"},{"name":"Modelo","value_name":"WH-1000XM5"}],
	"pictures":[{"url":"https://http2.mlstatic.com/p1.jpg"}],
	"seller":{"nickname":"AUDIOSHOP"}
}}}};
</script></html>`

func TestExtractProductDetailsFromState(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(detailPage))
	}))
	defer srv.Close()

	s := New(testConfig(srv.URL), utils.NewLogger())
	details, err := s.ExtractProductDetails(context.Background(), srv.URL+"/MLM-123456")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if details.ProductID != "MLM123456" {
		t.Errorf("product id: got %q", details.ProductID)
	}
	if details.Title != "Sony WH-1000XM5" || details.Price != 2999 {
		t.Errorf("title/price: got %q / %v", details.Title, details.Price)
	}
	if details.Condition != models.ConditionNew {
		t.Errorf("condition: got %q, want new", details.Condition)
	}
	if details.Brand != "Sony" || details.Model != "WH-1000XM5" {
		t.Errorf("brand/model from attributes: got %q / %q", details.Brand, details.Model)
	}
	if details.SellerName != "AUDIOSHOP" {
		t.Errorf("seller: got %q", details.SellerName)
	}
	if len(details.Images) != 1 {
		t.Errorf("images: got %d, want 1", len(details.Images))
	}
}

func TestExtractProductDetailsJSONLDFallback(t *testing.T) {
	page := `<html><script type="application/ld+json">
	{"@type":"Product","name":"Sony WH-1000XM5","sku":"MLM987",
	 "brand":{"@type":"Brand","name":"Sony"},
	 "itemCondition":"https://schema.org/NewCondition",
	 "offers":{"price":2899,"priceCurrency":"MXN"}}
	</script></html>`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page))
	}))
	defer srv.Close()

	s := New(testConfig(srv.URL), utils.NewLogger())
	details, err := s.ExtractProductDetails(context.Background(), srv.URL+"/MLM-987")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if details.ProductID != "MLM987" || details.Price != 2899 || details.Brand != "Sony" {
		t.Errorf("details: got %+v", details)
	}
	if details.Condition != models.ConditionNew {
		t.Errorf("condition: got %q, want new", details.Condition)
	}
}

func TestExtractProductDetailsNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>empty</body></html>"))
	}))
	defer srv.Close()

	s := New(testConfig(srv.URL), utils.NewLogger())
	_, err := s.ExtractProductDetails(context.Background(), srv.URL+"/whatever")
	if !errors.Is(err, ErrDetailsNotFound) {
		t.Errorf("got %v, want ErrDetailsNotFound", err)
	}
}
