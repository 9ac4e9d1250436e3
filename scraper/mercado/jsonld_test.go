package mercado

import "testing"

func TestExtractJSONLDNodes(t *testing.T) {
	html := `<html>
	<script type="application/ld+json">
	{"@context":"https://schema.org","@type":"Product","name":"Sony WH-1000XM5",
	 "offers":{"@type":"Offer","price":"2999.00","priceCurrency":"MXN"}}
	</script>
	<script type="application/ld+json">
	{this is not valid json}
	</script>
	<script type="application/ld+json">
	{"@graph":[{"@type":"BreadcrumbList","name":"Audio"},
	            {"@type":"Product","name":"Sony WH-1000XM4","price":2499}]}
	</script>
	</html>`

	nodes := ExtractJSONLDNodes(html)
	if len(nodes) != 2 {
		t.Fatalf("nodes: got %d, want 2", len(nodes))
	}

	names := make(map[string]bool)
	for _, n := range nodes {
		if name, ok := n["name"].(string); ok {
			names[name] = true
		}
	}
	if !names["Sony WH-1000XM5"] || !names["Sony WH-1000XM4"] {
		t.Errorf("collected names: got %v", names)
	}
}

func TestExtractJSONLDNodesIgnoresNonProducts(t *testing.T) {
	// Name without offers/price, and offers without a name: neither
	// qualifies as a product node.
	html := `<script type="application/ld+json">
	{"@type":"Organization","name":"MercadoLibre"}
	</script>
	<script type="application/ld+json">
	{"offers":{"price":100}}
	</script>`

	if nodes := ExtractJSONLDNodes(html); len(nodes) != 0 {
		t.Errorf("nodes: got %d, want 0", len(nodes))
	}
}

func TestExtractJSONLDNodesDeepNesting(t *testing.T) {
	// A product buried a few levels down is still found by the walk.
	html := `<script type="application/ld+json">
	{"a":{"b":{"c":[{"d":{"name":"Nested","price":10}}]}}}
	</script>`

	nodes := ExtractJSONLDNodes(html)
	if len(nodes) != 1 {
		t.Fatalf("nodes: got %d, want 1", len(nodes))
	}
	if nodes[0]["name"] != "Nested" {
		t.Errorf("name: got %v, want Nested", nodes[0]["name"])
	}
}

func TestExtractJSONLDNodesNoScripts(t *testing.T) {
	if nodes := ExtractJSONLDNodes("<html><body>plain page</body></html>"); len(nodes) != 0 {
		t.Errorf("nodes: got %d, want 0", len(nodes))
	}
}
