package mercado

import (
	"encoding/json"
	"regexp"
)

// jsonldScriptRegexp matches structured-data script blocks.
var jsonldScriptRegexp = regexp.MustCompile(`(?is)<script[^>]+type="application/ld\+json"[^>]*>(.*?)</script>`)

// ExtractJSONLDPayloads parses every JSON-LD script block in the page and
// returns the raw parsed values, one per block. Blocks that fail to parse
// are skipped. Offer mining walks these directly so every node is visited
// exactly once; pre-collecting product nodes would hand the miner
// overlapping subtrees.
func ExtractJSONLDPayloads(html string) []any {
	var payloads []any
	for _, m := range jsonldScriptRegexp.FindAllStringSubmatch(html, -1) {
		var data any
		if err := json.Unmarshal([]byte(m[1]), &data); err != nil {
			continue
		}
		payloads = append(payloads, data)
	}
	return payloads
}

// ExtractJSONLDNodes collects the object nodes that look like products:
// anything carrying a name/title field together with an offers-or-price
// field. Used for pivot detail extraction. The walk is an explicit stack,
// not recursion, so deeply nested untrusted payloads cannot exhaust the
// call stack.
func ExtractJSONLDNodes(html string) []map[string]any {
	var nodes []map[string]any

	for _, data := range ExtractJSONLDPayloads(html) {
		stack := []any{data}
		for len(stack) > 0 {
			x := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			switch v := x.(type) {
			case map[string]any:
				_, hasName := v["name"]
				_, hasTitle := v["title"]
				_, hasOffers := v["offers"]
				_, hasPrice := v["price"]
				if (hasName || hasTitle) && (hasOffers || hasPrice) {
					nodes = append(nodes, v)
				}
				for _, child := range v {
					switch child.(type) {
					case map[string]any, []any:
						stack = append(stack, child)
					}
				}
			case []any:
				for _, child := range v {
					switch child.(type) {
					case map[string]any, []any:
						stack = append(stack, child)
					}
				}
			}
		}
	}

	return nodes
}
