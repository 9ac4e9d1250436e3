package agents

import (
	"context"
	"errors"
	"strings"

	"mercado-pricer/models"
	"mercado-pricer/utils"
)

// HeuristicStrategist derives search terms from a pivot product's record:
// brand plus model when both are known, otherwise the leading words of the
// title. Key attributes become alternative searches.
type HeuristicStrategist struct {
	logger *utils.Logger
}

// NewHeuristicStrategist creates the rule-based search strategist.
func NewHeuristicStrategist(logger *utils.Logger) *HeuristicStrategist {
	return &HeuristicStrategist{logger: logger}
}

// attribute names worth carrying into alternative searches
var keySpecAttributes = []string{"Marca", "Modelo", "Tipo", "Color", "Capacidad"}

// PlanSearch builds the search plan for a pivot product.
func (s *HeuristicStrategist) PlanSearch(ctx context.Context, pivot *models.ProductDetails) (*models.SearchPlan, error) {
	if pivot == nil {
		return nil, errors.New("nil pivot product")
	}

	plan := &models.SearchPlan{}

	switch {
	case pivot.Brand != "" && pivot.Model != "":
		plan.PrimarySearch = pivot.Brand + " " + pivot.Model
		plan.Reasoning = "brand and model known; searching by exact signature"
	case pivot.Title != "":
		plan.PrimarySearch = leadingWords(pivot.Title, 5)
		plan.Reasoning = "no brand/model attributes; searching by title prefix"
	default:
		return nil, errors.New("pivot product has no searchable identity")
	}

	if pivot.Title != "" && pivot.Title != plan.PrimarySearch {
		plan.AlternativeSearches = append(plan.AlternativeSearches, leadingWords(pivot.Title, 8))
	}
	if pivot.Brand != "" && pivot.Category != "" {
		plan.AlternativeSearches = append(plan.AlternativeSearches, pivot.Brand+" "+pivot.Category)
	}

	for _, name := range keySpecAttributes {
		if v, ok := pivot.Attributes[name]; ok && v != "" {
			plan.KeySpecs = append(plan.KeySpecs, name+": "+v)
		}
	}

	s.logger.Info("[strategist] Pivot %q → primary search %q", pivot.Title, plan.PrimarySearch)
	return plan, nil
}

func leadingWords(s string, n int) string {
	words := strings.Fields(s)
	if len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}
