package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"mercado-pricer/models"
	"mercado-pricer/utils"
)

// GeminiAgent implements the classifier and recommender capabilities on top
// of the Gemini API. All prompts run in JSON mode with low temperature;
// malformed model output surfaces as an error and is handled at the
// pipeline boundary.
type GeminiAgent struct {
	client *genai.Client
	model  string
	logger *utils.Logger
}

// NewGeminiAgent creates a Gemini-backed agent.
func NewGeminiAgent(ctx context.Context, apiKey, model string, logger *utils.Logger) (*GeminiAgent, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &GeminiAgent{client: client, model: model, logger: logger}, nil
}

const classifyPrompt = `You are an expert at classifying e-commerce products.
Given a TARGET product and a list of OFFERS, decide for each offer whether it
is truly the same product or a direct variant (comparable), an accessory
(case, cable, charger, screen protector), or a bundle/kit of multiple items.
Be strict: different models are not comparable.

TARGET PRODUCT: %s

OFFERS:
%s

Reply with a JSON array, one object per offer, in the same order:
[{"item_id": "...", "title": "...", "comparable": true, "accessory": false,
  "bundle": false, "confidence": 0.9, "reason": "..."}]`

// Classify asks the model for a per-offer comparability verdict and
// partitions the offers by the verdicts, matching on title.
func (a *GeminiAgent) Classify(ctx context.Context, target string, offers []models.Offer) (*models.MatchResult, error) {
	var sb strings.Builder
	for i, o := range offers {
		fmt.Fprintf(&sb, "%d. [%s] %s ($%.2f)\n", i+1, o.ItemID, o.Title, o.Price)
	}

	raw, err := a.generate(ctx, fmt.Sprintf(classifyPrompt, target, sb.String()))
	if err != nil {
		return nil, err
	}

	var classifications []models.Classification
	if err := json.Unmarshal([]byte(raw), &classifications); err != nil {
		return nil, fmt.Errorf("classifier output parse: %w", err)
	}

	result := partitionOffers(offers, classifications)

	a.logger.Info("[gemini] Classified %d offers → %d comparable", len(offers), len(result.Comparable))
	return result, nil
}

// partitionOffers pairs the model's verdicts back onto the offers. The
// prompt fixes the offer order, so a one-verdict-per-offer response pairs
// by position; anything else falls back to item-id matching. Titles repeat
// across marketplace listings and are never used as keys.
func partitionOffers(offers []models.Offer, classifications []models.Classification) *models.MatchResult {
	byID := make(map[string]bool, len(classifications))
	for _, cl := range classifications {
		if cl.ItemID != "" {
			byID[cl.ItemID] = cl.Comparable
		}
	}

	result := &models.MatchResult{
		Comparable:      []models.Offer{},
		Excluded:        []models.Offer{},
		Classifications: classifications,
	}
	for i, o := range offers {
		comparable := false
		if len(classifications) == len(offers) {
			comparable = classifications[i].Comparable
		} else if o.ItemID != "" {
			comparable = byID[o.ItemID]
		}
		if comparable {
			result.Comparable = append(result.Comparable, o)
		} else {
			result.Excluded = append(result.Excluded, o)
		}
	}
	return result
}

const recommendPrompt = `You are a pricing analyst for an e-commerce seller.
Given the market statistics below, recommend a selling price.

TARGET PRODUCT: %s
COST: %.2f
TARGET MARGIN PERCENT: %.1f
MARKET POSITION: %s (target percentile %.0f, minimum viable price %.2f)
STATISTICS: %s

Reply with a single JSON object:
{"recommended_price": 0, "confidence": "low|medium|high",
 "target_percentile": 0, "margin_percent": 0, "reasoning": "...",
 "alternative_prices": [0, 0, 0], "market_position": "budget|competitive|premium"}`

// Recommend asks the model for a pricing strategy grounded in the computed
// statistics.
func (a *GeminiAgent) Recommend(ctx context.Context, req models.RecommendationRequest) (*models.Recommendation, error) {
	statsJSON, err := json.Marshal(req.Statistics)
	if err != nil {
		return nil, fmt.Errorf("marshal statistics: %w", err)
	}

	raw, err := a.generate(ctx, fmt.Sprintf(recommendPrompt,
		req.TargetProduct, req.Cost, req.TargetMarginPercent,
		req.Target.Position, req.Target.TargetPercentile, req.Target.MinViablePrice,
		statsJSON))
	if err != nil {
		return nil, err
	}

	var rec models.Recommendation
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, fmt.Errorf("recommender output parse: %w", err)
	}
	if rec.RecommendedPrice <= 0 {
		return nil, fmt.Errorf("recommender returned non-positive price %.2f", rec.RecommendedPrice)
	}

	a.logger.Info("[gemini] Recommended %.2f (%s)", rec.RecommendedPrice, rec.Confidence)
	return &rec, nil
}

func (a *GeminiAgent) generate(ctx context.Context, prompt string) (string, error) {
	resp, err := a.client.Models.GenerateContent(ctx, a.model, genai.Text(prompt),
		&genai.GenerateContentConfig{
			Temperature:      genai.Ptr(float32(0.1)),
			ResponseMIMEType: "application/json",
		})
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("gemini returned empty response")
	}
	return stripFences(text), nil
}

// stripFences removes a markdown code fence if the model wrapped its JSON
// in one despite the JSON response mode.
func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
