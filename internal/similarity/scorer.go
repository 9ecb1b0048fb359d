package similarity

import (
	"math"
	"strings"

	"github.com/rajavignesh573/shopmatch/internal/model"
)

const (
	// Blend between token-set overlap and character-level similarity in
	// NameSimilarity.
	tokenWeight = 0.55
	charWeight  = 0.45

	// Brand mismatch is a near-binary signal: below this fuzzy floor the
	// brand score snaps to exactly 0 instead of a small positive number.
	brandFuzzyFloor = 0.75

	// Neutral price score when either side has no price data.
	missingPriceScore = 0.5

	// Slope of the price falloff; a 50% relative gap lands below 0.5.
	priceFalloff = 1.2
)

// corporateSuffixes are trailing brand tokens stripped before comparison, so
// "Brand" and "Brand Inc" compare equal.
var corporateSuffixes = map[string]bool{
	"inc": true, "co": true, "ltd": true, "llc": true, "corp": true,
	"corporation": true, "company": true, "gmbh": true, "plc": true,
	"sa": true, "srl": true, "ag": true,
}

// NameSimilarity scores two product titles. It blends a word-order-insensitive
// token overlap with a character-level metric that tolerates partial-word
// variants like "Fox 3" vs "Fox3". Empty input on either side scores 0.
func NameSimilarity(a, b string, alg model.Algorithm) float64 {
	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		return 0.0
	}
	if na == nb {
		return 1.0
	}

	tokens := tokenOverlap(strings.Fields(na), strings.Fields(nb))
	chars := charSimilarity(collapse(na), collapse(nb), alg)

	return clamp(tokenWeight*tokens + charWeight*chars)
}

// BrandSimilarity scores two brand names. Exact match after normalization and
// corporate-suffix stripping is 1.0; minor punctuation and hyphenation
// differences score via the fuzzy metric; anything below the fuzzy floor is
// exactly 0. Empty input on either side scores 0.
func BrandSimilarity(a, b string, alg model.Algorithm) float64 {
	ca, cb := brandKey(a), brandKey(b)
	if ca == "" || cb == "" {
		return 0.0
	}
	if ca == cb {
		return 1.0
	}

	fuzzy := charSimilarity(ca, cb, alg)
	if fuzzy < brandFuzzyFloor {
		return 0.0
	}
	return clamp(fuzzy)
}

// brandKey normalizes a brand to its comparable form: tokenized, trailing
// corporate suffixes dropped, then collapsed to a single string.
func brandKey(s string) string {
	tokens := Tokenize(s)
	for len(tokens) > 1 && corporateSuffixes[tokens[len(tokens)-1]] {
		tokens = tokens[:len(tokens)-1]
	}
	return strings.Join(tokens, "")
}

// GTINSimilarity is 1 iff both identifiers are present and equal, else 0.
func GTINSimilarity(a, b string) float64 {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if a == "" || b == "" {
		return 0.0
	}
	if a == b {
		return 1.0
	}
	return 0.0
}

// PriceSimilarity decreases monotonically with the relative gap between two
// prices. Equal prices score 1.0; a 50% gap scores below 0.5. Missing price
// data on either side is neutral rather than an error.
func PriceSimilarity(a, b *float64) float64 {
	if a == nil || b == nil {
		return missingPriceScore
	}

	pa, pb := math.Abs(*a), math.Abs(*b)
	if pa == pb {
		return 1.0
	}

	largest := math.Max(pa, pb)
	if largest == 0 {
		return 1.0
	}

	relDiff := math.Abs(pa-pb) / largest
	return clamp(1.0 - priceFalloff*relDiff)
}

// Item is the field projection both sides of a comparison share.
type Item struct {
	Title string
	Brand string
	GTIN  string
	Price *float64
}

// ProductItem projects a local product for scoring.
func ProductItem(p model.Product) Item {
	return Item{Title: p.Title, Brand: p.Brand, GTIN: p.GTIN, Price: p.Price}
}

// ListingItem projects an external listing for scoring.
func ListingItem(l model.ExternalListing) Item {
	return Item{Title: l.Title, Brand: l.Brand, GTIN: l.GTIN, Price: l.Price}
}

// Score computes the per-field breakdown and the weighted overall score under
// the given rule. Weights are normalized by their sum, so the overall stays
// in [0, 1] for any positive weight total; a non-positive total falls back to
// the built-in defaults.
func Score(a, b Item, rule model.MatchingRule) (float64, model.ScoreBreakdown) {
	breakdown := model.ScoreBreakdown{
		Name:  NameSimilarity(a.Title, b.Title, rule.Algorithm),
		Brand: BrandSimilarity(a.Brand, b.Brand, rule.Algorithm),
		GTIN:  GTINSimilarity(a.GTIN, b.GTIN),
		Price: PriceSimilarity(a.Price, b.Price),
	}

	wn, wb, wg, wp := rule.WeightName, rule.WeightBrand, rule.WeightGTIN, rule.WeightPrice
	total := wn + wb + wg + wp
	if total <= 0 {
		def := model.DefaultRule()
		wn, wb, wg, wp = def.WeightName, def.WeightBrand, def.WeightGTIN, def.WeightPrice
		total = wn + wb + wg + wp
	}

	overall := (wn*breakdown.Name + wb*breakdown.Brand + wg*breakdown.GTIN + wp*breakdown.Price) / total
	return clamp(overall), breakdown
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
