package biz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/propertyai/internal/model"
)

func TestFilterExtractor_FullQuery(t *testing.T) {
	e := NewFilterExtractor()

	filter := e.Extract("Show me a 2BHK under ₹80L in Adyar")

	require.NotNil(t, filter.Price)
	assert.Equal(t, float64(0), filter.Price.Min)
	assert.Equal(t, float64(8_000_000), filter.Price.Max)
	assert.Equal(t, "2", filter.BHK)
	assert.Equal(t, "adyar", filter.Location)
}

func TestFilterExtractor_PriceVariants(t *testing.T) {
	e := NewFilterExtractor()

	tests := []struct {
		query string
		max   float64
	}{
		{"flats below 50 lakhs", 5_000_000},
		{"less than ₹1.5 cr", 15_000_000},
		{"under 2 crore please", 20_000_000},
		{"under ₹75l", 7_500_000},
		{"flats under 8000000", 8_000_000},
		{"below ₹4500000 near the beach", 4_500_000},
	}
	for _, tc := range tests {
		filter := e.Extract(tc.query)
		require.NotNil(t, filter.Price, "query %q", tc.query)
		assert.Equal(t, tc.max, filter.Price.Max, "query %q", tc.query)
	}
}

func TestFilterExtractor_BHKVariants(t *testing.T) {
	e := NewFilterExtractor()

	assert.Equal(t, "3", e.Extract("any 3bhk available?").BHK)
	assert.Equal(t, "2", e.Extract("looking for a 2 BHK").BHK)
	assert.Equal(t, "4", e.Extract("4-BHK villas").BHK)
}

func TestFilterExtractor_NoConstraints(t *testing.T) {
	e := NewFilterExtractor()

	filter := e.Extract("tell me about stamp duty rules")
	assert.True(t, filter.Empty())
}

func TestParsePriceValue(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"₹85L", 8_500_000, true},
		{"1.2Cr", 12_000_000, true},
		{"8500000", 8_500_000, true},
		{"45 lakhs", 4_500_000, true},
		{"2 crore", 20_000_000, true},
		{"", 0, false},
		{"negotiable", 0, false},
	}
	for _, tc := range tests {
		got, ok := ParsePriceValue(tc.in)
		assert.Equal(t, tc.ok, ok, "input %q", tc.in)
		if tc.ok {
			assert.Equal(t, tc.want, got, "input %q", tc.in)
		}
	}
}

func TestMatchesProperty(t *testing.T) {
	doc := model.Document{
		Content: "Title: Sea View | Location: Adyar | Price: ₹75L | BHK: 2",
		Metadata: map[string]string{
			model.MetaDocType: model.DocTypeProperty,
			"location":        "Adyar",
			"price":           "₹75L",
			"bhk":             "2",
		},
	}

	match := model.QueryFilter{
		Price:    &model.PriceRange{Min: 0, Max: 8_000_000},
		BHK:      "2",
		Location: "adyar",
	}
	assert.True(t, MatchesProperty(doc, match))

	tooCheapCeiling := model.QueryFilter{Price: &model.PriceRange{Min: 0, Max: 7_000_000}}
	assert.False(t, MatchesProperty(doc, tooCheapCeiling))

	wrongBHK := model.QueryFilter{BHK: "3"}
	assert.False(t, MatchesProperty(doc, wrongBHK))

	wrongLocation := model.QueryFilter{Location: "velachery"}
	assert.False(t, MatchesProperty(doc, wrongLocation))

	assert.True(t, MatchesProperty(doc, model.QueryFilter{}))
}

func TestMatchesProperty_MissingMetadata(t *testing.T) {
	doc := model.Document{
		Content:  "Title: Mystery Home",
		Metadata: map[string]string{model.MetaDocType: model.DocTypeProperty},
	}

	filter := model.QueryFilter{Price: &model.PriceRange{Min: 0, Max: 10_000_000}}
	assert.False(t, MatchesProperty(doc, filter))
}
