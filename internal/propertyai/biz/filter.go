// Package biz implements the question answering pipeline: filter
// extraction, retrieval, response composition, caching, and sessions.
package biz

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/kart-io/propertyai/internal/model"
)

const (
	lakh  = 100_000
	crore = 10_000_000
)

// knownLocations are the neighbourhoods recognized in queries. Matching is
// case-insensitive substring search.
var knownLocations = []string{
	"adyar",
	"velachery",
	"anna nagar",
	"nungambakkam",
	"besant nagar",
}

var (
	pricePattern = regexp.MustCompile(`(?i)(?:under|below|less than)\s*₹?\s*(\d+(?:\.\d+)?)\s*(lakhs|lakh|l|crores|crore|cr|c)?\b`)
	bhkPattern   = regexp.MustCompile(`(?i)(\d+)\s*-?\s*bhk`)
)

// FilterExtractor derives structured constraints from free-text queries.
type FilterExtractor struct {
	locations []string
}

// NewFilterExtractor creates an extractor with the default location list.
func NewFilterExtractor() *FilterExtractor {
	return &FilterExtractor{locations: knownLocations}
}

// Extract parses price ceiling, BHK count, and location from the query.
// Unrecognized aspects stay unset; an empty filter means no constraints.
func (e *FilterExtractor) Extract(query string) model.QueryFilter {
	lower := strings.ToLower(query)
	filter := model.QueryFilter{}

	if m := pricePattern.FindStringSubmatch(query); m != nil {
		if amount, err := strconv.ParseFloat(m[1], 64); err == nil {
			// Without a unit the number is taken as rupees.
			multiplier := 1.0
			switch unit := strings.ToLower(m[2]); {
			case strings.HasPrefix(unit, "c"):
				multiplier = crore
			case strings.HasPrefix(unit, "l"):
				multiplier = lakh
			}
			filter.Price = &model.PriceRange{Min: 0, Max: amount * multiplier}
		}
	}

	if m := bhkPattern.FindStringSubmatch(query); m != nil {
		filter.BHK = m[1]
	}

	for _, loc := range e.locations {
		if strings.Contains(lower, loc) {
			filter.Location = loc
			break
		}
	}

	return filter
}

// MatchesProperty reports whether a property document satisfies the filter.
// A document missing the metadata for a set constraint does not match.
func MatchesProperty(doc model.Document, filter model.QueryFilter) bool {
	if filter.Empty() {
		return true
	}

	if filter.Price != nil {
		price, ok := ParsePriceValue(doc.Metadata["price"])
		if !ok || price < filter.Price.Min || price > filter.Price.Max {
			return false
		}
	}

	if filter.BHK != "" {
		if normalizeBHK(doc.Metadata["bhk"]) != filter.BHK {
			return false
		}
	}

	if filter.Location != "" {
		if !strings.Contains(strings.ToLower(doc.Metadata["location"]), filter.Location) {
			return false
		}
	}

	return true
}

// ParsePriceValue converts listing price strings such as "₹85L", "1.2Cr",
// or "8500000" to rupees.
func ParsePriceValue(s string) (float64, bool) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "₹"))
	if s == "" {
		return 0, false
	}

	lower := strings.ToLower(s)
	multiplier := 1.0
	switch {
	case strings.HasSuffix(lower, "crores"):
		multiplier, s = crore, s[:len(s)-6]
	case strings.HasSuffix(lower, "crore"):
		multiplier, s = crore, s[:len(s)-5]
	case strings.HasSuffix(lower, "cr"):
		multiplier, s = crore, s[:len(s)-2]
	case strings.HasSuffix(lower, "lakhs"):
		multiplier, s = lakh, s[:len(s)-5]
	case strings.HasSuffix(lower, "lakh"):
		multiplier, s = lakh, s[:len(s)-4]
	case strings.HasSuffix(lower, "l"):
		multiplier, s = lakh, s[:len(s)-1]
	case strings.HasSuffix(lower, "c"):
		multiplier, s = crore, s[:len(s)-1]
	}

	value, err := strconv.ParseFloat(strings.TrimSpace(strings.ReplaceAll(s, ",", "")), 64)
	if err != nil {
		return 0, false
	}
	return value * multiplier, true
}

// normalizeBHK extracts the leading digits from values like "2", "2 BHK",
// or "2bhk".
func normalizeBHK(s string) string {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	return s[:end]
}
