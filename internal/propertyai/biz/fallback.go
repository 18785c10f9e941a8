package biz

import (
	"fmt"
	"strings"

	"github.com/kart-io/propertyai/internal/model"
)

const (
	fallbackPropertyLimit  = 4
	fallbackGuidelineLimit = 3
	fallbackGenericLimit   = 3
	guidelineExcerptLen    = 500
	genericExcerptLen      = 350
)

const fallbackFooter = "---\n" +
	"PropertyAI Assistant | Powered by vector search\n" +
	"Ask me about: property searches, price ranges, locations, amenities, or guidelines"

// Query intents recognized by the local composer.
type queryIntent int

const (
	intentGeneric queryIntent = iota
	intentProperty
	intentGuideline
)

var propertyIntentWords = []string{
	"property", "flat", "apartment", "bhk", "price", "location", "rent", "buy",
}

var guidelineIntentWords = []string{
	"rule", "guideline", "policy", "regulation", "law", "legal", "compliance",
}

// classifyIntent picks the response template from keywords in the query.
// Property keywords win over guideline keywords, matching the check order.
func classifyIntent(query string) queryIntent {
	lower := strings.ToLower(query)
	for _, w := range propertyIntentWords {
		if strings.Contains(lower, w) {
			return intentProperty
		}
	}
	for _, w := range guidelineIntentWords {
		if strings.Contains(lower, w) {
			return intentGuideline
		}
	}
	return intentGeneric
}

// LocalComposer builds answers directly from retrieved matches without any
// model call. It is the last tier of the generation chain and never fails.
type LocalComposer struct{}

func NewLocalComposer() *LocalComposer {
	return &LocalComposer{}
}

// ComposeEmpty is the answer when retrieval found nothing for the query.
func (c *LocalComposer) ComposeEmpty(query string) string {
	return fmt.Sprintf(`No Results Found

I couldn't find any relevant information for: %q

This might be because:
- The uploaded files don't contain information related to your query
- Different keywords or phrases may match better
- The relevant data files may not have been uploaded and processed yet

Try asking about:
- Properties: "2BHK apartments under 50L", "properties in Adyar with parking"
- Guidelines: "construction rules", "noise policies", "building regulations"
- Amenities: "properties with gym", "furnished apartments", "metro nearby"`, query)
}

// Compose summarizes the matches. The template is chosen by the query's
// intent keywords, not by which document types the pool happens to hold, so
// a guideline question with only property matches still reports that no
// guidelines were found.
func (c *LocalComposer) Compose(query string, matches []model.RetrievedMatch) string {
	if len(matches) == 0 {
		return c.ComposeEmpty(query)
	}

	var properties, guidelines []model.RetrievedMatch
	for _, m := range matches {
		if m.Document.IsProperty() {
			properties = append(properties, m)
		} else {
			guidelines = append(guidelines, m)
		}
	}

	var sb strings.Builder
	switch classifyIntent(query) {
	case intentProperty:
		if len(properties) > 0 {
			composeProperties(&sb, properties)
		} else {
			sb.WriteString("No Properties Found\n\n")
			sb.WriteString("I couldn't find any properties matching your criteria in the uploaded data.\n\n")
			sb.WriteString("Suggestions:\n")
			sb.WriteString("- Check if property data files are uploaded\n")
			sb.WriteString("- Try broader search terms\n")
			sb.WriteString("- Verify the spelling of location names\n")
		}
	case intentGuideline:
		if len(guidelines) > 0 {
			composeGuidelines(&sb, guidelines)
		} else {
			sb.WriteString("No Guidelines Found\n\n")
			sb.WriteString("I couldn't find relevant guidelines for your query.\n\n")
			sb.WriteString("Suggestions:\n")
			sb.WriteString("- Ensure PDF guideline documents are uploaded\n")
			sb.WriteString("- Try different keywords related to your query\n")
			sb.WriteString("- Ask about specific topics like \"construction rules\" or \"noise policies\"\n")
		}
	default:
		composeGeneric(&sb, query, matches)
	}

	sb.WriteString("\n")
	sb.WriteString(fallbackFooter)
	return sb.String()
}

func composeProperties(sb *strings.Builder, properties []model.RetrievedMatch) {
	if len(properties) > fallbackPropertyLimit {
		properties = properties[:fallbackPropertyLimit]
	}
	sb.WriteString("Property Search Results\n\n")
	sb.WriteString("Found the following matching properties:\n\n")
	for i, m := range properties {
		details := parsePropertyDetails(m.Document.Content)

		fmt.Fprintf(sb, "Property %d:\n", i+1)
		if v := details["title"]; v != "" {
			fmt.Fprintf(sb, "  %s\n", v)
		}
		if v := details["price"]; v != "" {
			fmt.Fprintf(sb, "  Price: %s\n", v)
		}
		if v := details["location"]; v != "" {
			fmt.Fprintf(sb, "  Location: %s\n", v)
		}
		if v := details["bhk"]; v != "" {
			fmt.Fprintf(sb, "  Type: %s BHK\n", v)
		}
		if v := details["amenities"]; v != "" {
			fmt.Fprintf(sb, "  Amenities: %s\n", v)
		}
		fmt.Fprintf(sb, "  Match Score: %.1f%%\n\n", m.Score*100)
	}
	sb.WriteString("Need more specific results? Try adding filters like price range, location, or amenities.\n")
}

func composeGuidelines(sb *strings.Builder, guidelines []model.RetrievedMatch) {
	if len(guidelines) > fallbackGuidelineLimit {
		guidelines = guidelines[:fallbackGuidelineLimit]
	}
	sb.WriteString("Guidelines & Regulations\n\n")
	for i, m := range guidelines {
		fmt.Fprintf(sb, "Guideline %d:\n%s\n", i+1, excerpt(m.Document.Content, guidelineExcerptLen))
		fmt.Fprintf(sb, "Relevance: %.1f%%\n\n", m.Score*100)
	}
	sb.WriteString("Need clarification? Ask more specific questions about particular regulations or procedures.\n")
}

func composeGeneric(sb *strings.Builder, query string, matches []model.RetrievedMatch) {
	if len(matches) > fallbackGenericLimit {
		matches = matches[:fallbackGenericLimit]
	}
	fmt.Fprintf(sb, "Search Results for: %q\n\n", query)
	for i, m := range matches {
		label := "Guidelines"
		if m.Document.IsProperty() {
			label = "Property Data"
		}
		fmt.Fprintf(sb, "Result %d - %s:\n%s\n", i+1, label, excerpt(m.Document.Content, genericExcerptLen))
		fmt.Fprintf(sb, "Relevance: %.1f%%\n\n", m.Score*100)
	}
}

// parsePropertyDetails recovers the column values from a normalized
// "key: value | key: value" property row.
func parsePropertyDetails(content string) map[string]string {
	details := make(map[string]string)
	if !strings.Contains(content, "|") {
		return details
	}
	for _, pair := range strings.Split(content, "|") {
		key, value, ok := strings.Cut(pair, ":")
		if !ok {
			continue
		}
		details[strings.ToLower(strings.TrimSpace(key))] = strings.TrimSpace(value)
	}
	return details
}

// truncateRunes cuts s to at most limit runes, never splitting a rune.
func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == limit {
			return s[:i]
		}
		count++
	}
	return s
}

// excerpt truncates to limit runes with a trailing ellipsis when cut.
func excerpt(s string, limit int) string {
	cut := truncateRunes(s, limit)
	if len(cut) < len(s) {
		return cut + "..."
	}
	return s
}
