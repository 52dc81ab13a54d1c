package discovery

import (
	"strings"

	"github.com/jess-tech-lab/threader-ai/internal/models"
)

// IndustryToSubreddits maps loose industry hints to the communities where
// customers of that kind of product actually complain.
var IndustryToSubreddits = map[string][]string{
	"developer tools": {"programming", "devops", "webdev", "ExperiencedDevs"},
	"saas":            {"SaaS", "Entrepreneur", "smallbusiness", "startups"},
	"fintech":         {"personalfinance", "fintech", "CreditCards", "investing"},
	"gaming":          {"gaming", "pcgaming", "GameDeals"},
	"ecommerce":       {"ecommerce", "shopify", "FulfillmentByAmazon"},
	"productivity":    {"productivity", "software", "selfhosted"},
	"ai":              {"artificial", "MachineLearning", "ChatGPT", "LocalLLaMA"},
}

// generalCommunities are broad product-feedback venues worth a secondary
// pass no matter the industry.
var generalCommunities = []string{"software", "technology", "mildlyinfuriating", "assholedesign"}

// HeuristicSources is the deterministic fallback strategy: the company's own
// community (if it exists, Reddit will 404/403 and the collector skips it)
// is primary, industry and general communities are secondary.
func HeuristicSources(company, context string) models.SourceSet {
	companySlug := slugify(company)

	sources := []models.Source{
		{Name: companySlug, Relevance: models.RelevancePrimary},
	}

	seen := map[string]struct{}{strings.ToLower(companySlug): {}}
	appendUnique := func(name string, rel models.Relevance) {
		key := strings.ToLower(name)
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		sources = append(sources, models.Source{Name: name, Relevance: rel})
	}

	lowered := strings.ToLower(context)
	for industry, subs := range IndustryToSubreddits {
		if lowered != "" && strings.Contains(lowered, industry) {
			for _, sub := range subs {
				appendUnique(sub, models.RelevanceSecondary)
			}
		}
	}

	for _, sub := range generalCommunities {
		appendUnique(sub, models.RelevanceSecondary)
	}

	return models.SourceSet{
		Sources:     sources,
		SearchTerms: searchTerms(company, context),
	}
}

func searchTerms(company, context string) []string {
	terms := []string{company}

	low := strings.ToLower(company)
	if low != company {
		terms = append(terms, low)
	}
	if collapsed := strings.ReplaceAll(low, " ", ""); collapsed != low {
		terms = append(terms, collapsed)
	}

	for _, f := range strings.Fields(context) {
		f = strings.Trim(f, ",.")
		if len(f) > 3 && !strings.EqualFold(f, company) {
			terms = append(terms, strings.ToLower(f))
		}
	}

	return dedupeTerms(terms)
}

func dedupeTerms(terms []string) []string {
	seen := make(map[string]struct{}, len(terms))
	var out []string
	for _, t := range terms {
		key := strings.ToLower(strings.TrimSpace(t))
		if key == "" {
			continue
		}
		if _, ok := seen[key]; !ok {
			seen[key] = struct{}{}
			out = append(out, t)
		}
	}
	return out
}

func slugify(name string) string {
	return strings.ReplaceAll(strings.TrimSpace(name), " ", "")
}
