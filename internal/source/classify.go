package source

import (
	"strings"

	"github.com/grantscope/grants-cli/internal/model"
)

// categoryRules map focus-area keywords to the closed taxonomy. Rules are
// checked in order; the first hit wins.
var categoryRules = []struct {
	keywords []string
	category model.Category
}{
	{
		keywords: []string{
			"ai safety", "ai risk", "ai governance", "advanced ai",
			"alignment", "artificial intelligence", "x-risk", "existential",
			"biosecurity", "pandemic", "catastrophic", "longtermis",
			"long-term future", "nuclear",
		},
		category: model.CategoryLongTerm,
	},
	{
		keywords: []string{
			"global health", "malaria", "deworming", "vaccin",
			"nutrition", "vitamin", "poverty", "cash transfer",
			"water quality", "maternal",
		},
		category: model.CategoryGlobalHealth,
	},
	{
		keywords: []string{
			"animal", "farm", "broiler", "cage-free",
			"fish welfare", "invertebrate", "alternative protein",
		},
		category: model.CategoryAnimalWelfare,
	},
	{
		keywords: []string{
			"effective altruism", "movement", "community building",
			"infrastructure", "meta", "operations", "prioritization",
			"cause exploration",
		},
		category: model.CategoryMeta,
	},
}

// classifyFocusArea maps a source focus-area string to a category.
// Unmatched focus areas fall into Other.
func classifyFocusArea(focusArea string) model.Category {
	lower := strings.ToLower(focusArea)
	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.category
			}
		}
	}
	return model.CategoryOther
}
