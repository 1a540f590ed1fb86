// Package model defines the canonical grant record and pipeline result types.
package model

// Category is the closed classification taxonomy for grants.
type Category string

const (
	CategoryLongTerm      Category = "Long-Term & X-Risk"
	CategoryGlobalHealth  Category = "Global Health"
	CategoryAnimalWelfare Category = "Animal Welfare"
	CategoryMeta          Category = "Meta/Infrastructure"
	CategoryOther         Category = "Other"
)

// Categories lists every valid category in display order.
var Categories = []Category{
	CategoryLongTerm,
	CategoryGlobalHealth,
	CategoryAnimalWelfare,
	CategoryMeta,
	CategoryOther,
}

// Valid reports whether c is one of the closed taxonomy values.
func (c Category) Valid() bool {
	for _, v := range Categories {
		if c == v {
			return true
		}
	}
	return false
}

// ParseCategory maps s onto the closed taxonomy. Unknown values report
// ok=false so callers can fall back to their own classification.
func ParseCategory(s string) (Category, bool) {
	c := Category(s)
	return c, c.Valid()
}

// Grant is the canonical unit: one philanthropic disbursement, real or
// synthesized. Residual grants carry IsResidual=true and no SourceID.
type Grant struct {
	ID       string `json:"id"`
	SourceID string `json:"source_id,omitempty"`

	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
	Date     Date    `json:"date"`

	Grantmaker string   `json:"grantmaker"`
	Category   Category `json:"category"`
	FocusArea  string   `json:"focus_area,omitempty"`
	Fund       string   `json:"fund,omitempty"`

	Title       string `json:"title,omitempty"`
	Recipient   string `json:"recipient"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`

	IsResidual       bool     `json:"is_residual,omitempty"`
	ResidualNote     string   `json:"residual_note,omitempty"`
	ExcludeFromTotal bool     `json:"exclude_from_total,omitempty"`
	Funders          []string `json:"funders,omitempty"`
	Country          string   `json:"country,omitempty"`
	Topics           []string `json:"topics,omitempty"`
}

// AddFunder appends name to the funders set if not already present.
// The set is seeded with the grant's own grantmaker when empty.
func (g *Grant) AddFunder(name string) {
	if len(g.Funders) == 0 && g.Grantmaker != "" {
		g.Funders = append(g.Funders, g.Grantmaker)
	}
	for _, f := range g.Funders {
		if f == name {
			return
		}
	}
	g.Funders = append(g.Funders, name)
}

// Clone returns a deep copy of the grant. Slices are copied so that
// mutating the clone's funders or topics never aliases the original.
func (g Grant) Clone() Grant {
	out := g
	if g.Funders != nil {
		out.Funders = append([]string(nil), g.Funders...)
	}
	if g.Topics != nil {
		out.Topics = append([]string(nil), g.Topics...)
	}
	return out
}
