package templates

type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

const DefaultCategory = "miscellaneous"

var categories = []Category{
	{ID: "all", Name: "All"},
	{ID: "business", Name: "Business Documents"},
	{ID: "legal", Name: "Legal Documents"},
	{ID: "real-estate", Name: "Real Estate Documents"},
	{ID: "personal", Name: "Personal Documents"},
	{ID: "employment", Name: "Employment & HR"},
	{ID: "technology", Name: "Technology & Startup"},
	{ID: "creative", Name: "Creative & Media"},
	{ID: "financial", Name: "Financial Documents"},
	{ID: "educational", Name: "Educational & Nonprofit"},
	{ID: DefaultCategory, Name: "Miscellaneous"},
}

// Categories returns the category list in display order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// CategoryOf returns the category of a template, or DefaultCategory when the
// template is unknown or uncategorised.
func CategoryOf(templateID string) string {
	if t, ok := catalog[templateID]; ok && t.Category != "" {
		return t.Category
	}
	return DefaultCategory
}
