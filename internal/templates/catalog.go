// Package templates holds the static catalog of document templates and their
// questionnaires. The catalog is immutable after process start.
package templates

import "sort"

// InputKind is the form control used to answer a question.
type InputKind string

const (
	InputText     InputKind = "text"
	InputTextarea InputKind = "textarea"
	InputSelect   InputKind = "select"
	InputRadio    InputKind = "radio"
)

type Question struct {
	ID          string    `json:"id"`
	Prompt      string    `json:"question"`
	Kind        InputKind `json:"type"`
	Options     []string  `json:"options,omitempty"`
	Placeholder string    `json:"placeholder,omitempty"`
	Required    bool      `json:"required"`
}

type Template struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	Questions   []Question `json:"questions"`
}

// Summary is the list view of a template (no questions).
type Summary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

var yesNo = []string{"Yes", "No"}

var catalog = map[string]Template{
	"terms-of-service": {
		ID:          "terms-of-service",
		Name:        "Terms of Service",
		Description: "Generate a comprehensive Terms of Service agreement for your website or application",
		Category:    "legal",
		Questions: []Question{
			{ID: "companyName", Prompt: "What is your company's legal name?", Kind: InputText, Placeholder: "e.g., Acme Corporation", Required: true},
			{ID: "serviceType", Prompt: "What type of service do you provide?", Kind: InputSelect, Required: true,
				Options: []string{"Web Application", "Mobile App", "SaaS Platform", "E-commerce Store", "Content Platform", "Other"}},
			{ID: "jurisdiction", Prompt: "Which country's laws govern this agreement?", Kind: InputText, Placeholder: "e.g., United States", Required: true},
			{ID: "userDataCollection", Prompt: "Do you collect user data?", Kind: InputRadio, Options: yesNo, Required: true},
			{ID: "additionalTerms", Prompt: "Are there any additional terms or specific requirements you'd like to include?", Kind: InputTextarea,
				Placeholder: "Enter any additional terms or requirements..."},
		},
	},
	"privacy-policy": {
		ID:          "privacy-policy",
		Name:        "Privacy Policy",
		Description: "Create a detailed Privacy Policy that complies with global privacy regulations",
		Category:    "legal",
		Questions: []Question{
			{ID: "companyName", Prompt: "What is your company's legal name?", Kind: InputText, Placeholder: "e.g., Acme Corporation", Required: true},
			{ID: "dataCollectionPurpose", Prompt: "What is the primary purpose of collecting user data?", Kind: InputTextarea,
				Placeholder: "Explain why you collect user data...", Required: true},
			{ID: "dataTypes", Prompt: "What types of personal data do you collect?", Kind: InputSelect, Required: true,
				Options: []string{"Contact Information", "Payment Details", "Usage Data", "Device Information", "Location Data", "All of the above"}},
			{ID: "thirdPartySharing", Prompt: "Do you share user data with third parties?", Kind: InputRadio, Options: yesNo, Required: true},
			{ID: "userRights", Prompt: "What rights do users have regarding their data?", Kind: InputTextarea,
				Placeholder: "Describe user rights and how they can exercise them...", Required: true},
		},
	},
	"nda": {
		ID:          "nda",
		Name:        "Non-Disclosure Agreement",
		Description: "Protect confidential information shared between your company and another party",
		Category:    "business",
		Questions: []Question{
			{ID: "companyName", Prompt: "What is your company's legal name?", Kind: InputText, Placeholder: "e.g., Acme Corporation", Required: true},
			{ID: "counterparty", Prompt: "Who is the other party to the agreement?", Kind: InputText, Placeholder: "e.g., Jane Doe or Globex Inc.", Required: true},
			{ID: "ndaType", Prompt: "Is the agreement mutual or one-way?", Kind: InputRadio, Options: []string{"Mutual", "One-way"}, Required: true},
			{ID: "purpose", Prompt: "Why is confidential information being shared?", Kind: InputTextarea,
				Placeholder: "e.g., evaluating a potential partnership...", Required: true},
			{ID: "term", Prompt: "How long should confidentiality obligations last?", Kind: InputSelect,
				Options: []string{"1 year", "2 years", "3 years", "5 years", "Indefinitely"}, Required: true},
			{ID: "jurisdiction", Prompt: "Which country's laws govern this agreement?", Kind: InputText, Placeholder: "e.g., United States", Required: true},
		},
	},
}

// Get looks up a template by id.
func Get(id string) (Template, bool) {
	t, ok := catalog[id]
	return t, ok
}

// List returns summaries of every template ordered by name. When category is
// non-empty and not "all", only templates of that category are returned.
func List(category string) []Summary {
	out := make([]Summary, 0, len(catalog))
	for _, t := range catalog {
		if category != "" && category != "all" && t.Category != category {
			continue
		}
		out = append(out, Summary{ID: t.ID, Name: t.Name, Description: t.Description, Category: t.Category})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// RequiredMissing returns the ids of required questions without a non-empty answer.
// Generation does not enforce this; it is exposed for callers that want to.
func (t Template) RequiredMissing(answers map[string]string) []string {
	var missing []string
	for _, q := range t.Questions {
		if q.Required && answers[q.ID] == "" {
			missing = append(missing, q.ID)
		}
	}
	return missing
}
