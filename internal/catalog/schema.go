package catalog

// File is the top-level shape of a catalog source, whether fetched over
// HTTP (JSON) or read from a local JSON/YAML file.
type File struct {
	Technologies []TechnologyProps `json:"technologies" yaml:"technologies"`
}

// TechnologyProps contains the raw catalog entry properties before
// mapping to the domain model.
type TechnologyProps struct {
	ID          int64           `json:"id" yaml:"id"`
	Title       string          `json:"title" yaml:"title"`
	Description string          `json:"description" yaml:"description,omitempty"`
	Category    string          `json:"category" yaml:"category"`
	Difficulty  string          `json:"difficulty" yaml:"difficulty"`
	Status      string          `json:"status,omitempty" yaml:"status,omitempty"`
	Notes       string          `json:"notes,omitempty" yaml:"notes,omitempty"`
	Resources   []ResourceProps `json:"resources,omitempty" yaml:"resources,omitempty"`
	CreatedAt   string          `json:"createdAt,omitempty" yaml:"createdAt,omitempty"`
}

// ResourceProps is a raw learning resource attached to a catalog entry.
type ResourceProps struct {
	Title string `json:"title" yaml:"title"`
	URL   string `json:"url" yaml:"url"`
	Type  string `json:"type" yaml:"type"`
}
