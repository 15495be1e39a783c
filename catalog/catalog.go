// Package catalog owns the application catalog: the YAML-described
// categories and applications, and the group-based filtering that decides
// what each user sees.
package catalog

// Application is one entry in the catalog. An empty Groups list makes the
// application public to every authenticated user.
type Application struct {
	ID          string   `yaml:"id" json:"id"`
	Name        string   `yaml:"name" json:"name"`
	Description string   `yaml:"description" json:"description"`
	URL         string   `yaml:"url" json:"url"`
	Icon        string   `yaml:"icon" json:"icon"`
	Groups      []string `yaml:"groups,omitempty" json:"groups,omitempty"`
	External    bool     `yaml:"external,omitempty" json:"external,omitempty"`
}

// Category is the display metadata of one catalog section.
type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Icon        string `json:"icon"`
	Order       int    `json:"order"`
	Description string `json:"description,omitempty"`
}

// CategoryData is a category as configured, with its applications and the
// groups whose members see every application in it.
type CategoryData struct {
	Name        string        `yaml:"name"`
	Icon        string        `yaml:"icon"`
	Order       int           `yaml:"order"`
	Description string        `yaml:"description,omitempty"`
	AdminGroups []string      `yaml:"adminGroups,omitempty"`
	Apps        []Application `yaml:"apps"`
}

// CategoryWithApps pairs a category with the applications a caller may see.
type CategoryWithApps struct {
	Category Category      `json:"category"`
	Apps     []Application `json:"apps"`
}
