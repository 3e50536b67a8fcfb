package homepage

// BookmarksConfig is the root structure of bookmarks.yaml:
// - GroupName: [ { BookmarkName: [ { abbr, href, ... } ] } ]
// Each bookmark name maps to a list with a single entry.
type BookmarksConfig []map[string][]map[string][]BookmarkEntry

// BookmarkEntry is the single entry under a bookmark name
type BookmarkEntry struct {
	Icon        string `yaml:"icon,omitempty"`
	Abbr        string `yaml:"abbr,omitempty"`
	Href        string `yaml:"href"`
	Description string `yaml:"description,omitempty"`
}

// ServicesConfig is the root structure of services.yaml.
// Homepage uses dynamic keys, so we parse as []map[string][]map[string]ServiceProps
type ServicesConfig []map[string][]map[string]ServiceProps

// ServiceProps contains the service properties we read
type ServiceProps struct {
	Href        string                 `yaml:"href"`
	Icon        string                 `yaml:"icon,omitempty"`
	Description string                 `yaml:"description,omitempty"`
	Widget      map[string]interface{} `yaml:"widget,omitempty"`
}
