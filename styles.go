package differ

// Theme maps a user-facing theme id to a syntax highlighting style.
type Theme struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Mode  string `json:"mode"`  // "dark" or "light"
	Style string `json:"style"` // chroma style name
}

// DefaultThemeID is used when a request names no theme or an unknown one.
const DefaultThemeID = "vscode-dark"

// Themes lists the supported themes.
var Themes = []Theme{
	{ID: "vscode-dark", Label: "VS Code Dark", Mode: "dark", Style: "github-dark"},
	{ID: "vscode-light", Label: "VS Code Light", Mode: "light", Style: "vs"},
	{ID: "pierre-dark", Label: "Pierre Dark", Mode: "dark", Style: "onedark"},
	{ID: "pierre-light", Label: "Pierre Light", Mode: "light", Style: "github"},
	{ID: "gruvbox-dark-hard", Label: "Gruvbox Dark Hard", Mode: "dark", Style: "gruvbox"},
	{ID: "gruvbox-dark-soft", Label: "Gruvbox Dark Soft", Mode: "dark", Style: "gruvbox"},
	{ID: "gruvbox-light", Label: "Gruvbox Light", Mode: "light", Style: "gruvbox-light"},
	{ID: "dracula", Label: "Dracula", Mode: "dark", Style: "dracula"},
}

// ResolveTheme returns the theme with the given id, or the default theme.
func ResolveTheme(id string) Theme {
	var fallback Theme
	for _, t := range Themes {
		if t.ID == id {
			return t
		}
		if t.ID == DefaultThemeID {
			fallback = t
		}
	}
	return fallback
}
