// Package customize resolves the active theme and font set and applies them to
// a StyleContext shared by every renderer.
package customize

import (
	"sort"

	"chatkit/src/models"
)

// RequiredTokens are the variables every theme is expected to define.
var RequiredTokens = []string{
	"--background",
	"--foreground",
	"--primary",
	"--primary-foreground",
	"--secondary",
	"--secondary-foreground",
	"--muted",
	"--muted-foreground",
	"--accent",
	"--accent-foreground",
	"--destructive",
	"--border",
	"--input",
	"--ring",
	"--card",
	"--card-foreground",
	"--popover",
	"--popover-foreground",
}

// FallbackTheme is applied when a requested theme is not in the catalog.
const FallbackTheme = "light"

type swatch struct {
	bg, fg, primary, primaryFg, secondary, secondaryFg string
	muted, mutedFg, accent, accentFg, destructive      string
	border, card                                       string
}

func (s swatch) tokens() models.ThemeDefinition {
	return models.ThemeDefinition{
		"--background":           s.bg,
		"--foreground":           s.fg,
		"--primary":              s.primary,
		"--primary-foreground":   s.primaryFg,
		"--secondary":            s.secondary,
		"--secondary-foreground": s.secondaryFg,
		"--muted":                s.muted,
		"--muted-foreground":     s.mutedFg,
		"--accent":               s.accent,
		"--accent-foreground":    s.accentFg,
		"--destructive":          s.destructive,
		"--border":               s.border,
		"--input":                s.border,
		"--ring":                 s.primary,
		"--card":                 s.card,
		"--card-foreground":      s.fg,
		"--popover":              s.card,
		"--popover-foreground":   s.fg,
		"--radius":               "0.5rem",
	}
}

var builtinOrder = []string{"light", "dark", "slate", "blue", "green", "purple", "rose", "amber", "teal"}

var builtinThemes = map[string]models.ThemeDefinition{
	"light": swatch{
		bg: "#ffffff", fg: "#0a0a0a", primary: "#171717", primaryFg: "#fafafa",
		secondary: "#f5f5f5", secondaryFg: "#171717", muted: "#f5f5f5", mutedFg: "#737373",
		accent: "#f5f5f5", accentFg: "#171717", destructive: "#ef4444", border: "#e5e5e5", card: "#ffffff",
	}.tokens(),
	"dark": swatch{
		bg: "#0a0a0a", fg: "#fafafa", primary: "#fafafa", primaryFg: "#171717",
		secondary: "#262626", secondaryFg: "#fafafa", muted: "#262626", mutedFg: "#a3a3a3",
		accent: "#262626", accentFg: "#fafafa", destructive: "#dc2626", border: "#262626", card: "#171717",
	}.tokens(),
	"slate": swatch{
		bg: "#f8fafc", fg: "#0f172a", primary: "#334155", primaryFg: "#f8fafc",
		secondary: "#e2e8f0", secondaryFg: "#1e293b", muted: "#f1f5f9", mutedFg: "#64748b",
		accent: "#cbd5e1", accentFg: "#0f172a", destructive: "#e11d48", border: "#cbd5e1", card: "#ffffff",
	}.tokens(),
	"blue": swatch{
		bg: "#f0f9ff", fg: "#0c4a6e", primary: "#0284c7", primaryFg: "#f0f9ff",
		secondary: "#e0f2fe", secondaryFg: "#075985", muted: "#e0f2fe", mutedFg: "#0369a1",
		accent: "#bae6fd", accentFg: "#0c4a6e", destructive: "#dc2626", border: "#bae6fd", card: "#ffffff",
	}.tokens(),
	"green": swatch{
		bg: "#f0fdf4", fg: "#14532d", primary: "#16a34a", primaryFg: "#f0fdf4",
		secondary: "#dcfce7", secondaryFg: "#166534", muted: "#dcfce7", mutedFg: "#15803d",
		accent: "#bbf7d0", accentFg: "#14532d", destructive: "#dc2626", border: "#bbf7d0", card: "#ffffff",
	}.tokens(),
	"purple": swatch{
		bg: "#faf5ff", fg: "#3b0764", primary: "#9333ea", primaryFg: "#faf5ff",
		secondary: "#f3e8ff", secondaryFg: "#581c87", muted: "#f3e8ff", mutedFg: "#7e22ce",
		accent: "#e9d5ff", accentFg: "#3b0764", destructive: "#dc2626", border: "#e9d5ff", card: "#ffffff",
	}.tokens(),
	"rose": swatch{
		bg: "#fff1f2", fg: "#4c0519", primary: "#e11d48", primaryFg: "#fff1f2",
		secondary: "#ffe4e6", secondaryFg: "#881337", muted: "#ffe4e6", mutedFg: "#be123c",
		accent: "#fecdd3", accentFg: "#4c0519", destructive: "#b91c1c", border: "#fecdd3", card: "#ffffff",
	}.tokens(),
	"amber": swatch{
		bg: "#fffbeb", fg: "#451a03", primary: "#d97706", primaryFg: "#fffbeb",
		secondary: "#fef3c7", secondaryFg: "#78350f", muted: "#fef3c7", mutedFg: "#b45309",
		accent: "#fde68a", accentFg: "#451a03", destructive: "#dc2626", border: "#fde68a", card: "#ffffff",
	}.tokens(),
	"teal": swatch{
		bg: "#f0fdfa", fg: "#134e4a", primary: "#0d9488", primaryFg: "#f0fdfa",
		secondary: "#ccfbf1", secondaryFg: "#115e59", muted: "#ccfbf1", mutedFg: "#0f766e",
		accent: "#99f6e4", accentFg: "#134e4a", destructive: "#dc2626", border: "#99f6e4", card: "#ffffff",
	}.tokens(),
}

var builtinLabels = map[string]string{
	"light":  "Light",
	"dark":   "Dark",
	"slate":  "Slate",
	"blue":   "Ocean Blue",
	"green":  "Nature Green",
	"purple": "Purple Dream",
	"rose":   "Rose Garden",
	"amber":  "Warm Amber",
	"teal":   "Aqua Teal",
	"system": "System",
}

// Catalog is the built-in themes merged with custom ones. Custom entries win.
type Catalog struct {
	themes map[string]models.ThemeDefinition
	labels map[string]string
	order  []string
}

func NewCatalog(custom map[string]models.ThemeDefinition, labels map[string]string) *Catalog {
	c := &Catalog{
		themes: make(map[string]models.ThemeDefinition, len(builtinThemes)+len(custom)),
		labels: make(map[string]string, len(builtinLabels)+len(labels)),
	}
	for name, def := range builtinThemes {
		c.themes[name] = def
	}
	for name, l := range builtinLabels {
		c.labels[name] = l
	}
	c.order = append(c.order, builtinOrder...)

	extra := make([]string, 0, len(custom))
	for name, def := range custom {
		if _, ok := builtinThemes[name]; !ok {
			extra = append(extra, name)
		}
		c.themes[name] = def
	}
	sort.Strings(extra)
	c.order = append(c.order, extra...)

	for name, l := range labels {
		c.labels[name] = l
	}
	return c
}

// Theme returns the tokens for name.
func (c *Catalog) Theme(name string) (models.ThemeDefinition, bool) {
	def, ok := c.themes[name]
	return def, ok
}

func (c *Catalog) Has(name string) bool {
	_, ok := c.themes[name]
	return ok
}

// Names lists built-ins in display order followed by custom themes.
func (c *Catalog) Names() []string {
	return append([]string(nil), c.order...)
}

// Label returns the display name, defaulting to the key.
func (c *Catalog) Label(name string) string {
	if l, ok := c.labels[name]; ok {
		return l
	}
	return name
}

// MissingTokens lists required tokens absent from the named theme.
func (c *Catalog) MissingTokens(name string) []string {
	def, ok := c.themes[name]
	if !ok {
		return append([]string(nil), RequiredTokens...)
	}
	var missing []string
	for _, tok := range RequiredTokens {
		if _, ok := def[tok]; !ok {
			missing = append(missing, tok)
		}
	}
	return missing
}
