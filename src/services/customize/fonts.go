package customize

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"chatkit/src/models"
)

const (
	sansFallback  = `system-ui, -apple-system, BlinkMacSystemFont, "Segoe UI", sans-serif`
	serifFallback = `Georgia, Cambria, "Times New Roman", Times, serif`
	monoFallback  = `ui-monospace, SFMono-Regular, Menlo, Monaco, Consolas, monospace`

	googleFontsBase = "https://fonts.googleapis.com/css2"
)

func googleFont(name string, category models.FontCategory, fallback string, weights ...int) models.FontDefinition {
	return models.FontDefinition{
		Name:            name,
		GoogleFontsName: name,
		Weights:         weights,
		Category:        category,
		Fallback:        fallback,
		Display:         "swap",
	}
}

var builtinFonts = map[string]models.FontDefinition{
	"Inter":            googleFont("Inter", models.FontSansSerif, sansFallback, 100, 200, 300, 400, 500, 600, 700, 800, 900),
	"Roboto":           googleFont("Roboto", models.FontSansSerif, sansFallback, 100, 300, 400, 500, 700, 900),
	"Open Sans":        googleFont("Open Sans", models.FontSansSerif, sansFallback, 300, 400, 500, 600, 700, 800),
	"Lato":             googleFont("Lato", models.FontSansSerif, sansFallback, 100, 300, 400, 700, 900),
	"Poppins":          googleFont("Poppins", models.FontSansSerif, sansFallback, 100, 200, 300, 400, 500, 600, 700, 800, 900),
	"Montserrat":       googleFont("Montserrat", models.FontSansSerif, sansFallback, 100, 200, 300, 400, 500, 600, 700, 800, 900),
	"Merriweather":     googleFont("Merriweather", models.FontSerif, serifFallback, 300, 400, 700, 900),
	"Playfair Display": googleFont("Playfair Display", models.FontSerif, serifFallback, 400, 500, 600, 700, 800, 900),
	"Fira Code":        googleFont("Fira Code", models.FontMonospace, monoFallback, 300, 400, 500, 600, 700),
	"JetBrains Mono":   googleFont("JetBrains Mono", models.FontMonospace, monoFallback, 100, 200, 300, 400, 500, 600, 700, 800),
	"Source Code Pro":  googleFont("Source Code Pro", models.FontMonospace, monoFallback, 200, 300, 400, 500, 600, 700, 800, 900),
}

// FontCatalog resolves font keys against the built-in Google fonts, then custom fonts.
type FontCatalog struct {
	custom map[string]models.FontDefinition
}

func NewFontCatalog(custom map[string]models.FontDefinition) *FontCatalog {
	c := &FontCatalog{custom: make(map[string]models.FontDefinition, len(custom))}
	for key, def := range custom {
		if def.Name == "" {
			def.Name = key
		}
		if def.Fallback == "" {
			def.Fallback = sansFallback
		}
		c.custom[key] = def
	}
	return c
}

// Lookup returns the definition for key.
func (c *FontCatalog) Lookup(key string) (models.FontDefinition, bool) {
	if def, ok := builtinFonts[key]; ok {
		return def, true
	}
	def, ok := c.custom[key]
	return def, ok
}

// IsCustom reports whether key names a custom font.
func (c *FontCatalog) IsCustom(key string) bool {
	_, builtin := builtinFonts[key]
	_, custom := c.custom[key]
	return custom && !builtin
}

// Keys lists every known font key, sorted.
func (c *FontCatalog) Keys() []string {
	keys := make([]string, 0, len(builtinFonts)+len(c.custom))
	for k := range builtinFonts {
		keys = append(keys, k)
	}
	for k := range c.custom {
		if _, ok := builtinFonts[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// CSSValue is the value of a font variable: '<name>', <fallback>.
func CSSValue(def models.FontDefinition) string {
	return fmt.Sprintf("'%s', %s", def.Name, def.Fallback)
}

// GoogleFontsURL builds one stylesheet URL loading every remote font in defs.
// Fonts without a Google name are skipped; an empty string means nothing to load.
func GoogleFontsURL(defs []models.FontDefinition) string {
	var families []string
	for _, def := range defs {
		if !def.Remote() {
			continue
		}
		family := strings.ReplaceAll(url.QueryEscape(def.GoogleFontsName), "%2B", "+")
		if len(def.Weights) > 0 {
			ws := make([]string, len(def.Weights))
			for i, w := range def.Weights {
				ws[i] = strconv.Itoa(w)
			}
			family += ":wght@" + strings.Join(ws, ";")
		}
		families = append(families, "family="+family)
	}
	if len(families) == 0 {
		return ""
	}
	return googleFontsBase + "?" + strings.Join(families, "&") + "&display=swap"
}

// FontFaceCSS renders one @font-face block per self-hosted file of def.
func FontFaceCSS(def models.FontDefinition) string {
	if !def.SelfHosted() {
		return ""
	}
	display := def.Display
	if display == "" {
		display = "swap"
	}
	blocks := make([]string, 0, len(def.Files))
	for _, f := range def.Files {
		style := f.Style
		if style == "" {
			style = "normal"
		}
		format := f.Format
		if format == "" {
			format = "woff2"
		}
		blocks = append(blocks, fmt.Sprintf(
			"@font-face {\n  font-family: '%s';\n  font-weight: %d;\n  font-style: %s;\n  font-display: %s;\n  src: url('%s') format('%s');\n}",
			def.Name, f.Weight, style, display, f.URL, format))
	}
	return strings.Join(blocks, "\n")
}
