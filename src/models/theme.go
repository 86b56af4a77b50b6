package models

// ThemeDefinition is a flat set of design tokens, e.g. "--background" -> "#ffffff".
type ThemeDefinition map[string]string

// FontCategory classifies a font family.
type FontCategory string

const (
	FontSansSerif   FontCategory = "sans-serif"
	FontSerif       FontCategory = "serif"
	FontMonospace   FontCategory = "monospace"
	FontDisplay     FontCategory = "display"
	FontHandwriting FontCategory = "handwriting"
)

// FontFile is one self-hosted font file.
type FontFile struct {
	Weight int    `yaml:"weight" json:"weight"`
	Style  string `yaml:"style" json:"style"`
	URL    string `yaml:"url" json:"url"`
	Format string `yaml:"format,omitempty" json:"format,omitempty"`
}

// FontDefinition describes a font family known to the catalog.
type FontDefinition struct {
	Name            string       `yaml:"name" json:"name"`
	GoogleFontsName string       `yaml:"googleFontsName,omitempty" json:"googleFontsName,omitempty"`
	Weights         []int        `yaml:"weights,omitempty" json:"weights,omitempty"`
	Category        FontCategory `yaml:"category,omitempty" json:"category,omitempty"`
	Fallback        string       `yaml:"fallback" json:"fallback"`
	Display         string       `yaml:"display,omitempty" json:"display,omitempty"`
	Files           []FontFile   `yaml:"files,omitempty" json:"files,omitempty"`
}

// Remote reports whether the font is served by Google Fonts.
func (f FontDefinition) Remote() bool {
	return f.GoogleFontsName != ""
}

// SelfHosted reports whether the font ships its own files.
func (f FontDefinition) SelfHosted() bool {
	return len(f.Files) > 0
}

// FontSet is the triple of fonts applied to the style context.
type FontSet struct {
	Primary string `yaml:"primary" json:"primary"`
	Heading string `yaml:"heading" json:"heading"`
	Mono    string `yaml:"mono" json:"mono"`
}
