package customize

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"chatkit/src/models"
)

const themeClassPrefix = "theme-"

// StyleContext is the process-wide visual state: design-token variables, the
// applied theme class and the loaded font resources. It is passed explicitly to
// every renderer.
type StyleContext struct {
	mu         sync.RWMutex
	vars       map[string]string
	themeVars  map[string]bool
	themeClass string
	fontLink   string
	fontFaces  map[string]string
	remoteCSS  map[string]string
	version    uint64
	palette    *Palette
	listeners  []func()
}

func NewStyleContext() *StyleContext {
	return &StyleContext{
		vars:      map[string]string{},
		themeVars: map[string]bool{},
		fontFaces: map[string]string{},
		remoteCSS: map[string]string{},
	}
}

// OnChange registers fn to run after every mutation.
func (s *StyleContext) OnChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// changed bumps the version and must be called with the lock held; the
// returned function notifies listeners and runs after unlocking.
func (s *StyleContext) changed() func() {
	s.version++
	s.palette = nil
	listeners := append([]func(){}, s.listeners...)
	return func() {
		for _, fn := range listeners {
			fn()
		}
	}
}

// ApplyTheme replaces the theme class and the theme-owned variables.
func (s *StyleContext) ApplyTheme(name string, tokens models.ThemeDefinition) {
	s.mu.Lock()
	for k := range s.themeVars {
		delete(s.vars, k)
	}
	s.themeVars = make(map[string]bool, len(tokens))
	for k, v := range tokens {
		s.vars[k] = v
		s.themeVars[k] = true
	}
	s.themeClass = themeClassPrefix + name
	notify := s.changed()
	s.mu.Unlock()
	notify()
}

// SetVar sets one variable that survives theme changes.
func (s *StyleContext) SetVar(name, value string) {
	s.mu.Lock()
	s.vars[name] = value
	delete(s.themeVars, name)
	notify := s.changed()
	s.mu.Unlock()
	notify()
}

// Var returns one variable.
func (s *StyleContext) Var(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vars[name]
	return v, ok
}

// Vars returns a copy of every variable.
func (s *StyleContext) Vars() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.vars))
	for k, v := range s.vars {
		out[k] = v
	}
	return out
}

// ThemeClass returns the applied class, e.g. "theme-dark".
func (s *StyleContext) ThemeClass() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.themeClass
}

// AppliedTheme returns the theme name behind ThemeClass.
func (s *StyleContext) AppliedTheme() string {
	return strings.TrimPrefix(s.ThemeClass(), themeClassPrefix)
}

// SetFontLink replaces the single remote font stylesheet link.
func (s *StyleContext) SetFontLink(href string) {
	s.mu.Lock()
	if s.fontLink == href {
		s.mu.Unlock()
		return
	}
	s.fontLink = href
	notify := s.changed()
	s.mu.Unlock()
	notify()
}

func (s *StyleContext) FontLink() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fontLink
}

// SetFontFace replaces the @font-face declarations for one font name.
func (s *StyleContext) SetFontFace(name, css string) {
	s.mu.Lock()
	s.fontFaces[name] = css
	notify := s.changed()
	s.mu.Unlock()
	notify()
}

// FontFaces returns a copy of the declarations keyed by font name.
func (s *StyleContext) FontFaces() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.fontFaces))
	for k, v := range s.fontFaces {
		out[k] = v
	}
	return out
}

// SetRemoteFontCSS stores the stylesheet fetched for href.
func (s *StyleContext) SetRemoteFontCSS(href, css string) {
	s.mu.Lock()
	s.remoteCSS[href] = css
	notify := s.changed()
	s.mu.Unlock()
	notify()
}

// RemoteFontCSS returns the stylesheet loaded for the current font link.
func (s *StyleContext) RemoteFontCSS() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	css, ok := s.remoteCSS[s.fontLink]
	return css, ok
}

// Version increases on every mutation.
func (s *StyleContext) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Palette returns the lipgloss styles for the current variables.
func (s *StyleContext) Palette() *Palette {
	s.mu.RLock()
	p := s.palette
	s.mu.RUnlock()
	if p != nil {
		return p
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.palette == nil {
		s.palette = NewPalette(s.vars)
	}
	return s.palette
}

// CSS renders the context as a stylesheet for web embeds.
func (s *StyleContext) CSS() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var b strings.Builder
	if s.fontLink != "" {
		fmt.Fprintf(&b, "@import url('%s');\n\n", s.fontLink)
	}
	names := make([]string, 0, len(s.fontFaces))
	for name := range s.fontFaces {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		b.WriteString(s.fontFaces[name])
		b.WriteString("\n\n")
	}

	selector := ":root"
	if s.themeClass != "" {
		selector = ":root." + s.themeClass
	}
	keys := make([]string, 0, len(s.vars))
	for k := range s.vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	b.WriteString(selector + " {\n")
	for _, k := range keys {
		fmt.Fprintf(&b, "  %s: %s;\n", k, s.vars[k])
	}
	b.WriteString("}\n")
	return b.String()
}
