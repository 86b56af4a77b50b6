package customize

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"chatkit/src/config"
	"chatkit/src/models"
	"chatkit/src/services/metrics"
	"chatkit/src/services/storage"
)

// SystemTheme is the preference that follows the OS colour scheme.
const SystemTheme = config.SystemTheme

// Font variables set by ApplyFonts.
const (
	VarFontPrimary        = "--font-primary"
	VarFontHeading        = "--font-heading"
	VarFontMono           = "--font-mono"
	VarTransitionDuration = "--theme-transition-duration"
)

// Options wires an Applier.
type Options struct {
	Theme   config.ThemeSettings
	Fonts   config.FontSettings
	Context *StyleContext
	Storage storage.KVStore
	Keys    storage.Keys
	Scheme  SchemeDetector
	Loader  FontLoader
	Logger  *slog.Logger
	Metrics *metrics.Recorder
}

// Applier resolves the theme preference and font set and writes them into a
// StyleContext.
type Applier struct {
	theme   config.ThemeSettings
	fontCfg config.FontSettings
	catalog *Catalog
	fontCat *FontCatalog
	style   *StyleContext
	store   storage.KVStore
	keys    storage.Keys
	scheme  SchemeDetector
	loader  FontLoader
	logger  *slog.Logger
	metrics *metrics.Recorder

	mu         sync.Mutex
	preference string
	fonts      models.FontSet
}

func NewApplier(opts Options) *Applier {
	a := &Applier{
		theme:   opts.Theme,
		fontCfg: opts.Fonts,
		catalog: NewCatalog(opts.Theme.Custom, opts.Theme.Labels),
		fontCat: NewFontCatalog(opts.Fonts.Custom),
		style:   opts.Context,
		store:   opts.Storage,
		keys:    opts.Keys,
		scheme:  opts.Scheme,
		loader:  opts.Loader,
		logger:  opts.Logger,
		metrics: opts.Metrics,
		fonts:   opts.Fonts.Set(),
	}
	if a.style == nil {
		a.style = NewStyleContext()
	}
	if a.scheme == nil {
		a.scheme = NewStaticScheme(false)
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	if a.keys.Prefix == "" {
		a.keys.Prefix = config.DefaultStoragePrefix
	}
	if a.theme.DefaultTheme == "" {
		a.theme.DefaultTheme = config.DefaultTheme
	}
	a.preference = a.theme.DefaultTheme
	return a
}

func (a *Applier) Context() *StyleContext { return a.style }
func (a *Applier) Catalog() *Catalog      { return a.catalog }
func (a *Applier) Fonts() *FontCatalog    { return a.fontCat }

// Preference returns the current theme preference, possibly SystemTheme.
func (a *Applier) Preference() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.preference
}

// CurrentFonts returns the font keys in use.
func (a *Applier) CurrentFonts() models.FontSet {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.fonts
}

// Resolve decides the theme preference. The configured default wins over a
// differing persisted value, which is then overwritten.
func (a *Applier) Resolve() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.preference = a.resolveLocked()
	return a.preference
}

func (a *Applier) resolveLocked() string {
	def := a.theme.DefaultTheme
	if !a.theme.Persist() || a.store == nil {
		return def
	}

	saved, found, err := a.store.Get(a.keys.Theme())
	if err != nil {
		a.logger.Error("failed to read theme preference", "key", a.keys.Theme(), "error", err)
		a.metrics.PersistFailed("read")
		return def
	}
	switch {
	case found && saved != def:
		a.logger.Info("configured default theme replaces saved preference", "saved", saved, "default", def)
		a.persistLocked(def)
	case found:
	default:
		a.persistLocked(def)
	}
	return def
}

func (a *Applier) persistLocked(theme string) {
	if !a.theme.Persist() || a.store == nil {
		return
	}
	if err := a.store.Set(a.keys.Theme(), theme); err != nil {
		a.logger.Error("failed to save theme preference", "key", a.keys.Theme(), "error", err)
		a.metrics.PersistFailed("write")
	}
}

// Effective maps a preference to a concrete theme name.
func (a *Applier) Effective(preference string) string {
	if preference == SystemTheme {
		return schemeName(a.scheme)
	}
	return preference
}

// Apply writes the named theme into the style context. Unknown names fall back
// to the light theme. It returns the theme actually applied.
func (a *Applier) Apply(name string) string {
	name = a.Effective(name)
	tokens, ok := a.catalog.Theme(name)
	if !ok {
		a.logger.Warn("theme not found, using fallback", "theme", name, "fallback", FallbackTheme)
		name = FallbackTheme
		tokens, _ = a.catalog.Theme(FallbackTheme)
	}
	if missing := a.catalog.MissingTokens(name); len(missing) > 0 {
		a.logger.Warn("theme is missing tokens", "theme", name, "missing", strings.Join(missing, ","))
	}

	if ms := a.theme.Transition(); ms > 0 {
		withTransition := make(models.ThemeDefinition, len(tokens)+1)
		for k, v := range tokens {
			withTransition[k] = v
		}
		withTransition[VarTransitionDuration] = fmt.Sprintf("%dms", ms)
		tokens = withTransition
	}
	a.style.ApplyTheme(name, tokens)
	a.metrics.ThemeApplied(name)
	a.logger.Debug("theme applied", "theme", name)
	return name
}

// ApplyFonts sets the font variables and loads remote and self-hosted faces.
// Load failures are logged.
func (a *Applier) ApplyFonts(ctx context.Context) {
	fonts := a.CurrentFonts()
	slots := []struct {
		key, variable string
	}{
		{fonts.Primary, VarFontPrimary},
		{fonts.Heading, VarFontHeading},
		{fonts.Mono, VarFontMono},
	}

	var remote []models.FontDefinition
	seen := map[string]bool{}
	for _, slot := range slots {
		def, ok := a.fontCat.Lookup(slot.key)
		if !ok {
			a.logger.Warn("font not found, using default font", "font", slot.key, "variable", slot.variable)
			continue
		}
		a.style.SetVar(slot.variable, CSSValue(def))
		if seen[slot.key] {
			continue
		}
		seen[slot.key] = true
		if def.Remote() {
			remote = append(remote, def)
		}
		if def.SelfHosted() {
			a.style.SetFontFace(def.Name, FontFaceCSS(def))
		}
	}

	if !a.fontCfg.GoogleFonts() {
		return
	}
	href := GoogleFontsURL(remote)
	if href == "" {
		return
	}
	a.style.SetFontLink(href)
	if a.loader == nil {
		return
	}
	css, err := a.loader.Load(ctx, href)
	if err != nil {
		a.logger.Warn("failed to load remote fonts", "error", err)
		return
	}
	a.style.SetRemoteFontCSS(href, css)
}

// Init resolves and applies the theme, then the fonts.
func (a *Applier) Init(ctx context.Context) string {
	applied := a.Apply(a.Resolve())
	a.ApplyFonts(ctx)
	return applied
}

// SetTheme records a user choice of theme and applies it.
func (a *Applier) SetTheme(name string) (string, error) {
	if name != SystemTheme && !a.catalog.Has(name) {
		return "", fmt.Errorf("theme %q is not available", name)
	}
	a.mu.Lock()
	a.preference = name
	a.persistLocked(name)
	a.mu.Unlock()
	return a.Apply(name), nil
}

// SetFonts replaces the non-empty slots of fonts and re-applies them.
func (a *Applier) SetFonts(ctx context.Context, fonts models.FontSet) error {
	a.mu.Lock()
	next := a.fonts
	if fonts.Primary != "" {
		next.Primary = fonts.Primary
	}
	if fonts.Heading != "" {
		next.Heading = fonts.Heading
	}
	if fonts.Mono != "" {
		next.Mono = fonts.Mono
	}
	var invalid []string
	for slot, key := range map[string]string{"primary": next.Primary, "heading": next.Heading, "mono": next.Mono} {
		if _, ok := a.fontCat.Lookup(key); !ok {
			invalid = append(invalid, slot)
		}
	}
	if len(invalid) > 0 {
		a.mu.Unlock()
		sort.Strings(invalid)
		return fmt.Errorf("invalid fonts: %s", strings.Join(invalid, ", "))
	}
	a.fonts = next
	a.mu.Unlock()
	a.ApplyFonts(ctx)
	return nil
}

// ResetToDefaults forgets the saved preference and re-applies the configured
// theme and fonts.
func (a *Applier) ResetToDefaults(ctx context.Context) string {
	a.mu.Lock()
	a.preference = a.theme.DefaultTheme
	a.fonts = a.fontCfg.Set()
	if a.store != nil && a.theme.Persist() {
		if err := a.store.Delete(a.keys.Theme()); err != nil {
			a.logger.Error("failed to clear theme preference", "key", a.keys.Theme(), "error", err)
			a.metrics.PersistFailed("write")
		}
	}
	pref := a.preference
	a.mu.Unlock()

	applied := a.Apply(pref)
	a.ApplyFonts(ctx)
	return applied
}

// SyncScheme re-applies the system theme when the preference is SystemTheme
// and the applied theme no longer matches the detected scheme. It reports
// whether a theme was applied.
func (a *Applier) SyncScheme() bool {
	if a.Preference() != SystemTheme {
		return false
	}
	want := a.Effective(SystemTheme)
	if !a.catalog.Has(want) {
		want = FallbackTheme
	}
	if want == a.style.AppliedTheme() {
		return false
	}
	applied := a.Apply(SystemTheme)
	a.logger.Info("system colour scheme changed", "theme", applied)
	return true
}

// WatchScheme calls SyncScheme every interval. It returns when ctx is done or
// tracking is disabled.
func (a *Applier) WatchScheme(ctx context.Context, interval time.Duration) {
	if !a.theme.TrackSystem() || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.SyncScheme()
		}
	}
}

// Validate checks configured theme and font keys against the catalogs.
func (a *Applier) Validate() []string {
	var problems []string
	if def := a.theme.DefaultTheme; def != SystemTheme && !a.catalog.Has(def) {
		problems = append(problems, fmt.Sprintf("default theme %q is not in the theme catalog", def))
	}
	fonts := a.fontCfg.Set()
	for _, slot := range []struct{ name, key string }{
		{"primary", fonts.Primary}, {"heading", fonts.Heading}, {"mono", fonts.Mono},
	} {
		if _, ok := a.fontCat.Lookup(slot.key); !ok {
			problems = append(problems, fmt.Sprintf("%s font %q is not in the font catalog", slot.name, slot.key))
		}
	}
	return problems
}

// Warnings lists custom themes that lack required tokens.
func (a *Applier) Warnings() []string {
	var warnings []string
	for _, name := range a.catalog.Names() {
		if _, builtin := builtinThemes[name]; builtin {
			continue
		}
		if missing := a.catalog.MissingTokens(name); len(missing) > 0 {
			warnings = append(warnings, fmt.Sprintf("custom theme %q is missing %s", name, strings.Join(missing, ", ")))
		}
	}
	return warnings
}
