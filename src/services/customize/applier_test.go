package customize_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"chatkit/src/config"
	"chatkit/src/models"
	"chatkit/src/services/customize"
	"chatkit/src/services/storage"
	"chatkit/src/services/storage/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLoader struct {
	calls atomic.Int32
	hrefs []string
	err   error
}

func (l *stubLoader) Load(ctx context.Context, href string) (string, error) {
	l.calls.Add(1)
	l.hrefs = append(l.hrefs, href)
	if l.err != nil {
		return "", l.err
	}
	return "/* fonts */", nil
}

type harness struct {
	applier *customize.Applier
	kv      *repositories.MemoryRepository
	scheme  *customize.StaticScheme
	loader  *stubLoader
	logs    *bytes.Buffer
	cfg     *config.Config
}

func newHarness(t *testing.T, mutate func(cfg *config.Config)) *harness {
	t.Helper()
	cfg := config.Default()
	if mutate != nil {
		mutate(cfg)
	}
	h := &harness{
		kv:     repositories.NewMemoryRepository(),
		scheme: customize.NewStaticScheme(false),
		loader: &stubLoader{},
		logs:   &bytes.Buffer{},
		cfg:    cfg,
	}
	h.applier = h.build()
	return h
}

func (h *harness) build() *customize.Applier {
	return customize.NewApplier(customize.Options{
		Theme:   h.cfg.Theme,
		Fonts:   h.cfg.Fonts,
		Context: customize.NewStyleContext(),
		Storage: h.kv,
		Keys:    storage.Keys{Prefix: "test"},
		Scheme:  h.scheme,
		Loader:  h.loader,
		Logger:  slog.New(slog.NewTextHandler(h.logs, &slog.HandlerOptions{Level: slog.LevelDebug})),
	})
}

func (h *harness) saved(t *testing.T) (string, bool) {
	t.Helper()
	v, ok, err := h.kv.Get("test-theme")
	require.NoError(t, err)
	return v, ok
}

func TestResolveNoPersistedPreference(t *testing.T) {
	h := newHarness(t, func(cfg *config.Config) { cfg.Theme.DefaultTheme = "dark" })

	assert.Equal(t, "dark", h.applier.Resolve())
	saved, ok := h.saved(t)
	assert.True(t, ok)
	assert.Equal(t, "dark", saved)
}

func TestResolveConfigWinsOverPersisted(t *testing.T) {
	h := newHarness(t, func(cfg *config.Config) { cfg.Theme.DefaultTheme = "dark" })
	require.NoError(t, h.kv.Set("test-theme", "blue"))

	assert.Equal(t, "dark", h.applier.Resolve())
	saved, _ := h.saved(t)
	assert.Equal(t, "dark", saved)
}

func TestResolveMatchingPersisted(t *testing.T) {
	h := newHarness(t, func(cfg *config.Config) { cfg.Theme.DefaultTheme = "teal" })
	require.NoError(t, h.kv.Set("test-theme", "teal"))
	assert.Equal(t, "teal", h.applier.Resolve())
}

func TestResolvePersistenceDisabled(t *testing.T) {
	off := false
	h := newHarness(t, func(cfg *config.Config) {
		cfg.Theme.DefaultTheme = "green"
		cfg.Theme.PersistTheme = &off
	})
	require.NoError(t, h.kv.Set("test-theme", "blue"))

	assert.Equal(t, "green", h.applier.Resolve())
	saved, _ := h.saved(t)
	assert.Equal(t, "blue", saved, "store untouched")
}

func TestResolveIsIdempotent(t *testing.T) {
	h := newHarness(t, func(cfg *config.Config) { cfg.Theme.DefaultTheme = "purple" })
	require.NoError(t, h.kv.Set("test-theme", "rose"))
	first := h.applier.Resolve()
	second := h.applier.Resolve()
	assert.Equal(t, first, second)
}

func TestSystemPreferencePersistsSentinel(t *testing.T) {
	h := newHarness(t, func(cfg *config.Config) { cfg.Theme.DefaultTheme = config.SystemTheme })
	h.scheme.Set(true)

	applied := h.applier.Init(context.Background())
	assert.Equal(t, "dark", applied)
	assert.Equal(t, "theme-dark", h.applier.Context().ThemeClass())
	saved, _ := h.saved(t)
	assert.Equal(t, config.SystemTheme, saved)
	assert.Equal(t, config.SystemTheme, h.applier.Preference())
}

func TestApplyUnknownThemeFallsBackToLight(t *testing.T) {
	h := newHarness(t, nil)

	applied := h.applier.Apply("nonexistent-theme")
	assert.Equal(t, customize.FallbackTheme, applied)
	assert.Equal(t, "theme-light", h.applier.Context().ThemeClass())
	bg, _ := h.applier.Context().Var("--background")
	assert.Equal(t, "#ffffff", bg)
	assert.Contains(t, h.logs.String(), "level=WARN")
	assert.Contains(t, h.logs.String(), "nonexistent-theme")
}

func TestApplyReplacesPreviousTheme(t *testing.T) {
	h := newHarness(t, func(cfg *config.Config) {
		cfg.Theme.Custom = map[string]models.ThemeDefinition{
			"neon": {"--background": "#000000", "--glow": "#39ff14"},
		}
	})
	ctx := h.applier.Context()

	h.applier.Apply("neon")
	glow, ok := ctx.Var("--glow")
	require.True(t, ok)
	assert.Equal(t, "#39ff14", glow)

	h.applier.Apply("dark")
	_, ok = ctx.Var("--glow")
	assert.False(t, ok, "previous theme tokens cleared")
	assert.Equal(t, "theme-dark", ctx.ThemeClass())
	d, _ := ctx.Var(customize.VarTransitionDuration)
	assert.Equal(t, "200ms", d)
	assert.Contains(t, h.logs.String(), "missing")
}

func TestApplyWithoutTransition(t *testing.T) {
	h := newHarness(t, func(cfg *config.Config) {
		none := 0
		cfg.Theme.TransitionDuration = &none
	})
	h.applier.Apply("dark")
	_, ok := h.applier.Context().Var(customize.VarTransitionDuration)
	assert.False(t, ok)
}

func TestApplyFontsSetsVariablesAndLoadsOnce(t *testing.T) {
	h := newHarness(t, func(cfg *config.Config) {
		cfg.Fonts.Primary = "Inter"
		cfg.Fonts.Heading = "Inter"
		cfg.Fonts.Mono = "Fira Code"
	})
	ctx := h.applier.Context()

	h.applier.ApplyFonts(context.Background())
	primary, _ := ctx.Var(customize.VarFontPrimary)
	assert.Equal(t, `'Inter', system-ui, -apple-system, BlinkMacSystemFont, "Segoe UI", sans-serif`, primary)
	mono, _ := ctx.Var(customize.VarFontMono)
	assert.Contains(t, mono, "'Fira Code', ui-monospace")

	require.Equal(t, int32(1), h.loader.calls.Load())
	href := ctx.FontLink()
	assert.Equal(t, href, h.loader.hrefs[0])
	assert.Contains(t, href, "family=Inter:wght@")
	assert.Contains(t, href, "family=Fira+Code:wght@")
	assert.Equal(t, 1, strings.Count(href, "family=Inter"))
	css, ok := ctx.RemoteFontCSS()
	assert.True(t, ok)
	assert.Equal(t, "/* fonts */", css)

	h.applier.ApplyFonts(context.Background())
	assert.Equal(t, href, ctx.FontLink(), "single link slot")
}

func TestApplyFontsGoogleDisabledAndUnknown(t *testing.T) {
	off := false
	h := newHarness(t, func(cfg *config.Config) {
		cfg.Fonts.EnableGoogleFonts = &off
		cfg.Fonts.Primary = "Comic Neue"
	})
	h.applier.ApplyFonts(context.Background())

	assert.Zero(t, h.loader.calls.Load())
	assert.Empty(t, h.applier.Context().FontLink())
	_, ok := h.applier.Context().Var(customize.VarFontPrimary)
	assert.False(t, ok)
	assert.Contains(t, h.logs.String(), "Comic Neue")
}

func TestApplyFontsSelfHosted(t *testing.T) {
	h := newHarness(t, func(cfg *config.Config) {
		cfg.Fonts.Primary = "Brand"
		cfg.Fonts.Custom = map[string]models.FontDefinition{
			"Brand": {Name: "Brand Sans", Fallback: "sans-serif", Files: []models.FontFile{
				{Weight: 400, Style: "normal", URL: "/fonts/brand.woff2"},
			}},
		}
	})
	h.applier.ApplyFonts(context.Background())
	h.applier.ApplyFonts(context.Background())

	faces := h.applier.Context().FontFaces()
	require.Len(t, faces, 1)
	assert.Contains(t, faces["Brand Sans"], "src: url('/fonts/brand.woff2') format('woff2');")
	primary, _ := h.applier.Context().Var(customize.VarFontPrimary)
	assert.Equal(t, "'Brand Sans', sans-serif", primary)
}

func TestApplyFontsLoaderFailureIsLogged(t *testing.T) {
	h := newHarness(t, nil)
	h.loader.err = errors.New("offline")
	h.applier.ApplyFonts(context.Background())
	_, ok := h.applier.Context().RemoteFontCSS()
	assert.False(t, ok)
	assert.NotEmpty(t, h.applier.Context().FontLink())
	assert.Contains(t, h.logs.String(), "failed to load remote fonts")
}

func TestSetTheme(t *testing.T) {
	h := newHarness(t, nil)
	h.applier.Init(context.Background())

	applied, err := h.applier.SetTheme("blue")
	require.NoError(t, err)
	assert.Equal(t, "blue", applied)
	saved, _ := h.saved(t)
	assert.Equal(t, "blue", saved)

	_, err = h.applier.SetTheme("plaid")
	assert.EqualError(t, err, `theme "plaid" is not available`)
	assert.Equal(t, "blue", h.applier.Preference())

	h.scheme.Set(true)
	applied, err = h.applier.SetTheme(config.SystemTheme)
	require.NoError(t, err)
	assert.Equal(t, "dark", applied)
}

func TestSetFonts(t *testing.T) {
	h := newHarness(t, nil)
	require.NoError(t, h.applier.SetFonts(context.Background(), models.FontSet{Mono: "JetBrains Mono"}))
	assert.Equal(t, "JetBrains Mono", h.applier.CurrentFonts().Mono)
	assert.Equal(t, "Roboto", h.applier.CurrentFonts().Primary)

	err := h.applier.SetFonts(context.Background(), models.FontSet{Primary: "Nope", Heading: "Nada"})
	assert.EqualError(t, err, "invalid fonts: heading, primary")
	assert.Equal(t, "Roboto", h.applier.CurrentFonts().Primary)
}

func TestResetToDefaults(t *testing.T) {
	h := newHarness(t, func(cfg *config.Config) { cfg.Theme.DefaultTheme = "amber" })
	h.applier.Init(context.Background())
	_, err := h.applier.SetTheme("dark")
	require.NoError(t, err)

	applied := h.applier.ResetToDefaults(context.Background())
	assert.Equal(t, "amber", applied)
	_, ok := h.saved(t)
	assert.False(t, ok)
}

func TestSyncSchemeFollowsSystem(t *testing.T) {
	h := newHarness(t, func(cfg *config.Config) { cfg.Theme.DefaultTheme = config.SystemTheme })
	h.applier.Init(context.Background())
	require.Equal(t, "theme-light", h.applier.Context().ThemeClass())

	assert.False(t, h.applier.SyncScheme())
	h.scheme.Set(true)
	assert.True(t, h.applier.SyncScheme())
	assert.Equal(t, "theme-dark", h.applier.Context().ThemeClass())
	assert.False(t, h.applier.SyncScheme())
	assert.Contains(t, h.logs.String(), "system colour scheme changed")
}

func TestWatchSchemeCatchesChangeBeforeFirstTick(t *testing.T) {
	h := newHarness(t, func(cfg *config.Config) { cfg.Theme.DefaultTheme = config.SystemTheme })
	h.applier.Init(context.Background())
	require.Equal(t, "theme-light", h.applier.Context().ThemeClass())

	// The scheme flips before the watcher starts, so there is no earlier
	// sample for it to compare against.
	h.scheme.Set(true)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.applier.WatchScheme(ctx, 5*time.Millisecond)

	require.Eventually(t, func() bool {
		return h.applier.Context().ThemeClass() == "theme-dark"
	}, time.Second, 5*time.Millisecond)
}

func TestWatchSchemeIgnoresExplicitTheme(t *testing.T) {
	h := newHarness(t, func(cfg *config.Config) { cfg.Theme.DefaultTheme = "teal" })
	h.applier.Init(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	go h.scheme.Set(true)
	h.applier.WatchScheme(ctx, 5*time.Millisecond)
	assert.Equal(t, "theme-teal", h.applier.Context().ThemeClass())
}

func TestValidate(t *testing.T) {
	h := newHarness(t, func(cfg *config.Config) {
		cfg.Theme.DefaultTheme = "plaid"
		cfg.Fonts.Mono = "Wingdings"
		cfg.Theme.Custom = map[string]models.ThemeDefinition{"half": {"--background": "#111111"}}
	})
	problems := h.applier.Validate()
	assert.Contains(t, problems, `default theme "plaid" is not in the theme catalog`)
	assert.Contains(t, problems, `mono font "Wingdings" is not in the font catalog`)
	require.Len(t, h.applier.Warnings(), 1)
	assert.Contains(t, h.applier.Warnings()[0], `custom theme "half" is missing --foreground`)

	ok := newHarness(t, func(cfg *config.Config) { cfg.Theme.DefaultTheme = config.SystemTheme })
	assert.Empty(t, ok.applier.Validate())
}
