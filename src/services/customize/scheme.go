package customize

import (
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/muesli/termenv"
)

// SchemeDetector answers the OS colour-scheme preference.
type SchemeDetector interface {
	PrefersDark() bool
}

// TerminalScheme asks the terminal for its background colour once and keeps
// the answer. The query writes to the terminal and reads its reply from
// stdin, so it must not run while a UI owns the input.
type TerminalScheme struct {
	query func() bool
	once  sync.Once
	dark  bool
}

func NewTerminalScheme() *TerminalScheme {
	output := termenv.NewOutput(os.Stdout, termenv.WithColorCache(true))
	return NewTerminalSchemeFunc(output.HasDarkBackground)
}

// NewTerminalSchemeFunc uses query in place of the terminal.
func NewTerminalSchemeFunc(query func() bool) *TerminalScheme {
	return &TerminalScheme{query: query}
}

func (t *TerminalScheme) PrefersDark() bool {
	t.once.Do(func() { t.dark = t.query() })
	return t.dark
}

// StaticScheme is a fixed answer that can be flipped.
type StaticScheme struct {
	dark atomic.Bool
}

func NewStaticScheme(dark bool) *StaticScheme {
	s := &StaticScheme{}
	s.dark.Store(dark)
	return s
}

func (s *StaticScheme) PrefersDark() bool { return s.dark.Load() }

// Set changes the answer.
func (s *StaticScheme) Set(dark bool) { s.dark.Store(dark) }

// DetectScheme honours CHATKIT_COLOR_SCHEME=dark|light before asking the terminal.
func DetectScheme() SchemeDetector {
	switch strings.ToLower(os.Getenv("CHATKIT_COLOR_SCHEME")) {
	case "dark":
		return NewStaticScheme(true)
	case "light":
		return NewStaticScheme(false)
	}
	return NewTerminalScheme()
}

func schemeName(d SchemeDetector) string {
	if d != nil && d.PrefersDark() {
		return "dark"
	}
	return "light"
}
