// model.go - Model is the two-pane chat window: session sidebar on the left,
// messages and the input line on the right. Dialogs are drawn over it.

package chat

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"chatkit/src/components/modals/dialogs"
	"chatkit/src/components/sidebar"
	"chatkit/src/config"
	"chatkit/src/models"
	chatsvc "chatkit/src/services/chat"
	"chatkit/src/services/connectivity"
	"chatkit/src/services/customize"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
)

type (
	storeChangedMsg struct{}
	styleChangedMsg struct{}
	tickMsg         time.Time
	// sentMsg reports that one SendMessage call returned.
	sentMsg struct{ reply *models.Message }
	// statusMsg replaces the status line.
	statusMsg string
)

// Options wires a Model to the services it drives.
type Options struct {
	Context      context.Context
	Store        *chatsvc.Store
	Applier      *customize.Applier
	AppName      string
	ExportPrefix string
	ExportDir    string

	// Overrides used by tests.
	Now       func() time.Time
	Clipboard func(string) error
	WriteFile func(name string, data []byte) error
}

// Model implements tea.Model.
type Model struct {
	ctx     context.Context
	store   *chatsvc.Store
	applier *customize.Applier
	style   *customize.StyleContext

	appName      string
	exportPrefix string
	exportDir    string
	now          func() time.Time
	copyText     func(string) error
	writeFile    func(string, []byte) error

	sidebar  *sidebar.SidebarModel
	input    []rune
	confirm  *dialogs.ConfirmationModal
	menu     *dialogs.MenuModal
	help     *dialogs.HelpModal
	status   string
	inflight int
	frame    int
	ticking  bool
	quitting bool

	palette *customize.Palette
	version uint64
	width   int
	height  int
}

var _ tea.Model = (*Model)(nil)

func NewModel(opts Options) *Model {
	m := &Model{
		ctx:          opts.Context,
		store:        opts.Store,
		applier:      opts.Applier,
		style:        opts.Applier.Context(),
		appName:      opts.AppName,
		exportPrefix: opts.ExportPrefix,
		exportDir:    opts.ExportDir,
		now:          opts.Now,
		copyText:     opts.Clipboard,
		writeFile:    opts.WriteFile,
		sidebar:      sidebar.NewSidebarModel(),
		width:        100,
		height:       30,
	}
	if m.ctx == nil {
		m.ctx = context.Background()
	}
	if m.appName == "" {
		m.appName = "chatkit"
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.copyText == nil {
		m.copyText = clipboard.WriteAll
	}
	if m.writeFile == nil {
		m.writeFile = func(name string, data []byte) error { return os.WriteFile(name, data, 0o644) }
	}
	m.refreshPalette()
	m.refreshSessions()
	return m
}

// Subscribe forwards store, style and connectivity changes to p. Sends are
// asynchronous because changes also happen inside Update.
func Subscribe(p *tea.Program, store *chatsvc.Store, style *customize.StyleContext, monitor *connectivity.Monitor) {
	store.OnChange(func() { go p.Send(storeChangedMsg{}) })
	style.OnChange(func() { go p.Send(styleChangedMsg{}) })
	if monitor != nil {
		monitor.OnChange(func(bool) { go p.Send(storeChangedMsg{}) })
	}
}

func (m *Model) Init() tea.Cmd { return nil }

func (m *Model) refreshPalette() {
	if v := m.style.Version(); m.palette == nil || v != m.version {
		m.palette = m.style.Palette()
		m.version = v
	}
}

func (m *Model) refreshSessions() {
	m.sidebar.SetSessions(m.store.Sessions(), m.store.ActiveID())
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.sidebar.Height = msg.Height - 2
		return m, nil
	case storeChangedMsg:
		m.refreshSessions()
		return m, nil
	case styleChangedMsg:
		m.refreshPalette()
		return m, nil
	case sentMsg:
		m.inflight--
		m.refreshSessions()
		return m, nil
	case statusMsg:
		m.status = string(msg)
		return m, nil
	case tickMsg:
		if m.inflight <= 0 && m.store.Pending() == 0 {
			m.ticking = false
			return m, nil
		}
		m.frame++
		return m, tick()
	case sidebar.SelectMsg:
		m.store.SwitchChat(msg.ID)
		m.refreshSessions()
		return m, nil
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	}
	return m, nil
}

func tick() tea.Cmd {
	return tea.Tick(120*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *Model) handleKey(key tea.KeyMsg) tea.Cmd {
	if key.String() == "ctrl+c" {
		m.quitting = true
		return tea.Quit
	}
	switch {
	case m.confirm != nil:
		cmd := m.confirm.Update(key)
		if m.confirm.Closed {
			m.confirm = nil
		}
		return cmd
	case m.menu != nil:
		cmd := m.menu.Update(key)
		if m.menu.Closed {
			m.menu = nil
		}
		return cmd
	case m.help != nil:
		switch key.String() {
		case "esc", "?", "enter", "q":
			m.help = nil
		}
		return nil
	}

	switch key.String() {
	case "esc":
		m.quitting = true
		return tea.Quit
	case "enter":
		return m.send()
	case "ctrl+n":
		m.store.StartNewChat()
		m.refreshSessions()
		m.status = "Started a new chat"
	case "ctrl+d":
		m.openDeleteConfirm()
	case "ctrl+l":
		m.store.ClearMessages()
		m.status = "Cleared messages"
	case "ctrl+t":
		m.openThemeMenu()
	case "ctrl+y":
		return m.copyLastReply()
	case "ctrl+e":
		return m.exportActive()
	case "up", "down", "pgup", "pgdown":
		_, cmd := m.sidebar.Update(key)
		return cmd
	case "backspace":
		if n := len(m.input); n > 0 {
			m.input = m.input[:n-1]
		}
	case "ctrl+u":
		m.input = nil
	case "?":
		if len(m.input) == 0 {
			m.help = helpModal()
			return nil
		}
		m.input = append(m.input, key.Runes...)
	default:
		if key.Type == tea.KeyRunes || key.Type == tea.KeySpace {
			m.input = append(m.input, key.Runes...)
		}
	}
	return nil
}

func (m *Model) send() tea.Cmd {
	text := string(m.input)
	m.input = nil
	if strings.TrimSpace(text) == "" {
		return nil
	}
	m.inflight++
	m.status = ""
	ctx, store := m.ctx, m.store
	send := func() tea.Msg { return sentMsg{reply: store.SendMessage(ctx, text)} }
	if m.ticking {
		return send
	}
	m.ticking = true
	return tea.Batch(send, tick())
}

func (m *Model) openDeleteConfirm() {
	active, ok := m.store.Active()
	if !ok {
		return
	}
	id := active.ID
	m.confirm = dialogs.NewConfirmationModal(
		"Delete \""+active.Title+"\"?",
		dialogs.ModalOption{Label: "Delete", OnSelect: func() tea.Cmd {
			m.store.DeleteChat(id)
			m.refreshSessions()
			return status("Chat deleted")
		}},
		dialogs.ModalOption{Label: "Cancel"},
	)
}

func (m *Model) openThemeMenu() {
	names := append([]string{config.SystemTheme}, m.applier.Catalog().Names()...)
	labels := make([]string, len(names))
	selected := 0
	for i, n := range names {
		labels[i] = m.applier.Catalog().Label(n)
		if n == m.applier.Preference() {
			selected = i
		}
	}
	labels[0] = "System"
	m.menu = &dialogs.MenuModal{
		Title:    "Theme",
		Options:  names,
		Labels:   labels,
		Selected: selected,
		OnSelect: func(i int) tea.Cmd {
			applied, err := m.applier.SetTheme(names[i])
			if err != nil {
				return status(err.Error())
			}
			m.refreshPalette()
			return status("Theme: " + applied)
		},
	}
}

func (m *Model) copyLastReply() tea.Cmd {
	msgs := m.store.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Sender != models.SenderAI {
			continue
		}
		if err := m.copyText(msgs[i].Text); err != nil {
			return status("Copy failed: " + err.Error())
		}
		return status("Copied last reply")
	}
	return status("Nothing to copy")
}

func (m *Model) exportActive() tea.Cmd {
	active, ok := m.store.Active()
	if !ok || len(active.Messages) == 0 {
		return status("Nothing to export")
	}
	name := filepath.Join(m.exportDir, chatsvc.ExportFilename(m.exportPrefix, m.now()))
	if err := m.writeFile(name, []byte(chatsvc.ExportText(active))); err != nil {
		return status("Export failed: " + err.Error())
	}
	return status("Exported to " + name)
}

func status(text string) tea.Cmd {
	return func() tea.Msg { return statusMsg(text) }
}

func helpModal() *dialogs.HelpModal {
	return &dialogs.HelpModal{Title: "Keys", Bindings: []dialogs.KeyBinding{
		{Key: "enter", Help: "send message"},
		{Key: "up/down", Help: "switch chat"},
		{Key: "pgup/pgdown", Help: "jump through chats"},
		{Key: "ctrl+n", Help: "new chat"},
		{Key: "ctrl+d", Help: "delete chat"},
		{Key: "ctrl+l", Help: "clear messages"},
		{Key: "ctrl+t", Help: "choose theme"},
		{Key: "ctrl+y", Help: "copy last reply"},
		{Key: "ctrl+e", Help: "export chat"},
		{Key: "ctrl+u", Help: "clear input"},
		{Key: "ctrl+c/esc", Help: "quit"},
	}}
}
