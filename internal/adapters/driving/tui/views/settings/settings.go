// Package settings provides the settings overview for the TUI.
package settings

import (
	"fmt"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/adapters/driving/tui/messages"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/adapters/driving/tui/styles"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/domain"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/ports/driving"
)

// backendChanged reports the result of switching the store backend.
type backendChanged struct {
	backend domain.StoreBackend
	err     error
}

// View shows the effective settings and their validation result.
// Provider credentials are edited with 'zerosignal settings'.
type View struct {
	styles          *styles.Styles
	settingsService driving.SettingsService

	settings *domain.AppSettings
	validErr error
	err      error
	notice   string
	width    int
	height   int
	ready    bool
}

// NewView creates a new settings view.
func NewView(s *styles.Styles, settingsService driving.SettingsService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:          s,
		settingsService: settingsService,
	}
}

// Init loads the current settings.
func (v *View) Init() tea.Cmd {
	return v.loadSettings()
}

func (v *View) loadSettings() tea.Cmd {
	svc := v.settingsService
	return func() tea.Msg {
		if svc == nil {
			return messages.SettingsLoaded{Err: fmt.Errorf("settings service not available")}
		}
		settings, err := svc.Get()
		return messages.SettingsLoaded{Settings: settings, Err: err}
	}
}

// Update handles messages for the settings view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case messages.SettingsLoaded:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.err = nil
		v.settings = msg.Settings
		v.validErr = v.settingsService.Validate()
		return v, nil

	case backendChanged:
		if msg.err != nil {
			v.err = msg.err
			return v, nil
		}
		v.notice = fmt.Sprintf("Store backend set to %s; restart to apply", msg.backend)
		return v, v.loadSettings()

	case tea.KeyMsg:
		switch msg.String() {
		case "r":
			v.notice = ""
			return v, v.loadSettings()
		case "b":
			return v, v.cycleBackend()
		case "esc":
			return v, func() tea.Msg {
				return messages.ViewChanged{View: messages.ViewMenu}
			}
		}
	}
	return v, nil
}

// cycleBackend switches to the next store backend.
func (v *View) cycleBackend() tea.Cmd {
	if v.settings == nil || v.settingsService == nil {
		return nil
	}
	all := domain.AllStoreBackends()
	next := all[(slices.Index(all, v.settings.Store.Backend)+1)%len(all)]
	svc := v.settingsService
	return func() tea.Msg {
		return backendChanged{backend: next, err: svc.SetStoreBackend(next)}
	}
}

// View renders the settings overview.
func (v *View) View() string {
	var b strings.Builder
	b.WriteString(v.styles.Title.Render("Settings"))
	b.WriteString("\n\n")

	if v.err != nil {
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
		b.WriteString("\n\n")
	}

	if s := v.settings; s != nil {
		v.section(&b, "Store",
			"Backend", s.Store.Backend.Description(),
			"Qdrant URL", orDash(s.Store.QdrantURL),
			"Redis URL", orDash(s.Store.RedisURL),
			"Collection prefix", s.Store.CollectionPrefix,
			"Registry", s.Store.RegistryCollection,
		)
		v.section(&b, "Embedding",
			"Provider", orDash(string(s.Embedding.Provider)),
			"Model", orDash(s.Embedding.Model),
			"API key", configured(s.Embedding.APIKey),
		)
		v.section(&b, "Summariser",
			"Provider", orDash(string(s.LLM.Provider)),
			"Model", orDash(s.LLM.Model),
			"API key", configured(s.LLM.APIKey),
		)
		v.section(&b, "Server",
			"Address", s.Server.Addr,
			"Default top_k", s.Server.DefaultTopK,
		)
		v.section(&b, "Ingest",
			"Workers", s.Ingest.Workers,
			"Batch retries", s.Ingest.MaxRetries,
			"Retry backoff", s.Ingest.RetryBackoff,
		)

		if v.validErr != nil {
			b.WriteString(v.styles.Warning.Render("! " + v.validErr.Error()))
		} else {
			b.WriteString(v.styles.Success.Render("Configuration is valid"))
		}
		b.WriteString("\n\n")
	} else if v.err == nil {
		b.WriteString(v.styles.Muted.Render("Loading settings..."))
		b.WriteString("\n\n")
	}

	if v.notice != "" {
		b.WriteString(v.styles.Success.Render(v.notice))
		b.WriteString("\n")
	}
	b.WriteString(v.styles.Help.Render("[b] switch store backend  [r] reload  [esc] back"))
	return b.String()
}

// section writes a titled block of label/value pairs.
func (v *View) section(b *strings.Builder, title string, pairs ...any) {
	b.WriteString(v.styles.Subtitle.Render(title))
	b.WriteString("\n")
	for i := 0; i+1 < len(pairs); i += 2 {
		b.WriteString(v.styles.Field("  "+fmt.Sprint(pairs[i]), pairs[i+1]))
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func configured(secret string) string {
	if secret == "" {
		return "not set"
	}
	return "configured"
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Settings returns the loaded settings.
func (v *View) Settings() *domain.AppSettings {
	return v.settings
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
