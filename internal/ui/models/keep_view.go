package models

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/fenilsonani/dupsweep/internal/resolver"
	"github.com/fenilsonani/dupsweep/internal/ui/styles"
	uiutils "github.com/fenilsonani/dupsweep/internal/ui/utils"
	"github.com/fenilsonani/dupsweep/pkg/utils"
)

// KeepViewModel lets the user pick which members of a group survive
type KeepViewModel struct {
	view   resolver.GroupView
	keep   map[int]bool
	cursor int
	notice string
	width  int
	height int
	keys   keyMap
	help   help.Model

	decision resolver.Decision
	done     bool
	quit     bool
}

// NewKeepViewModel creates a selector with the first member kept.
// notice is shown above the list, typically why the last choice was refused.
func NewKeepViewModel(view resolver.GroupView, notice string) *KeepViewModel {
	return &KeepViewModel{
		view:   view,
		keep:   map[int]bool{0: true},
		notice: notice,
		width:  80,
		height: 24,
		keys:   defaultKeyMap(),
		help:   help.New(),
	}
}

// Init initializes the keep view
func (m *KeepViewModel) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m *KeepViewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case tea.KeyMsg:
		files := m.view.Group.Files
		switch {
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(files)-1 {
				m.cursor++
			}
		case key.Matches(msg, m.keys.Toggle):
			m.keep[m.cursor] = !m.keep[m.cursor]
		case key.Matches(msg, m.keys.All):
			for i := range files {
				m.keep[i] = true
			}
		case key.Matches(msg, m.keys.None):
			m.keep = make(map[int]bool)
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		case key.Matches(msg, m.keys.Accept):
			return m.finish(resolver.Decision{Action: resolver.ActionSelect, Keep: m.Kept()})
		case key.Matches(msg, m.keys.KeepFirst):
			return m.finish(resolver.Decision{Action: resolver.ActionKeepFirst})
		case key.Matches(msg, m.keys.Skip):
			return m.finish(resolver.Decision{Action: resolver.ActionSkip})
		case key.Matches(msg, m.keys.Quit):
			m.quit = true
			return m, tea.Quit
		}
	}

	return m, nil
}

func (m *KeepViewModel) finish(d resolver.Decision) (tea.Model, tea.Cmd) {
	m.decision = d
	m.done = true
	return m, tea.Quit
}

// Kept returns the 0-based indices currently marked to keep, in order
func (m *KeepViewModel) Kept() []int {
	kept := make([]int, 0, len(m.keep))
	for i, ok := range m.keep {
		if ok && i < len(m.view.Group.Files) {
			kept = append(kept, i)
		}
	}
	sort.Ints(kept)
	return kept
}

// Decision returns the user's answer once the program has exited
func (m *KeepViewModel) Decision() (resolver.Decision, bool) {
	return m.decision, m.done
}

// Quit reports whether the user asked to stop resolving
func (m *KeepViewModel) Quit() bool {
	return m.quit
}

// View renders the keep selector
func (m *KeepViewModel) View() string {
	if m.done || m.quit {
		return ""
	}

	var b strings.Builder
	group := m.view.Group

	if warning := uiutils.GetSizeWarningBanner(m.width, m.height); warning != "" {
		b.WriteString(warning)
	}

	b.WriteString(styles.TitleStyle.Render(fmt.Sprintf("Duplicate group %d of %d", m.view.Index, m.view.Total)))
	b.WriteString("\n")
	b.WriteString(styles.SubtitleStyle.Render(fmt.Sprintf("%d copies of %s  %s",
		len(group.Files), utils.FormatBytes(group.Size), group.Digest)))
	b.WriteString("\n\n")

	if m.notice != "" {
		b.WriteString(styles.ErrorStyle.Render(m.notice))
		b.WriteString("\n\n")
	}

	start, end := uiutils.VisibleRange(m.cursor, len(group.Files), uiutils.CalculatePageSize(m.height))
	pathWidth := m.width - 16
	for i := start; i < end; i++ {
		cursor := "  "
		if i == m.cursor {
			cursor = styles.SelectedStyle.Render("→ ")
		}

		checkbox := styles.UncheckedBox()
		if m.keep[i] {
			checkbox = styles.CheckedBox()
		}

		line := fmt.Sprintf("%s%s %2d. %s", cursor, checkbox, i+1,
			styles.FilePathStyle.Render(uiutils.TruncatePath(group.Files[i].Path, pathWidth)))
		if j := group.LinkedTo(i); j >= 0 {
			line += styles.DimStyle.Render(fmt.Sprintf("  (same file as %d)", j+1))
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	kept := len(m.Kept())
	b.WriteString("\n")
	status := fmt.Sprintf("Keeping %d of %d, deleting %d (%s)",
		kept, len(group.Files), len(group.Files)-kept,
		utils.FormatBytes(group.Size*int64(len(group.Files)-kept)))
	if kept == 0 {
		b.WriteString(styles.WarningStyle.Render(status + "  at least one copy must be kept"))
	} else {
		b.WriteString(styles.SubtitleStyle.Render(status))
	}
	b.WriteString("\n\n")

	b.WriteString(m.help.View(m.keys))

	return b.String()
}
