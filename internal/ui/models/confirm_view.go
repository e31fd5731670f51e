package models

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fenilsonani/dupsweep/internal/scanner"
	"github.com/fenilsonani/dupsweep/internal/ui/styles"
	uiutils "github.com/fenilsonani/dupsweep/internal/ui/utils"
	"github.com/fenilsonani/dupsweep/pkg/utils"
)

// ConfirmViewModel is the final yes/no gate over a deletion set
type ConfirmViewModel struct {
	files     []scanner.FileRecord
	dryRun    bool
	cursor    int // 0 = Yes, 1 = Cancel
	width     int
	height    int
	answered  bool
	confirmed bool
}

// NewConfirmViewModel creates a confirm view. The cursor starts on Cancel.
func NewConfirmViewModel(files []scanner.FileRecord, dryRun bool, width, height int) *ConfirmViewModel {
	if width == 0 {
		width = 80
	}
	if height == 0 {
		height = 24
	}

	return &ConfirmViewModel{
		files:  files,
		dryRun: dryRun,
		cursor: 1,
		width:  width,
		height: height,
	}
}

// Init initializes the confirm view
func (m *ConfirmViewModel) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m *ConfirmViewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "left", "h":
			if m.cursor > 0 {
				m.cursor--
			}
		case "right", "l":
			if m.cursor < 1 {
				m.cursor++
			}
		case "tab":
			m.cursor = (m.cursor + 1) % 2
		case "enter":
			return m.answer(m.cursor == 0)
		case "y":
			return m.answer(true)
		case "n", "q", "esc", "ctrl+c":
			return m.answer(false)
		}
	}

	return m, nil
}

func (m *ConfirmViewModel) answer(yes bool) (tea.Model, tea.Cmd) {
	m.answered = true
	m.confirmed = yes
	return m, tea.Quit
}

// Confirmed reports the answer. Anything but an explicit yes is a no.
func (m *ConfirmViewModel) Confirmed() bool {
	return m.answered && m.confirmed
}

// View renders the confirmation view
func (m *ConfirmViewModel) View() string {
	if m.answered {
		return ""
	}

	var b strings.Builder

	if warning := uiutils.GetSizeWarningBanner(m.width, m.height); warning != "" {
		b.WriteString(warning)
	}

	b.WriteString(styles.TitleStyle.Render("Confirm Deletion"))
	b.WriteString("\n\n")

	var totalSize int64
	for _, file := range m.files {
		totalSize += file.Size
	}

	verb := "delete"
	if m.dryRun {
		verb = "simulate deleting"
	}
	b.WriteString(styles.BoldStyle.Render(fmt.Sprintf("You are about to %s %d files (%s)",
		verb, len(m.files), utils.FormatBytes(totalSize))))
	b.WriteString("\n\n")

	limit := uiutils.CalculatePageSize(m.height)
	for i, file := range m.files {
		if i == limit {
			b.WriteString(styles.DimStyle.Render(fmt.Sprintf("  ... and %d more", len(m.files)-limit)))
			b.WriteString("\n")
			break
		}
		b.WriteString("  " + styles.FilePathStyle.Render(uiutils.TruncatePath(file.Path, m.width-4)) + "\n")
	}

	b.WriteString("\n")
	if !m.dryRun {
		b.WriteString(styles.WarningStyle.Render("This action cannot be undone!"))
		b.WriteString("\n\n")
	}

	yesBtn := "[ Yes, delete ]"
	cancelBtn := "[ Cancel ]"
	switch m.cursor {
	case 0:
		yesBtn = styles.HighlightStyle.Render(yesBtn)
	case 1:
		cancelBtn = styles.HighlightStyle.Render(cancelBtn)
	}

	b.WriteString(fmt.Sprintf("%s  %s", yesBtn, cancelBtn))
	b.WriteString("\n\n")

	helpText := "y:confirm  n:cancel  ←/→:navigate  enter:choose"
	if m.width < 60 {
		helpText = "y:yes  n:no  ←/→"
	}
	b.WriteString(styles.HelpStyle.Render(helpText))

	return b.String()
}
