package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/flowsketch/pkg/flowchart"
)

// List styles
var (
	listDimStyle    = lipgloss.NewStyle().Foreground(colorDim)
	detailKeyStyle  = lipgloss.NewStyle().Foreground(colorGray).Width(10)
	detailTextStyle = lipgloss.NewStyle().Foreground(colorWhite)
)

// =============================================================================
// DocumentModel - Interactive node browser
// =============================================================================

// DocumentModel is the bubbletea model for browsing a document's nodes.
type DocumentModel struct {
	Doc      *flowchart.Document
	Cursor   int
	Expanded bool
	Height   int
	Offset   int
	Width    int
}

// NewDocumentModel creates a new document model.
func NewDocumentModel(doc *flowchart.Document) DocumentModel {
	return DocumentModel{
		Doc:    doc,
		Height: 12,
	}
}

func (m DocumentModel) Init() tea.Cmd {
	return nil
}

func (m DocumentModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Doc.Nodes)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter", " ":
			m.Expanded = !m.Expanded
		}
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height - 14
		if m.Height < 5 {
			m.Height = 5
		}
		if m.Cursor >= m.Offset+m.Height {
			m.Offset = m.Cursor - m.Height + 1
		}
	}
	return m, nil
}

func (m DocumentModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.Doc.Title))
	b.WriteString("\n")
	if m.Doc.Summary != "" {
		b.WriteString(listDimStyle.Render(m.Doc.Summary))
		b.WriteString("\n")
	}
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ details  q quit"))
	b.WriteString("\n\n")

	end := m.Offset + m.Height
	if end > len(m.Doc.Nodes) {
		end = len(m.Doc.Nodes)
	}

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		n := m.Doc.Nodes[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		rows = append(rows, []string{cursor, n.ID, string(n.Type), n.Label, fmt.Sprint(len(m.outgoing(n.ID)))})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "ID", "Type", "Label", "Out").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			idx := m.Offset + row
			if idx >= len(m.Doc.Nodes) {
				return lipgloss.NewStyle()
			}
			base := lipgloss.NewStyle()
			if col == 2 {
				base = base.Foreground(m.typeColor(m.Doc.Nodes[idx].Type))
			}
			if idx == m.Cursor {
				return base.Bold(true)
			}
			return base
		})

	b.WriteString(t.Render())
	b.WriteString("\n")

	if m.Expanded && m.Cursor < len(m.Doc.Nodes) {
		b.WriteString("\n")
		b.WriteString(m.detailView(m.Doc.Nodes[m.Cursor]))
	}

	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d] %d edges", m.Cursor+1, len(m.Doc.Nodes), len(m.Doc.Edges))))

	return b.String()
}

func (m DocumentModel) detailView(n flowchart.Node) string {
	var b strings.Builder
	line := func(key, value string) {
		if value == "" {
			return
		}
		b.WriteString(detailKeyStyle.Render(key) + " " + detailTextStyle.Render(value) + "\n")
	}
	line("Details", n.Details)
	line("Notes", n.Notes)
	for _, e := range m.outgoing(n.ID) {
		target := e.Target
		if t, ok := m.Doc.Node(e.Target); ok {
			target = t.Label
		}
		text := "→ " + target
		if e.Label != "" {
			text += " (" + e.Label + ")"
		}
		if e.Condition != "" {
			text += " if " + e.Condition
		}
		line("Edge", text)
	}
	if b.Len() == 0 {
		return listDimStyle.Render("  no details") + "\n"
	}
	return b.String()
}

func (m DocumentModel) outgoing(id string) []flowchart.Edge {
	var out []flowchart.Edge
	for _, e := range m.Doc.Edges {
		if e.Source == id {
			out = append(out, e)
		}
	}
	return out
}

// typeColor picks the palette color of a node type, falling back to gray
// when the palette value is not a hex color lipgloss can show.
func (m DocumentModel) typeColor(t flowchart.NodeType) lipgloss.TerminalColor {
	if c := m.Doc.Palette.NodeColors.For(string(t)); strings.HasPrefix(c, "#") {
		return lipgloss.Color(c)
	}
	return colorGray
}
