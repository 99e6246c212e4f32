// Package tui provides the terminal results browser for stored triage results.
//
// The browser lists results newest first in a table. Enter opens the
// selected result, esc returns to the list, d deletes the selected result,
// r reloads and q quits.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ShayCichocki/bugtriage/pkg/models"
)

// Source is the part of the result store the browser needs.
type Source interface {
	List(ctx context.Context, limit, offset int) ([]models.StoredResult, error)
	Delete(ctx context.Context, id string) error
}

type mode int

const (
	modeList mode = iota
	modeDetail
)

// resultsLoadedMsg carries a fresh page of results.
type resultsLoadedMsg struct {
	results []models.StoredResult
	err     error
}

// deletedMsg reports the outcome of a delete.
type deletedMsg struct {
	id  string
	err error
}

// Browser is the bubbletea model for the results browser.
type Browser struct {
	source Source
	limit  int

	table    table.Model
	detail   viewport.Model
	results  []models.StoredResult
	mode     mode
	status   string
	err      error
	width    int
	height   int
	quitting bool

	styles styles
}

var columns = []table.Column{
	{Title: "Created", Width: 16},
	{Title: "Severity", Width: 9},
	{Title: "Category", Width: 15},
	{Title: "Label", Width: 18},
	{Title: "Conf", Width: 5},
	{Title: "Title", Width: 48},
}

// NewBrowser creates a browser showing up to limit results.
func NewBrowser(source Source, limit int) *Browser {
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)
	ts := table.DefaultStyles()
	ts.Header = ts.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	ts.Selected = ts.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57"))
	t.SetStyles(ts)

	return &Browser{
		source: source,
		limit:  limit,
		table:  t,
		detail: viewport.New(80, 20),
		width:  80,
		height: 24,
		styles: newStyles(),
	}
}

// Run starts the browser in the alternate screen and blocks until it exits.
func Run(ctx context.Context, source Source, limit int) error {
	p := tea.NewProgram(NewBrowser(source, limit), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

// Init implements tea.Model.
func (b *Browser) Init() tea.Cmd {
	return b.load()
}

func (b *Browser) load() tea.Cmd {
	source, limit := b.source, b.limit
	return func() tea.Msg {
		results, err := source.List(context.Background(), limit, 0)
		return resultsLoadedMsg{results: results, err: err}
	}
}

func (b *Browser) remove(id string) tea.Cmd {
	source := b.source
	return func() tea.Msg {
		return deletedMsg{id: id, err: source.Delete(context.Background(), id)}
	}
}

// Update implements tea.Model.
func (b *Browser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		b.width, b.height = msg.Width, msg.Height
		b.table.SetHeight(max(msg.Height-6, 3))
		b.detail.Width = max(msg.Width-4, 20)
		b.detail.Height = max(msg.Height-6, 3)
		return b, nil

	case resultsLoadedMsg:
		b.err = msg.err
		if msg.err == nil {
			b.results = msg.results
			b.table.SetRows(rows(msg.results))
			b.status = fmt.Sprintf("%d results", len(msg.results))
		}
		return b, nil

	case deletedMsg:
		if msg.err != nil {
			b.err = msg.err
			return b, nil
		}
		b.status = "deleted " + shortID(msg.id)
		b.mode = modeList
		return b, b.load()

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			b.quitting = true
			return b, tea.Quit
		}

		if b.mode == modeDetail {
			switch msg.String() {
			case "esc", "backspace":
				b.mode = modeList
				return b, nil
			}
			var cmd tea.Cmd
			b.detail, cmd = b.detail.Update(msg)
			return b, cmd
		}

		switch msg.String() {
		case "enter":
			if res := b.selected(); res != nil {
				b.detail.SetContent(b.renderDetail(res))
				b.detail.GotoTop()
				b.mode = modeDetail
			}
			return b, nil
		case "d":
			if res := b.selected(); res != nil {
				return b, b.remove(res.ID)
			}
			return b, nil
		case "r":
			b.status = "reloading"
			return b, b.load()
		}
	}

	var cmd tea.Cmd
	b.table, cmd = b.table.Update(msg)
	return b, cmd
}

func (b *Browser) selected() *models.StoredResult {
	i := b.table.Cursor()
	if i < 0 || i >= len(b.results) {
		return nil
	}
	return &b.results[i]
}

// View implements tea.Model.
func (b *Browser) View() string {
	if b.quitting {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(b.styles.title.Render("bugtriage results"))
	sb.WriteString("\n")

	if b.mode == modeDetail {
		sb.WriteString(b.styles.border.Render(b.detail.View()))
		sb.WriteString("\n")
		sb.WriteString(b.styles.help.Render("esc back • ↑/↓ scroll • q quit"))
		return sb.String()
	}

	if len(b.results) == 0 && b.err == nil {
		sb.WriteString(b.styles.label.Render("No stored results."))
	} else {
		sb.WriteString(b.styles.border.Render(b.table.View()))
	}
	sb.WriteString("\n")

	if b.err != nil {
		sb.WriteString(b.styles.errorMsg.Render("error: " + b.err.Error()))
	} else if b.status != "" {
		sb.WriteString(b.styles.status.Render(b.status))
	}
	sb.WriteString("\n")
	sb.WriteString(b.styles.help.Render("enter open • d delete • r reload • q quit"))
	return sb.String()
}

func (b *Browser) renderDetail(res *models.StoredResult) string {
	field := func(name, value string) string {
		return b.styles.label.Render(fmt.Sprintf("%-12s", name)) + " " + b.styles.value.Render(value)
	}

	lines := []string{
		b.styles.title.Render(res.Title),
		"",
		field("ID", res.ID),
		field("Created", res.CreatedAt.Local().Format("2006-01-02 15:04:05")),
		field("Test", res.TestName),
		field("Category", string(res.Category)),
		b.styles.label.Render(fmt.Sprintf("%-12s", "Severity")) + " " +
			b.styles.forSeverity(res.Severity).Render(string(res.Severity)),
		field("Label", res.Label),
		field("Candidates", strings.Join(res.CandidateLabels, ", ")),
		field("Confidence", fmt.Sprintf("%.2f", res.Confidence)),
		field("Location", fmt.Sprintf("%s:%d", res.FilePath, res.LineNumber)),
	}
	if res.IsFlaky {
		lines = append(lines, b.styles.flaky.Render("Flaky: "+strings.Join(res.FlakinessReasons, "; ")))
	}
	lines = append(lines, "", res.Description)
	return strings.Join(lines, "\n")
}

func rows(results []models.StoredResult) []table.Row {
	out := make([]table.Row, 0, len(results))
	for _, r := range results {
		out = append(out, table.Row{
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			string(r.Severity),
			string(r.Category),
			r.Label,
			fmt.Sprintf("%.2f", r.Confidence),
			r.Title,
		})
	}
	return out
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
