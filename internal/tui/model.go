package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"StyleTranslator/internal/search"
)

const queryTimeout = 30 * time.Second

// Searcher is the TUI-facing subset of the search adapter.
type Searcher interface {
	ComprehensiveSearch(ctx context.Context, query string, nItems, nBrands, nDiscussions int) (search.Comprehensive, error)
}

// Limits are the per-collection result counts.
type Limits struct {
	Items       int
	Brands      int
	Discussions int
}

type tab int

const (
	tabItems tab = iota
	tabBrands
	tabDiscussions
	tabCount
)

func (t tab) String() string {
	switch t {
	case tabBrands:
		return "Brands"
	case tabDiscussions:
		return "Discussions"
	default:
		return "Items"
	}
}

// Model is the Bubble Tea model for the interactive search.
type Model struct {
	searcher Searcher
	limits   Limits
	input    textinput.Model
	viewport viewport.Model
	result   search.Comprehensive
	summary  string
	status   string
	tab      tab
	cursor   int
	ready    bool
}

func New(searcher Searcher, limits Limits, summary string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Describe an aesthetic and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	return Model{
		searcher: searcher,
		limits:   limits,
		input:    ti,
		viewport: viewport.New(0, 0),
		summary:  summary,
		status:   "Type to search. Tab switches lists, up/down cycles results.",
	}
}

func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 3 + 1 + qh + 1 // header, summary, tabs; status; spacer
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, msg.Height-reserved-rh)
		m.viewport.SetContent(m.renderCurrent())
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD || msg.Type == tea.KeyEsc {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			if q := strings.TrimSpace(m.input.Value()); q != "" {
				m = m.runQuery(q)
				return m, nil
			}
		case "tab":
			m.tab = (m.tab + 1) % tabCount
			m.cursor = 0
			m.viewport.SetContent(m.renderCurrent())
			return m, nil
		case "down":
			if n := m.count(); n > 0 {
				m.cursor = (m.cursor + 1) % n
				m.viewport.SetContent(m.renderCurrent())
				return m, nil
			}
		case "up":
			if n := m.count(); n > 0 {
				m.cursor = (m.cursor - 1 + n) % n
				m.viewport.SetContent(m.renderCurrent())
				return m, nil
			}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) runQuery(q string) Model {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()
	res, err := m.searcher.ComprehensiveSearch(ctx, q, m.limits.Items, m.limits.Brands, m.limits.Discussions)
	if err != nil {
		m.status = "Error: " + err.Error()
		m.result = search.Comprehensive{}
	} else {
		m.result = res
		m.status = fmt.Sprintf("%q: %d items, %d brands, %d discussions",
			q, len(res.Items), len(res.Brands), len(res.Discussions))
	}
	m.cursor = 0
	m.viewport.SetContent(m.renderCurrent())
	return m
}

func (m Model) count() int {
	switch m.tab {
	case tabBrands:
		return len(m.result.Brands)
	case tabDiscussions:
		return len(m.result.Discussions)
	default:
		return len(m.result.Items)
	}
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Style Translator")
	summary := dimStyle.Render(m.summary)
	tabs := make([]string, 0, tabCount)
	for t := tabItems; t < tabCount; t++ {
		style := dimStyle
		if t == m.tab {
			style = activeTabStyle
		}
		tabs = append(tabs, style.Render(t.String()))
	}
	input := queryBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	results := resultBoxStyle.Render(m.viewport.View())
	return header + "\n" + summary + "\n" + strings.Join(tabs, "  ") + "\n" + results + "\n" + input + "\n" + status
}

func (m Model) renderCurrent() string {
	n := m.count()
	if n == 0 {
		return "No results yet."
	}
	var title, body string
	switch m.tab {
	case tabBrands:
		r := m.result.Brands[m.cursor]
		title = fmt.Sprintf("%s  score=%.3f", r.Record.Name, r.Similarity)
		body = joinLines(
			r.Record.Description,
			labelled("Aesthetic", r.Record.Aesthetics),
			labelled("Typical fits", r.Record.TypicalFits),
			labelled("Known for", r.Record.SignatureItems),
			"Price range: "+r.Record.PriceRange,
		)
	case tabDiscussions:
		r := m.result.Discussions[m.cursor]
		title = fmt.Sprintf("%s  score=%.3f", r.Record.Title, r.Similarity)
		body = joinLines(
			labelled("Brands", r.Record.MentionedBrands),
			labelled("Style", r.Record.StyleDescriptors),
			r.Record.SourceURL,
		) + "\n\n" + r.Record.Content
	default:
		r := m.result.Items[m.cursor]
		title = fmt.Sprintf("%s by %s  score=%.3f", r.Record.Name, r.Record.Brand, r.Similarity)
		price := ""
		if p, ok := r.Record.Price(); ok {
			price = fmt.Sprintf("$%.2f", p)
		}
		body = joinLines(
			r.Record.Category+" "+r.Record.Fit,
			r.Record.Description,
			labelled("Style", r.Record.StyleTags),
			labelled("Colors", r.Record.Colors),
			labelled("Materials", r.Record.Materials),
			price,
			r.Record.SourceURL,
		)
	}
	return fmt.Sprintf("%d/%d  %s", m.cursor+1, n, titleStyle.Render(title)) + "\n\n" + body
}

func labelled(label string, values []string) string {
	if len(values) == 0 {
		return ""
	}
	return label + ": " + strings.Join(values, ", ")
}

func joinLines(lines ...string) string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if l = strings.TrimSpace(l); l == "" {
			continue
		}
		out = append(out, l)
	}
	return strings.Join(out, "\n")
}

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	titleStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	activeTabStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true).Underline(true)
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)
