package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/SBrookhart/side-quest-generator/internal/browser"
	"github.com/SBrookhart/side-quest-generator/internal/quest"
	"github.com/SBrookhart/side-quest-generator/internal/store"
)

type focusPane int

const (
	focusList focusPane = iota
	focusPreview
)

type mode int

const (
	modeNormal mode = iota
	modeSearch
	modeFilter
	modeHelp
)

// Batches reads stored quest batches by date.
type Batches interface {
	GetBatch(ctx context.Context, date string) ([]quest.Idea, error)
}

type App struct {
	batches Batches
	date    string
	today   string
	all     []quest.Idea
	ideas   []quest.Idea
	missing bool
	cursor  int
	focus   focusPane
	mode    mode

	width  int
	height int

	searchInput textinput.Model
	spinner     spinner.Model
	filterBar   filterBar

	loading       bool
	previewScroll int
	err           error
	open          func(string) error
}

// RunOpts holds all parameters for launching the TUI.
type RunOpts struct {
	Batches Batches
	// Date is the first day shown. Today caps forward paging.
	Date  string
	Today string
}

func NewApp(opts RunOpts) *App {
	ti := textinput.New()
	ti.Placeholder = "Search quests..."
	ti.Prompt = searchPromptStyle.Render("/ ")
	ti.CharLimit = 100

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = spinnerStyle

	today := opts.Today
	if today == "" {
		today = time.Now().Format(time.DateOnly)
	}
	date := opts.Date
	if date == "" {
		date = today
	}

	return &App{
		batches:     opts.Batches,
		date:        date,
		today:       today,
		filterBar:   newFilterBar(),
		searchInput: ti,
		spinner:     sp,
		loading:     true,
		open:        browser.Open,
	}
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(a.loadDayCmd(a.date), a.spinner.Tick)
}

// loadDayCmd captures the store and date so the closure never reads App state.
func (a *App) loadDayCmd(date string) tea.Cmd {
	batches := a.batches
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		ideas, err := batches.GetBatch(ctx, date)
		if errors.Is(err, store.ErrNotFound) {
			return dayMissingMsg{date: date}
		}
		if err != nil {
			return loadErrMsg{err: fmt.Errorf("loading %s: %w", date, err)}
		}
		return dayLoadedMsg{date: date, ideas: ideas}
	}
}

func (a *App) openCmd(url string) tea.Cmd {
	open := a.open
	return func() tea.Msg {
		if err := open(url); err != nil {
			return openErrMsg{err: err}
		}
		return nil
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case tea.KeyMsg:
		// Clear sticky error on any keypress
		a.err = nil
		return a.handleKey(msg)

	case dayLoadedMsg:
		if msg.date != a.date {
			return a, nil
		}
		a.loading = false
		a.missing = false
		a.all = msg.ideas
		a.refilter()
		return a, nil

	case dayMissingMsg:
		if msg.date != a.date {
			return a, nil
		}
		a.loading = false
		a.missing = true
		a.all = nil
		a.refilter()
		return a, nil

	case loadErrMsg:
		a.loading = false
		a.err = msg.err
		return a, nil

	case openErrMsg:
		a.err = msg.err
		return a, nil

	case spinner.TickMsg:
		if a.loading {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil
	}

	return a, nil
}

func (a *App) refilter() {
	a.ideas = filterIdeas(a.all, &a.filterBar, a.searchInput.Value())
	if a.cursor >= len(a.ideas) {
		a.cursor = max(0, len(a.ideas)-1)
	}
	a.previewScroll = 0
}

func (a *App) selected() *quest.Idea {
	if a.cursor < len(a.ideas) {
		return &a.ideas[a.cursor]
	}
	return nil
}

// gotoDay moves the view days away from the current date, never past today.
func (a *App) gotoDay(days int) tea.Cmd {
	next, err := shiftDate(a.date, days, a.today)
	if err != nil || next == a.date {
		return nil
	}
	a.date = next
	a.cursor = 0
	a.loading = true
	return tea.Batch(a.loadDayCmd(next), a.spinner.Tick)
}

// shiftDate adds days to date and clamps the result to limit.
func shiftDate(date string, days int, limit string) (string, error) {
	t, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return "", err
	}
	next := t.AddDate(0, 0, days).Format(time.DateOnly)
	if limit != "" && next > limit {
		return limit, nil
	}
	return next, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return a, tea.Quit
	}

	switch a.mode {
	case modeSearch:
		return a.handleSearchKey(msg)
	case modeFilter:
		return a.handleFilterKey(msg)
	case modeHelp:
		if msg.String() == "?" || msg.String() == "esc" || msg.String() == "q" {
			a.mode = modeNormal
		}
		return a, nil
	}

	switch msg.String() {
	case "q":
		return a, tea.Quit
	case "j", "down":
		if a.focus == focusList && a.cursor < len(a.ideas)-1 {
			a.cursor++
			a.previewScroll = 0
		} else if a.focus == focusPreview {
			a.previewScroll++
		}
		return a, nil
	case "k", "up":
		if a.focus == focusList && a.cursor > 0 {
			a.cursor--
			a.previewScroll = 0
		} else if a.focus == focusPreview && a.previewScroll > 0 {
			a.previewScroll--
		}
		return a, nil
	case "tab":
		if a.focus == focusList {
			a.focus = focusPreview
		} else {
			a.focus = focusList
		}
		return a, nil
	case "[", "left":
		return a, a.gotoDay(-1)
	case "]", "right":
		return a, a.gotoDay(1)
	case "t":
		if a.date == a.today {
			return a, nil
		}
		a.date = a.today
		a.cursor = 0
		a.loading = true
		return a, tea.Batch(a.loadDayCmd(a.today), a.spinner.Tick)
	case "o", "enter":
		return a, a.openSource(0)
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		return a, a.openSource(int(msg.String()[0] - '1'))
	case "/":
		a.mode = modeSearch
		a.searchInput.Focus()
		return a, textinput.Blink
	case "f":
		a.mode = modeFilter
		a.filterBar.filterMode = true
		return a, nil
	case "?":
		a.mode = modeHelp
		return a, nil
	}

	return a, nil
}

func (a *App) openSource(i int) tea.Cmd {
	idea := a.selected()
	if idea == nil || i >= len(idea.Sources) {
		return nil
	}
	return a.openCmd(idea.Sources[i].URL)
}

func (a *App) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.mode = modeNormal
		a.searchInput.SetValue("")
		a.searchInput.Blur()
		a.refilter()
		return a, nil
	case "enter":
		a.mode = modeNormal
		a.searchInput.Blur()
		a.refilter()
		return a, nil
	}

	var cmd tea.Cmd
	a.searchInput, cmd = a.searchInput.Update(msg)
	a.refilter()
	return a, cmd
}

func (a *App) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "f":
		a.mode = modeNormal
		a.filterBar.filterMode = false
		return a, nil
	case "left", "h":
		if a.filterBar.filterCursor > 0 {
			a.filterBar.filterCursor--
		}
		return a, nil
	case "right", "l":
		if a.filterBar.filterCursor < len(a.filterBar.difficulties)-1 {
			a.filterBar.filterCursor++
		}
		return a, nil
	case " ", "enter":
		a.filterBar.toggleCurrent()
		a.cursor = 0
		a.refilter()
		return a, nil
	case "1", "2", "3":
		idx := int(msg.String()[0] - '1')
		if idx < len(a.filterBar.difficulties) {
			a.filterBar.toggle(a.filterBar.difficulties[idx])
			a.cursor = 0
			a.refilter()
		}
		return a, nil
	}
	return a, nil
}

func (a *App) withBottomBar(content string, hints string) string {
	bar := renderBottomBar(hints, a.width)
	return lipgloss.JoinVertical(lipgloss.Left, lipgloss.NewStyle().Height(a.height-1).MaxHeight(a.height-1).Render(content), bar)
}

func (a *App) View() string {
	if a.width == 0 {
		return lipgloss.NewStyle().Foreground(colorAccent).Render("  side quests")
	}

	if a.mode == modeHelp {
		return a.withBottomBar(a.renderHelp(), "? close  q quit")
	}

	if (a.missing || (a.err != nil && a.all == nil)) && !a.loading {
		return a.withBottomBar(renderEmptyDay(a.width, a.height-1, a.date, a.err), "[ prev  ] next  t today  q quit")
	}

	headerHeight := 1
	filterHeight := 1
	statusHeight := 1
	contentHeight := a.height - headerHeight - filterHeight - statusHeight - 4 // borders

	listWidth := int(float64(a.width) * 0.35)
	previewWidth := a.width - listWidth - 1

	if contentHeight < 3 {
		contentHeight = 3
	}

	headerLeft := headerStyle.Render("side quests")
	headerRight := headerDateStyle.Render(formatDay(a.date, a.today))
	header := spread(headerLeft, headerRight, a.width)

	filter := a.filterBar.render(a.width)
	if a.mode == modeSearch {
		filter = a.searchInput.View()
	}

	innerListW := listWidth - 4 // border + padding
	listContent := renderList(a.ideas, a.cursor, contentHeight, innerListW)

	listStyle := listPaneStyle
	if a.focus == focusList {
		listStyle = listPaneActiveStyle
	}
	listPane := listStyle.Width(listWidth - 2).Height(contentHeight).Render(listContent)

	previewContent := renderPreview(a.selected(), previewWidth-4, contentHeight, a.previewScroll)
	previewStyle := previewPaneStyle
	if a.focus == focusPreview {
		previewStyle = previewPaneActiveStyle
	}
	previewPane := previewStyle.Width(previewWidth - 2).Height(contentHeight).Render(previewContent)

	content := lipgloss.JoinHorizontal(lipgloss.Top, listPane, previewPane)

	status := renderStatusBar(len(a.ideas), len(a.all), a.filterBar.activeLabel(), a.width, a.mode == modeSearch, a.loading)
	if a.loading {
		status = a.spinner.View() + " " + status
	}
	if a.err != nil {
		status = lipgloss.NewStyle().Foreground(colorAccent).Render(a.err.Error())
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, filter, content, status)
}

func formatDay(date, today string) string {
	t, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return date
	}
	label := t.Format("Mon, Jan 2 2006")
	if date == today {
		label += " (today)"
	}
	return label
}

func (a *App) renderHelp() string {
	title := lipgloss.NewStyle().Foreground(colorAccent).Bold(true).Render("side quests")
	dim := helpDimStyle

	help := title + dim.Render(" · Keyboard Shortcuts") + "\n\n" +
		dim.Render("Navigation") + "\n" +
		"  j/k, ↑/↓     Move through quests\n" +
		"  tab           Switch focus between list and preview\n" +
		"  [/], ←/→     Previous / next day\n" +
		"  t             Jump to today\n\n" +
		dim.Render("Actions") + "\n" +
		"  o, enter      Open first source in browser\n" +
		"  1-9           Open source by number\n" +
		"  /             Search quests\n" +
		"  f             Difficulty filter mode\n\n" +
		dim.Render("Filter Mode") + "\n" +
		"  ←/→, h/l     Move between difficulties\n" +
		"  space/enter   Toggle difficulty\n" +
		"  1-3           Toggle difficulty by number\n" +
		"  esc, f        Exit filter mode\n\n" +
		dim.Render("General") + "\n" +
		"  ?             Toggle this help\n" +
		"  q, ctrl+c    Quit"

	card := helpCardStyle.Render(help)

	return lipgloss.Place(a.width, a.height-1, lipgloss.Center, lipgloss.Center, card)
}

// Run starts the TUI application.
func Run(opts RunOpts) error {
	app := NewApp(opts)
	p := tea.NewProgram(app, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
