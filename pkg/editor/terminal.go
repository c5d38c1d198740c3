package editor

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"qiita-editor/pkg/models"
)

var (
	dialogStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#55C500")).
			Padding(0, 1)
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	urlPattern  = regexp.MustCompile(`https?://\S+`)
)

// TerminalPresenter draws panels and dialogs on the controlling terminal.
type TerminalPresenter struct {
	in  *os.File
	out io.Writer

	mu         sync.Mutex
	lastStatus string
	lastLabel  string
	panelOpen  bool
}

func NewTerminalPresenter() *TerminalPresenter {
	return &TerminalPresenter{in: os.Stdin, out: os.Stdout}
}

func (p *TerminalPresenter) interactive() bool {
	return term.IsTerminal(int(p.in.Fd()))
}

// ShowQuickPanel runs the panel on its own goroutine and reports the choice
// through onDone, as an editor's panel would.
func (p *TerminalPresenter) ShowQuickPanel(entries []models.ListEntry, onDone func(index int)) {
	p.setPanelOpen(true)
	go func() {
		var index int
		if p.interactive() {
			var err error
			if index, err = runQuickPanel(entries, p.in, p.out); err != nil {
				log.Printf("quick panel: %v", err)
				index = -1
			}
		} else {
			index = p.prompt(entries)
		}
		p.setPanelOpen(false)
		onDone(index)
	}()
}

func (p *TerminalPresenter) setPanelOpen(open bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.panelOpen = open
}

// prompt is the fallback for pipes: a numbered list and one line of input.
func (p *TerminalPresenter) prompt(entries []models.ListEntry) int {
	for i, e := range entries {
		fmt.Fprintf(p.out, "%3d  %s\n     %s\n", i+1, e.Title, e.Detail)
	}
	fmt.Fprint(p.out, "item number (empty to cancel): ")

	line, err := bufio.NewReader(p.in).ReadString('\n')
	if err != nil && line == "" {
		return -1
	}
	n, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil || n < 1 || n > len(entries) {
		return -1
	}
	return n - 1
}

func (p *TerminalPresenter) MessageDialog(msg string) {
	fmt.Fprintln(p.out, dialogStyle.Render(msg))
	if u := urlPattern.FindString(msg); u != "" {
		if err := clipboard.WriteAll(u); err == nil {
			fmt.Fprintln(p.out, statusStyle.Render("URL copied to clipboard."))
		}
	}
}

func (p *TerminalPresenter) StatusMessage(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	// The panel owns the screen while it is open.
	if p.panelOpen || msg == p.lastStatus {
		return
	}
	p.lastStatus = msg
	if p.interactive() {
		fmt.Fprint(p.out, "\r\033[K"+statusStyle.Render(msg))
		return
	}
	// Without a terminal the animation frames would each take a line.
	label, _, _ := strings.Cut(msg, " [")
	if label == p.lastLabel {
		return
	}
	p.lastLabel = label
	fmt.Fprintln(p.out, msg)
}

type panelItem struct {
	index int
	entry models.ListEntry
}

func (i panelItem) Title() string       { return i.entry.Title }
func (i panelItem) Description() string { return i.entry.Detail }
func (i panelItem) FilterValue() string { return i.entry.Title + " " + i.entry.Detail }

type panelModel struct {
	list   list.Model
	chosen int
}

func (m panelModel) Init() tea.Cmd {
	return nil
}

func (m panelModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width, msg.Height)
		return m, nil
	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "enter":
			if item, ok := m.list.SelectedItem().(panelItem); ok {
				m.chosen = item.index
			}
			return m, tea.Quit
		case "esc", "ctrl+c", "q":
			m.chosen = -1
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m panelModel) View() string {
	return m.list.View()
}

func runQuickPanel(entries []models.ListEntry, in io.Reader, out io.Writer) (int, error) {
	items := make([]list.Item, len(entries))
	for i, e := range entries {
		items[i] = panelItem{index: i, entry: e}
	}
	l := list.New(items, list.NewDefaultDelegate(), 80, 20)
	l.Title = "Qiita items"
	l.SetShowStatusBar(false)

	final, err := tea.NewProgram(panelModel{list: l, chosen: -1},
		tea.WithInput(in), tea.WithOutput(out), tea.WithAltScreen()).Run()
	if err != nil {
		return -1, err
	}
	return final.(panelModel).chosen, nil
}
