package viewcmder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	bubbletea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fsnotify/fsnotify"
	"github.com/muesli/termenv"

	"github.com/tracelens/tracelens/pkg/client"
	"github.com/tracelens/tracelens/pkg/grouping"
	"github.com/tracelens/tracelens/pkg/palette"
	"github.com/tracelens/tracelens/pkg/project"
	"github.com/tracelens/tracelens/pkg/viewstate"
)

func init() {
	// Force TrueColor profile to fix lipgloss color detection issue
	// See: https://github.com/charmbracelet/lipgloss/issues/439
	renderer := lipgloss.NewRenderer(os.Stdout, termenv.WithProfile(termenv.TrueColor))
	renderer.SetColorProfile(termenv.TrueColor)
	lipgloss.SetDefaultRenderer(renderer)
}

type viewFocus int

const (
	focusTree viewFocus = iota
	focusSource
)

const treePaneWidth = 30

// panelDragStep is the pointer distance one [ or ] keypress simulates.
const panelDragStep = 16

var (
	viewTitleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	viewMutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	viewDimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("236"))
	viewSectionStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	viewDividerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("237"))
	viewHighlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("235")).Background(lipgloss.Color("214")).Bold(true)
	viewDirStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("111")).Bold(true)
	viewLineNumStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	viewShaStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("108"))
	viewPinStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	viewErrStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

type viewKeyMap struct {
	Up         key.Binding
	Down       key.Binding
	Enter      key.Binding
	Back       key.Binding
	Tab        key.Binding
	GitBlame   key.Binding
	TraceBlame key.Binding
	Narrow     key.Binding
	Widen      key.Binding
	Quit       key.Binding
}

func (k viewKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Down, k.Up, k.Enter, k.Tab, k.GitBlame, k.TraceBlame, k.Quit}
}

func (k viewKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Down, k.Up, k.Enter, k.Back, k.Tab},
		{k.GitBlame, k.TraceBlame, k.Narrow, k.Widen, k.Quit},
	}
}

func defaultViewKeyMap() viewKeyMap {
	return viewKeyMap{
		Up:         key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k", "up")),
		Down:       key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j", "down")),
		Enter:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open/pin")),
		Back:       key.NewBinding(key.WithKeys("h", "esc"), key.WithHelp("h", "back")),
		Tab:        key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "pane")),
		GitBlame:   key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "git blame")),
		TraceBlame: key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "trace blame")),
		Narrow:     key.NewBinding(key.WithKeys("["), key.WithHelp("[", "narrow panel")),
		Widen:      key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "widen panel")),
		Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

type stateMsg struct{}

type treeLoadedMsg struct {
	dir     string
	entries []project.Entry
	err     error
}

type fileEventMsg struct {
	path string
}

type viewParams struct {
	ctrl        *viewstate.Controller
	api         *client.Client
	projectRoot string
	initialFile string
	theme       string
}

type viewModel struct {
	ctrl        *viewstate.Controller
	api         *client.Client
	projectRoot string
	theme       string
	watcher     *fsnotify.Watcher

	dir        string
	entries    []project.Entry
	treeCursor int

	line int // 1-based cursor line in the source pane
	top  int // 0-based first visible source line

	focus  viewFocus
	width  int
	height int
	status string
	keys   viewKeyMap
	help   help.Model

	initialFile string
}

func runViewTUI(ctx context.Context, params viewParams) error {
	model := newViewModel(params)

	watcher, err := fsnotify.NewWatcher()
	if err == nil {
		model.watcher = watcher
		defer watcher.Close()
		_ = watcher.Add(params.projectRoot)
		traceDir := filepath.Join(params.projectRoot, ".agent-trace")
		if _, statErr := os.Stat(traceDir); statErr == nil {
			_ = watcher.Add(traceDir)
		}
	}

	program := bubbletea.NewProgram(model,
		bubbletea.WithContext(ctx),
		bubbletea.WithAltScreen(),
	)

	// Controller transitions and watcher events both re-render through
	// the program's message loop.
	params.ctrl.SetOnChange(func() { program.Send(stateMsg{}) })
	if watcher != nil {
		go forwardFileEvents(watcher, params.projectRoot, program)
	}

	_, err = program.Run()
	return err
}

func newViewModel(params viewParams) *viewModel {
	return &viewModel{
		ctrl:        params.ctrl,
		api:         params.api,
		projectRoot: params.projectRoot,
		theme:       params.theme,
		initialFile: params.initialFile,
		focus:       focusTree,
		keys:        defaultViewKeyMap(),
		help:        help.New(),
	}
}

func forwardFileEvents(watcher *fsnotify.Watcher, root string, program *bubbletea.Program) {
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove) == 0 {
				continue
			}
			rel, err := filepath.Rel(root, event.Name)
			if err != nil {
				continue
			}
			program.Send(fileEventMsg{path: filepath.ToSlash(rel)})
		case _, ok := <-watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

func (m *viewModel) Init() bubbletea.Cmd {
	cmds := []bubbletea.Cmd{loadTreeCmd(m.api, "")}
	if m.initialFile != "" {
		cmds = append(cmds, m.openFileCmd(m.initialFile))
	}
	return bubbletea.Batch(cmds...)
}

func (m *viewModel) Update(msg bubbletea.Msg) (bubbletea.Model, bubbletea.Cmd) {
	switch msg := msg.(type) {
	case bubbletea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case stateMsg:
		m.clampScroll()
		return m, nil
	case treeLoadedMsg:
		if msg.err != nil {
			m.status = msg.err.Error()
			return m, nil
		}
		m.dir = msg.dir
		m.entries = msg.entries
		m.treeCursor = clampIndex(m.treeCursor, len(m.entries)-1)
		return m, nil
	case fileEventMsg:
		return m.handleFileEvent(msg.path)
	case bubbletea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *viewModel) handleFileEvent(path string) (bubbletea.Model, bubbletea.Cmd) {
	current := m.ctrl.Snapshot().Path
	if current == "" {
		return m, nil
	}
	// A change to the viewed file or to the attribution ledger refreshes
	// the current snapshot; the controller's generation tags make the
	// extra fetches harmless.
	if path == current || strings.HasPrefix(path, ".agent-trace/") {
		m.ctrl.SelectFile(context.Background(), current)
	}
	return m, nil
}

func (m *viewModel) handleKey(msg bubbletea.KeyMsg) (bubbletea.Model, bubbletea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, bubbletea.Quit
	case key.Matches(msg, m.keys.Tab):
		if m.focus == focusTree {
			m.focus = focusSource
		} else {
			m.focus = focusTree
		}
		return m, nil
	case key.Matches(msg, m.keys.GitBlame):
		m.ctrl.ToggleGitBlame()
		return m, nil
	case key.Matches(msg, m.keys.TraceBlame):
		m.ctrl.ToggleTraceBlame()
		return m, nil
	case key.Matches(msg, m.keys.Narrow):
		m.resizePanel(panelDragStep)
		return m, nil
	case key.Matches(msg, m.keys.Widen):
		m.resizePanel(-panelDragStep)
		return m, nil
	case key.Matches(msg, m.keys.Down):
		return m.moveCursor(1)
	case key.Matches(msg, m.keys.Up):
		return m.moveCursor(-1)
	case key.Matches(msg, m.keys.Enter):
		return m.activate()
	case key.Matches(msg, m.keys.Back):
		return m.back()
	}
	return m, nil
}

// resizePanel drives the controller's drag session from the keyboard:
// one keypress simulates a pointer move of panelDragStep. Positive x
// narrows, negative widens (the panel hangs off the right edge).
func (m *viewModel) resizePanel(x int) {
	m.ctrl.StartPanelDrag(0)
	m.ctrl.DragPanel(x)
	m.ctrl.EndPanelDrag()
}

func (m *viewModel) moveCursor(delta int) (bubbletea.Model, bubbletea.Cmd) {
	if m.focus == focusTree {
		if len(m.entries) == 0 {
			return m, nil
		}
		m.treeCursor = clampIndex(m.treeCursor+delta, len(m.entries)-1)
		return m, nil
	}

	snap := m.ctrl.Snapshot()
	total := snap.TotalLines()
	if total == 0 {
		return m, nil
	}
	m.line = clampIndex(m.line-1+delta, total-1) + 1
	m.clampScroll()
	// Cursor movement is the terminal analogue of hover: the debounce
	// delays the popover until the cursor rests.
	m.ctrl.HoverLine(m.line)
	return m, nil
}

func (m *viewModel) activate() (bubbletea.Model, bubbletea.Cmd) {
	if m.focus == focusTree {
		if m.treeCursor >= len(m.entries) {
			return m, nil
		}
		entry := m.entries[m.treeCursor]
		if entry.Type == "dir" {
			m.treeCursor = 0
			return m, loadTreeCmd(m.api, entry.Path)
		}
		m.focus = focusSource
		return m, m.openFileCmd(entry.Path)
	}

	if m.line > 0 {
		m.ctrl.ClickLine(context.Background(), m.line)
	}
	return m, nil
}

func (m *viewModel) back() (bubbletea.Model, bubbletea.Cmd) {
	if m.focus == focusTree {
		if m.dir == "" {
			return m, nil
		}
		parent := filepath.ToSlash(filepath.Dir(m.dir))
		if parent == "." {
			parent = ""
		}
		m.treeCursor = 0
		return m, loadTreeCmd(m.api, parent)
	}
	m.ctrl.LeaveLine()
	return m, nil
}

func (m *viewModel) openFileCmd(path string) bubbletea.Cmd {
	m.line = 1
	m.top = 0
	if m.watcher != nil {
		dir := filepath.Dir(filepath.Join(m.projectRoot, path))
		_ = m.watcher.Add(dir)
	}
	return func() bubbletea.Msg {
		m.ctrl.SelectFile(context.Background(), path)
		return stateMsg{}
	}
}

func loadTreeCmd(api *client.Client, dir string) bubbletea.Cmd {
	return func() bubbletea.Msg {
		entries, err := api.Tree(context.Background(), dir)
		return treeLoadedMsg{dir: dir, entries: entries, err: err}
	}
}

func (m *viewModel) sourceHeight() int {
	height := m.height
	if height <= 0 {
		height = 40
	}
	// header + rule + legend + help
	return max(height-6, 5)
}

func (m *viewModel) clampScroll() {
	snap := m.ctrl.Snapshot()
	total := snap.TotalLines()
	if total == 0 {
		m.top = 0
		m.line = 0
		return
	}
	if m.line == 0 {
		m.line = 1
	}
	m.line = clampIndex(m.line-1, total-1) + 1
	visible := m.sourceHeight()
	if m.line-1 < m.top {
		m.top = m.line - 1
	}
	if m.line-1 >= m.top+visible {
		m.top = m.line - visible
	}
	m.top = clampIndex(m.top, max(total-1, 0))
}

func (m *viewModel) View() string {
	width := m.width
	if width <= 0 {
		width = 100
	}

	header := renderHeaderLine(width,
		viewTitleStyle.Render("tracelens"),
		viewMutedStyle.Render(m.projectRoot),
	)

	lines := []string{header, renderRule(width)}

	panelCols := 0
	conv := m.ctrl.Conversation()
	if conv != nil {
		// Panel width is tracked in the controller's pixel-like units;
		// a terminal column stands in for ~8 of them.
		panelCols = clampInt(m.ctrl.PanelWidth()/8, 24, max(width/2, 24))
	}
	sourceCols := width - treePaneWidth - panelCols - 4

	bodyHeight := m.sourceHeight()
	tree := m.renderTree(treePaneWidth, bodyHeight)
	source := m.renderSource(max(sourceCols, 20), bodyHeight)

	columns := []string{
		strings.Join(tree, "\n"),
		strings.Join(source, "\n"),
	}
	if conv != nil {
		panel := m.renderConversation(conv, panelCols, bodyHeight)
		columns = append(columns, strings.Join(panel, "\n"))
	}
	lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, interleaveGaps(columns, 2)...))

	lines = append(lines, m.renderLegend(width))
	if m.status != "" {
		lines = append(lines, viewErrStyle.Render(truncateText(m.status, width)))
	}
	lines = append(lines, viewMutedStyle.Render(m.help.View(m.keys)))

	return strings.Join(lines, "\n")
}

func (m *viewModel) renderTree(width, height int) []string {
	title := "files"
	if m.dir != "" {
		title = m.dir
	}
	lines := []string{viewSectionStyle.Render(truncateText(title, width))}

	for i, entry := range m.entries {
		cursor := " "
		if i == m.treeCursor && m.focus == focusTree {
			cursor = ">"
		}
		name := entry.Name
		if entry.Type == "dir" {
			name = viewDirStyle.Render(name + "/")
		}
		line := fmt.Sprintf("%s %s", cursor, name)
		if i == m.treeCursor && m.focus == focusTree {
			line = viewHighlightStyle.Render(truncateText(fmt.Sprintf("%s %s", cursor, entry.Name), width))
		}
		lines = append(lines, truncateText(line, width))
	}
	if len(m.entries) == 0 {
		lines = append(lines, viewMutedStyle.Render("empty"))
	}

	return padLines(lines, width, height)
}

func (m *viewModel) renderSource(width, height int) []string {
	snap := m.ctrl.Snapshot()
	if snap.Path == "" {
		return padLines([]string{viewMutedStyle.Render("select a file")}, width, height)
	}

	toggles := m.ctrl.Toggles()
	overlaysOn := toggles.Any() && m.ctrl.OverlaysReady()
	derived := m.ctrl.Derived()
	pinnedKey := m.ctrl.PinnedTraceKey()
	pinned := m.ctrl.PinnedLine()

	lines := []string{viewSectionStyle.Render(truncateText(snap.Path, width))}

	total := snap.TotalLines()
	end := min(m.top+height-1, total)
	for i := m.top; i < end; i++ {
		lineNo := i + 1
		gutter := m.renderGutter(lineNo, toggles, overlaysOn, derived, pinnedKey)

		marker := " "
		if lineNo == pinned {
			marker = viewPinStyle.Render("●")
		}
		cursor := " "
		if lineNo == m.line && m.focus == focusSource {
			cursor = ">"
		}

		text := ""
		if i < len(snap.Lines) {
			text = strings.ReplaceAll(snap.Lines[i], "\t", "    ")
		}
		num := viewLineNumStyle.Render(fmt.Sprintf("%4d", lineNo))
		line := fmt.Sprintf("%s%s %s %s%s %s", cursor, marker, num, gutter, viewDividerStyle.Render("│"), text)
		lines = append(lines, truncateText(line, width))
	}

	if popover := m.ctrl.Popover(); popover != nil {
		lines = append(lines, renderPopover(popover, width)...)
	}

	return padLines(lines, width, height)
}

// renderGutter builds the per-line provenance cell: a short commit sha
// for the git overlay and a colored bar for the trace overlay. Nothing
// renders before both overlay fetches settle (join semantics).
func (m *viewModel) renderGutter(line int, toggles viewstate.Toggles, ready bool, derived viewstate.Derived, pinnedKey string) string {
	gitCell := strings.Repeat(" ", 8)
	traceCell := " "

	if ready {
		if toggles.GitBlame {
			if seg := derived.Index.FindSegment(line); seg != nil {
				gitCell = viewShaStyle.Render(fitCell(shortSHA(seg.CommitSHA), 8))
			}
		}
		if toggles.TraceBlame {
			attr := derived.Index.FindAttribution(line)
			if attr != nil {
				pair := palette.ForAttribution(attr, derived.Colors)
				style := lipgloss.NewStyle().Foreground(lipgloss.Color(pair.Accent))
				if pinnedKey != "" && grouping.TraceKeyOf(attr) == pinnedKey {
					style = style.Bold(true).Background(lipgloss.Color(pair.Fill))
				}
				traceCell = style.Render("▌")
			} else {
				traceCell = viewDimStyle.Render("╎")
			}
		}
	}

	if !toggles.GitBlame {
		gitCell = ""
	} else {
		gitCell += " "
	}
	if !toggles.TraceBlame {
		traceCell = ""
	}
	return gitCell + traceCell
}

func renderPopover(p *viewstate.Popover, width int) []string {
	lines := []string{renderSectionDivider(width, fmt.Sprintf("line %d", p.Line))}
	if p.Segment != nil {
		lines = append(lines, truncateText(fmt.Sprintf("  commit %s  %s  %s",
			shortSHA(p.Segment.CommitSHA), p.Segment.Author, p.Segment.Summary), width))
	}
	if p.Attribution != nil {
		a := p.Attribution
		detail := a.AttributionLabel
		if a.ModelID != "" {
			detail += "  " + a.ModelID
		}
		if a.TraceID != "" {
			detail += "  trace " + a.TraceID
		}
		lines = append(lines, truncateText("  "+detail, width))
		if a.ConversationSummary != "" {
			lines = append(lines, truncateText("  "+a.ConversationSummary, width))
		}
	}
	if p.Segment == nil && p.Attribution == nil {
		lines = append(lines, viewMutedStyle.Render("  unattributed"))
	}
	return lines
}

// renderLegend shows the by-model coverage slices of the pie as a
// colored textual legend, in slice order.
func (m *viewModel) renderLegend(width int) string {
	derived := m.ctrl.Derived()
	if len(derived.Slices) == 0 {
		return viewMutedStyle.Render("coverage: no data")
	}

	parts := make([]string, 0, len(derived.Slices))
	for _, slice := range derived.Slices {
		swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(slice.Color.Accent)).Render("▉")
		parts = append(parts, fmt.Sprintf("%s %s %.1f%%", swatch, slice.Label, slice.Pct))
	}
	return truncateText(strings.Join(parts, "   "), width)
}

func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}

func clampIndex(value, upper int) int {
	if value < 0 {
		return 0
	}
	if value > upper {
		return upper
	}
	return value
}

func clampInt(value, lower, upper int) int {
	if value < lower {
		return lower
	}
	if value > upper {
		return upper
	}
	return value
}

func truncateText(value string, limit int) string {
	if lipgloss.Width(value) <= limit {
		return value
	}
	if limit <= 1 {
		return ""
	}
	// Byte truncation is close enough for the status and tree rows;
	// styled source lines are cut by column below.
	runes := []rune(value)
	if len(runes) > limit-1 {
		runes = runes[:limit-1]
	}
	return string(runes) + "…"
}

func fitCell(value string, width int) string {
	if width <= 0 {
		return value
	}
	if lipgloss.Width(value) > width {
		return truncateText(value, width)
	}
	return value + strings.Repeat(" ", width-lipgloss.Width(value))
}

func padLines(lines []string, width, height int) []string {
	if height <= 0 {
		return []string{}
	}
	result := make([]string, 0, height)
	for _, line := range lines {
		result = append(result, padRight(line, width))
		if len(result) >= height {
			return result[:height]
		}
	}
	for len(result) < height {
		result = append(result, strings.Repeat(" ", width))
	}
	return result
}

func padRight(value string, width int) string {
	lineWidth := lipgloss.Width(value)
	if lineWidth >= width {
		return value
	}
	return value + strings.Repeat(" ", width-lineWidth)
}

func renderHeaderLine(width int, left, right string) string {
	leftWidth := lipgloss.Width(left)
	rightWidth := lipgloss.Width(right)
	if leftWidth+rightWidth+1 >= width {
		return strings.TrimSpace(left + " " + right)
	}
	return left + strings.Repeat(" ", width-leftWidth-rightWidth) + right
}

func renderRule(width int) string {
	return viewDividerStyle.Render(strings.Repeat("─", max(width, 1)))
}

func renderSectionDivider(width int, title string) string {
	label := fmt.Sprintf("─── %s ", title)
	remaining := width - lipgloss.Width(label)
	if remaining < 0 {
		return label
	}
	return viewDividerStyle.Render(label + strings.Repeat("─", remaining))
}

func interleaveGaps(columns []string, gap int) []string {
	spacer := strings.Repeat(" ", gap)
	out := make([]string, 0, len(columns)*2-1)
	for i, col := range columns {
		if i > 0 {
			out = append(out, spacer)
		}
		out = append(out, col)
	}
	return out
}
