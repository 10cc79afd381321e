// Package viewstate holds the interactive state machine of the viewer:
// the selected file's data snapshot, pin/hover state, overlay toggles,
// and the derived structures recomputed on every transition. Each
// derived structure is a pure function of snapshot plus interaction
// state; correctness rests on discarding stale asynchronous results, not
// on locking discipline or memoization.
package viewstate

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tracelens/tracelens/pkg/agenttrace"
	"github.com/tracelens/tracelens/pkg/conversation"
	"github.com/tracelens/tracelens/pkg/transcript"
)

// PopoverDelay is the hover quiescence time before a popover shows.
const PopoverDelay = 250 * time.Millisecond

// Panel width bounds for the side-panel drag interaction.
const (
	DefaultPanelWidth = 320
	MinPanelWidth     = 200
	MaxPanelWidth     = 640
)

// DataSource supplies the external snapshots the controller consumes.
// Implementations fetch over HTTP or read locally; the controller only
// sees their settled results.
type DataSource interface {
	FetchFile(ctx context.Context, path string) (string, error)
	FetchBlame(ctx context.Context, path string) ([]agenttrace.BlameSegment, error)
	FetchAttributions(ctx context.Context, path string) ([]agenttrace.Attribution, error)
	FetchConversation(ctx context.Context, ref string) (*conversation.Result, error)
}

// Toggles is the overlay visibility state. It persists across file
// switches; everything else resets per selection.
type Toggles struct {
	GitBlame   bool
	TraceBlame bool
}

// Any reports whether at least one overlay is active.
func (t Toggles) Any() bool {
	return t.GitBlame || t.TraceBlame
}

// Snapshot is one file's fetched data. Immutable once settled; every
// derived structure is rebuilt from it.
type Snapshot struct {
	Path         string
	Lines        []string
	Segments     []agenttrace.BlameSegment
	Attributions []agenttrace.Attribution
}

// TotalLines is the line count of the snapshot's content.
func (s *Snapshot) TotalLines() int {
	return len(s.Lines)
}

// Popover is the hover detail for one line, restricted to the overlays
// enabled at the moment it was scheduled.
type Popover struct {
	Line        int
	Segment     *agenttrace.BlameSegment
	Attribution *agenttrace.Attribution
}

// Conversation is the transcript selection tied to the pinned line.
type Conversation struct {
	Ref     string
	Loading bool
	Result  *conversation.Result
	Blocks  []transcript.Block
	Err     error
}

// CancelFunc cancels a scheduled timer callback.
type CancelFunc func()

// Schedule runs fn after d; the returned CancelFunc stops it. Injected
// in tests to drive the debounce deterministically.
type Schedule func(d time.Duration, fn func()) CancelFunc

func realSchedule(d time.Duration, fn func()) CancelFunc {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}

// Controller is the view state machine. All methods are safe for
// concurrent use; asynchronous fetch results are applied through
// generation-tagged Apply methods so a superseded selection can never
// overwrite a newer one.
type Controller struct {
	mu sync.Mutex

	source   DataSource
	schedule Schedule
	onChange func()

	// selection
	gen  string
	path string
	snap Snapshot

	fileSettled  bool
	blameSettled bool
	attrSettled  bool

	// interaction
	toggles     Toggles
	pinnedLine  int
	hoveredLine int

	popover       *Popover
	cancelPopover CancelFunc

	convToken string
	conv      *Conversation

	panelWidth int
	drag       *dragState

	derived Derived
}

type dragState struct {
	startX     int
	startWidth int
}

// Option configures a Controller.
type Option func(*Controller)

// WithSchedule overrides the debounce timer factory.
func WithSchedule(s Schedule) Option {
	return func(c *Controller) { c.schedule = s }
}

// WithOnChange registers a callback invoked after every state change,
// outside the controller lock.
func WithOnChange(fn func()) Option {
	return func(c *Controller) { c.onChange = fn }
}

// New creates a controller over the given data source. Both overlays
// start enabled.
func New(source DataSource, opts ...Option) *Controller {
	c := &Controller{
		source:     source,
		schedule:   realSchedule,
		toggles:    Toggles{GitBlame: true, TraceBlame: true},
		panelWidth: DefaultPanelWidth,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.recomputeLocked()
	return c
}

func (c *Controller) notify() {
	c.mu.Lock()
	fn := c.onChange
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// SetOnChange replaces the change callback. Callers that cannot build
// the callback before the controller exists (a TUI program needs the
// controller to construct its model) install it here.
func (c *Controller) SetOnChange(fn func()) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

// SelectFile starts a new selection: it resets the pinned line, any
// popover, and any open conversation, then dispatches the content,
// blame, and attribution fetches tagged with a fresh generation token.
// The token is returned so callers (and tests) can apply results
// explicitly. Toggle preferences survive the switch.
func (c *Controller) SelectFile(ctx context.Context, path string) string {
	c.mu.Lock()
	gen := uuid.NewString()
	c.gen = gen
	c.path = path
	c.snap = Snapshot{Path: path}
	c.fileSettled = false
	c.blameSettled = false
	c.attrSettled = false
	c.pinnedLine = 0
	c.hoveredLine = 0
	c.clearPopoverLocked()
	c.conv = nil
	c.convToken = ""
	c.recomputeLocked()
	source := c.source
	c.mu.Unlock()
	c.notify()

	if source != nil {
		go func() {
			content, err := source.FetchFile(ctx, path)
			c.ApplyFileResult(gen, content, err)
		}()
		go func() {
			segments, err := source.FetchBlame(ctx, path)
			c.ApplyBlameResult(gen, segments, err)
		}()
		go func() {
			attrs, err := source.FetchAttributions(ctx, path)
			c.ApplyAttributionResult(gen, attrs, err)
		}()
	}
	return gen
}

// ApplyFileResult settles the content fetch for the given generation.
// Results for superseded generations are discarded; a fetch failure
// degrades to empty content.
func (c *Controller) ApplyFileResult(gen, content string, err error) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	if err != nil {
		content = ""
	}
	c.snap.Lines = splitLines(content)
	c.fileSettled = true
	c.recomputeLocked()
	c.mu.Unlock()
	c.notify()
}

// ApplyBlameResult settles the blame fetch. Failures degrade to an
// empty segment list without blocking the attribution overlay.
func (c *Controller) ApplyBlameResult(gen string, segments []agenttrace.BlameSegment, err error) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	if err != nil {
		segments = nil
	}
	c.snap.Segments = segments
	c.blameSettled = true
	c.recomputeLocked()
	c.mu.Unlock()
	c.notify()
}

// ApplyAttributionResult settles the attribution fetch. Failures
// degrade to an empty attribution list.
func (c *Controller) ApplyAttributionResult(gen string, attrs []agenttrace.Attribution, err error) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	if err != nil {
		attrs = nil
	}
	c.snap.Attributions = attrs
	c.attrSettled = true
	c.recomputeLocked()
	c.mu.Unlock()
	c.notify()
}

// OverlaysReady reports whether both overlay fetches have settled.
// Neither overlay renders before this is true (join semantics).
func (c *Controller) OverlaysReady() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.blameSettled && c.attrSettled
}

// Snapshot returns the current selection snapshot.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap
}

// Toggles returns the current overlay toggles.
func (c *Controller) Toggles() Toggles {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.toggles
}

// ToggleGitBlame flips the git blame overlay.
func (c *Controller) ToggleGitBlame() {
	c.toggleOverlay(func(t *Toggles) { t.GitBlame = !t.GitBlame })
}

// ToggleTraceBlame flips the trace overlay. Disabling it clears the
// conversation selection, since conversations hang off trace pins.
func (c *Controller) ToggleTraceBlame() {
	c.toggleOverlay(func(t *Toggles) { t.TraceBlame = !t.TraceBlame })
}

func (c *Controller) toggleOverlay(flip func(*Toggles)) {
	c.mu.Lock()
	wasTrace := c.toggles.TraceBlame
	flip(&c.toggles)
	if !c.toggles.Any() {
		// Pinning is only meaningful while an overlay is active.
		c.pinnedLine = 0
		c.clearPopoverLocked()
		c.conv = nil
		c.convToken = ""
	} else if wasTrace && !c.toggles.TraceBlame {
		c.conv = nil
		c.convToken = ""
	}
	c.recomputeLocked()
	c.mu.Unlock()
	c.notify()
}

// PinnedLine returns the pinned line, 0 when nothing is pinned.
func (c *Controller) PinnedLine() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pinnedLine
}

// ClickLine toggles the pin on a line: clicking the pinned line unpins
// it, clicking another moves the pin. A no-op while both overlays are
// off. Pinning a line whose trace attribution carries a conversation
// reference selects that conversation; unpinning clears it. The
// returned token identifies the conversation request, "" when none was
// issued.
func (c *Controller) ClickLine(ctx context.Context, line int) string {
	c.mu.Lock()
	if !c.toggles.Any() {
		c.mu.Unlock()
		return ""
	}
	if c.pinnedLine == line {
		c.pinnedLine = 0
		c.conv = nil
		c.convToken = ""
		c.mu.Unlock()
		c.notify()
		return ""
	}
	c.pinnedLine = line

	var ref string
	if c.toggles.TraceBlame {
		if attr := c.derived.Index.FindAttribution(line); attr != nil {
			ref = attr.ConversationURL
		}
	}
	if ref == "" {
		c.conv = nil
		c.convToken = ""
		c.mu.Unlock()
		c.notify()
		return ""
	}

	token := uuid.NewString()
	c.convToken = token
	c.conv = &Conversation{Ref: ref, Loading: true}
	source := c.source
	c.mu.Unlock()
	c.notify()

	if source != nil {
		go func() {
			result, err := source.FetchConversation(ctx, ref)
			c.ApplyConversationResult(token, ref, result, err)
		}()
	}
	return token
}

// ApplyConversationResult settles a conversation fetch. Responses for
// anything but the most recently requested reference are discarded, so
// out-of-order arrivals cannot corrupt the displayed transcript
// (last-requested-reference-wins).
func (c *Controller) ApplyConversationResult(token, ref string, result *conversation.Result, err error) {
	c.mu.Lock()
	if token != c.convToken {
		c.mu.Unlock()
		return
	}
	conv := &Conversation{Ref: ref, Result: result, Err: err}
	if err == nil && result != nil && !result.OpenExternal {
		conv.Blocks = transcript.Parse(result.Content)
	}
	c.conv = conv
	c.mu.Unlock()
	c.notify()
}

// Conversation returns the current conversation selection, nil when
// none is open.
func (c *Controller) Conversation() *Conversation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conv
}

// HoverLine schedules a popover for the line after the debounce delay.
// Moving to another line (or leaving, see LeaveLine) before the delay
// elapses cancels the pending popover so it never flashes. Nothing is
// scheduled while both overlays are off.
func (c *Controller) HoverLine(line int) {
	c.mu.Lock()
	if line == c.hoveredLine {
		c.mu.Unlock()
		return
	}
	c.hoveredLine = line
	c.clearPopoverLocked()
	if line <= 0 || !c.toggles.Any() {
		c.mu.Unlock()
		c.notify()
		return
	}
	gen := c.gen
	c.cancelPopover = c.schedule(PopoverDelay, func() {
		c.showPopover(gen, line)
	})
	c.mu.Unlock()
	c.notify()
}

// LeaveLine cancels any pending or visible popover.
func (c *Controller) LeaveLine() {
	c.mu.Lock()
	c.hoveredLine = 0
	c.clearPopoverLocked()
	c.mu.Unlock()
	c.notify()
}

// showPopover fires when the debounce delay elapses with the pointer
// still on the same line of the same selection.
func (c *Controller) showPopover(gen string, line int) {
	c.mu.Lock()
	if gen != c.gen || line != c.hoveredLine || !c.toggles.Any() {
		c.mu.Unlock()
		return
	}
	p := &Popover{Line: line}
	if c.toggles.GitBlame {
		p.Segment = c.derived.Index.FindSegment(line)
	}
	if c.toggles.TraceBlame {
		p.Attribution = c.derived.Index.FindAttribution(line)
	}
	c.popover = p
	c.mu.Unlock()
	c.notify()
}

// Popover returns the visible popover, nil when none is shown.
func (c *Controller) Popover() *Popover {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.popover
}

func (c *Controller) clearPopoverLocked() {
	if c.cancelPopover != nil {
		c.cancelPopover()
		c.cancelPopover = nil
	}
	c.popover = nil
}

// StartPanelDrag captures the press origin for a side-panel resize.
func (c *Controller) StartPanelDrag(x int) {
	c.mu.Lock()
	c.drag = &dragState{startX: x, startWidth: c.panelWidth}
	c.mu.Unlock()
}

// DragPanel updates the panel width from pointer movement, clamped to
// the configured bounds. A no-op outside a drag.
func (c *Controller) DragPanel(x int) {
	c.mu.Lock()
	if c.drag == nil {
		c.mu.Unlock()
		return
	}
	width := c.drag.startWidth + (c.drag.startX - x)
	width = max(width, MinPanelWidth)
	width = min(width, MaxPanelWidth)
	c.panelWidth = width
	c.mu.Unlock()
	c.notify()
}

// EndPanelDrag releases the drag session.
func (c *Controller) EndPanelDrag() {
	c.mu.Lock()
	c.drag = nil
	c.mu.Unlock()
}

// SetPanelWidth sets the side-panel width directly, clamped to the same
// bounds as a drag. Used to restore a configured or persisted width.
func (c *Controller) SetPanelWidth(width int) {
	c.mu.Lock()
	width = max(width, MinPanelWidth)
	width = min(width, MaxPanelWidth)
	c.panelWidth = width
	c.mu.Unlock()
	c.notify()
}

// PanelWidth returns the current side-panel width.
func (c *Controller) PanelWidth() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.panelWidth
}

func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	content = strings.TrimSuffix(content, "\n")
	return strings.Split(content, "\n")
}
