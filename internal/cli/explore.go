package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/agentgraph/pkg/analysis"
	"github.com/matzehuels/agentgraph/pkg/layout"
	"github.com/matzehuels/agentgraph/pkg/pipeline"
	"github.com/matzehuels/agentgraph/pkg/topology"
	"github.com/matzehuels/agentgraph/pkg/transition"
)

// Explorer styles
var (
	exploreCursorStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	exploreErrorStyle  = lipgloss.NewStyle().Foreground(colorRed)
	exploreDimStyle    = lipgloss.NewStyle().Foreground(colorDim)
	exploreBackStyle   = lipgloss.NewStyle().Foreground(colorYellow)
)

// exploreCommand creates the explore command for interactive browsing.
func (c *CLI) exploreCommand() *cobra.Command {
	var window windowFlags
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "explore [payload.json|spans.json]",
		Short: "Interactively expand and collapse the topology",
		Long: `Browse the topology in the terminal.

Starts with only the roots visible. Toggling a node re-runs the layout for
the new expand set and animates the change: new children fade in from their
parent, collapsed subtrees fade out into it and everything else glides to
its new position.`,
		Example: `  agentgraph explore payload.json
  agentgraph explore spans.jsonl --filter 'status == "error"'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			base := c.pipelineOptions()
			base.Filter = opts.Filter
			base.Expanded = opts.Expanded
			if err := window.apply(&base, time.Now()); err != nil {
				return err
			}
			return c.runExplore(cmd.Context(), args[0], base)
		},
	}

	cmd.Flags().StringVar(&opts.Filter, "filter", "", "expr filter over spans")
	cmd.Flags().StringVar(&window.since, "since", "", "window start (RFC 3339 or duration ago)")
	cmd.Flags().StringVar(&window.until, "until", "", "window end (RFC 3339 or duration ago)")
	cmd.Flags().StringArrayVarP(&opts.Expanded, "expand", "e", nil, "start with a node expanded (repeatable)")

	_ = cmd.RegisterFlagCompletionFunc("expand", completeNodeIDs)

	return cmd
}

func (c *CLI) runExplore(ctx context.Context, input string, opts pipeline.Options) error {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}

	runner, err := c.newRunner()
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	p, _, err := loadPayload(ctx, runner, input, opts)
	if err != nil {
		return err
	}
	if p.IsEmpty() {
		printWarning("No nodes to explore")
		return nil
	}
	a := runner.Analyze(ctx, p)

	m, err := newExploreModel(ctx, runner, a, opts, c.Config.Transition.Duration.Duration, c.Config.Transition.FPS)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}

// =============================================================================
// ExploreModel - Animated expand/collapse browser
// =============================================================================

// tickMsg advances the animation started by transition number gen. Ticks
// from a superseded transition are dropped so only one chain runs.
type tickMsg struct {
	gen int
	at  time.Time
}

// transitionMsg carries a freshly computed transition.
type transitionMsg struct {
	expanded layout.IDSet
	result   *pipeline.TransitionResult
	err      error
}

// exploreRow is one line of the tree view.
type exploreRow struct {
	id     string
	indent int
}

// ExploreModel is the bubbletea model for the explore command. The model owns
// the expand set; every toggle replaces it with a new set and computes a new
// transition from the previous snapshot.
type ExploreModel struct {
	ctx    context.Context
	runner *pipeline.Runner
	opts   pipeline.Options

	analysis analysis.Analysis
	nodes    map[string]topology.Node
	back     map[string]int // back-edges leaving each node

	expanded layout.IDSet
	state    *transition.State
	gen      int // bumped per transition
	started  time.Time
	progress float64 // eased
	duration time.Duration
	interval time.Duration

	cursor  int
	focus   string
	Height  int
	Offset  int
	err     error
	pending bool
}

// newExploreModel lays out the initial expand set and returns a model at rest.
func newExploreModel(ctx context.Context, r *pipeline.Runner, a analysis.Analysis, opts pipeline.Options, duration time.Duration, fps int) (ExploreModel, error) {
	m := ExploreModel{
		ctx:      ctx,
		runner:   r,
		opts:     opts,
		analysis: a,
		nodes:    make(map[string]topology.Node, len(a.Payload.Nodes)),
		back:     make(map[string]int),
		duration: duration,
		interval: time.Second / time.Duration(max(fps, 1)),
		progress: 1,
		Height:   20,
	}
	for _, n := range a.Payload.Nodes {
		m.nodes[n.ID] = n
	}
	for _, e := range a.BackEdges {
		m.back[e.SourceID]++
	}

	start := opts.ExpandSet(a)
	res, err := r.Transition(ctx, a, start, start, opts)
	if err != nil {
		return ExploreModel{}, err
	}
	m.expanded = start
	m.state = res.State
	if len(a.RootIDs) > 0 {
		m.focus = a.RootIDs[0]
	}
	return m, nil
}

func (m ExploreModel) Init() tea.Cmd {
	return nil
}

func (m ExploreModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case transitionMsg:
		m.pending = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.expanded = msg.expanded
		m.state = msg.result.State
		m.gen++
		m.started = time.Time{}
		m.progress = 0
		return m, m.tick()

	case tickMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		now := msg.at
		if m.started.IsZero() {
			m.started = now
		}
		linear := transition.Progress(now.Sub(m.started), m.duration)
		m.progress = transition.EaseInOut(linear)
		if linear < 1 {
			return m, m.tick()
		}
		m.syncCursor()

	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-8, 5)
	}
	return m, nil
}

func (m ExploreModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	rows := m.rows()
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(rows)-1 {
			m.cursor++
		}
	case "enter", " ", "tab":
		if id, ok := m.current(rows); ok && layout.Expandable(m.analysis, id) {
			return m.request(m.expanded.Toggle(id))
		}
	case "right", "l":
		if id, ok := m.current(rows); ok && !m.expanded.Has(id) && layout.Expandable(m.analysis, id) {
			return m.request(m.expanded.With(id))
		}
	case "left", "h":
		if id, ok := m.current(rows); ok && m.expanded.Has(id) {
			return m.request(m.expanded.Without(id))
		}
	case "a":
		return m.request(layout.ExpandAll(m.analysis))
	case "c":
		return m.request(layout.NewIDSet())
	}
	if id, ok := m.current(rows); ok {
		m.focus = id
	}
	m.scroll()
	return m, nil
}

// request computes the transition to next off the event loop. Keys pressed
// while a transition is pending are ignored.
func (m ExploreModel) request(next layout.IDSet) (tea.Model, tea.Cmd) {
	if m.pending {
		return m, nil
	}
	if id, ok := m.current(m.rows()); ok {
		m.focus = id
	}
	m.pending = true
	ctx, r, a, opts, from := m.ctx, m.runner, m.analysis, m.opts, m.expanded
	return m, func() tea.Msg {
		res, err := r.Transition(ctx, a, from, next, opts)
		return transitionMsg{expanded: next, result: res, err: err}
	}
}

func (m ExploreModel) tick() tea.Cmd {
	gen := m.gen
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg{gen: gen, at: t} })
}

// Animating reports whether a transition is still in flight.
func (m ExploreModel) Animating() bool { return m.progress < 1 }

// Expanded returns the current expand set.
func (m ExploreModel) Expanded() layout.IDSet { return m.expanded }

func (m ExploreModel) current(rows []exploreRow) (string, bool) {
	if m.cursor < 0 || m.cursor >= len(rows) {
		return "", false
	}
	return rows[m.cursor].id, true
}

// syncCursor keeps the cursor on the focused node once rows settle.
func (m *ExploreModel) syncCursor() {
	rows := m.rows()
	for i, r := range rows {
		if r.id == m.focus {
			m.cursor = i
			m.scroll()
			return
		}
	}
	m.cursor = min(m.cursor, max(len(rows)-1, 0))
	m.scroll()
}

func (m *ExploreModel) scroll() {
	if m.cursor < m.Offset {
		m.Offset = m.cursor
	}
	if m.cursor >= m.Offset+m.Height {
		m.Offset = m.cursor - m.Height + 1
	}
}

// rows lists the nodes drawn at the current progress in tree order: each
// root followed by its anchored descendants.
func (m ExploreModel) rows() []exploreRow {
	visible := m.state.VisibleIDsAt(m.progress)
	var out []exploreRow
	seen := make(map[string]bool, len(visible))
	var walk func(id string, indent int)
	walk = func(id string, indent int) {
		if seen[id] || !visible.Has(id) {
			return
		}
		seen[id] = true
		out = append(out, exploreRow{id: id, indent: indent})
		for _, child := range m.analysis.Children(id) {
			walk(child, indent+1)
		}
	}
	for _, r := range m.analysis.RootIDs {
		walk(r, 0)
	}
	return out
}

func (m ExploreModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Explore Topology"))
	b.WriteString("\n")
	b.WriteString(exploreDimStyle.Render("↑/↓ navigate  ⏎ toggle  →/← expand/collapse  a all  c none  q quit"))
	b.WriteString("\n\n")

	rows := m.rows()
	end := min(m.Offset+m.Height, len(rows))
	for i := m.Offset; i < end; i++ {
		b.WriteString(m.renderRow(rows[i], i == m.cursor))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	status := fmt.Sprintf("  [%d/%d] %d expanded", min(m.cursor+1, len(rows)), len(rows), len(m.expanded))
	if m.Animating() {
		status += fmt.Sprintf(" · +%d -%d", len(m.state.SproutingIDs), len(m.state.CollapsingIDs))
	}
	b.WriteString(exploreDimStyle.Render(status))
	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(exploreErrorStyle.Render(iconError + " " + m.err.Error()))
	}
	return b.String()
}

func (m ExploreModel) renderRow(r exploreRow, selected bool) string {
	n := m.nodes[r.id]

	cursor := "  "
	if selected {
		cursor = "▸ "
	}
	marker := " "
	if layout.Expandable(m.analysis, r.id) {
		marker = "+"
		if m.expanded.Has(r.id) {
			marker = "-"
		}
	}

	pos := m.state.PositionAt(r.id, m.progress)
	label := fmt.Sprintf("%s%s %s %s", strings.Repeat("  ", r.indent), marker, n.Type, n.Label)
	line := fmt.Sprintf("%s%-44s %6d runs", cursor, label, n.ExecutionCount)

	style := kindStyle(n.Type).Foreground(shade(m.state.OpacityAt(r.id, m.progress), kindColor(n.Type)))
	if selected {
		style = exploreCursorStyle
	}
	out := style.Render(line)
	if n.ErrorCount > 0 {
		out += " " + exploreErrorStyle.Render(fmt.Sprintf("%d errors", n.ErrorCount))
	}
	if k := m.back[r.id]; k > 0 {
		out += " " + exploreBackStyle.Render(fmt.Sprintf("↺%d", k))
	}
	out += " " + exploreDimStyle.Render(fmt.Sprintf("(%.0f, %.0f)", pos.X, pos.Y))
	return out
}

// shade approximates opacity on a terminal: fully opaque nodes keep their
// color, fading ones step through the grayscale ramp from 236 (dark) to 255.
func shade(opacity float64, full lipgloss.Color) lipgloss.Color {
	if opacity >= 0.999 {
		return full
	}
	opacity = max(0, opacity)
	return lipgloss.Color(fmt.Sprint(236 + int(opacity*19)))
}
