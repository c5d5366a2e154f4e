package cli

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/agentgraph/pkg/pipeline"
	"github.com/matzehuels/agentgraph/pkg/span"
)

func newTestExploreModel(t *testing.T) ExploreModel {
	t.Helper()
	ctx := context.Background()
	r := pipeline.NewRunner(nil, nil, nil)

	opts := pipeline.Options{}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	p, err := r.Aggregate(ctx, span.Sample(span.SampleOptions{Seed: 3, Sessions: 4}), opts)
	if err != nil {
		t.Fatalf("Aggregate() error: %v", err)
	}
	a := r.Analyze(ctx, p)

	m, err := newExploreModel(ctx, r, a, opts, 400*time.Millisecond, 30)
	if err != nil {
		t.Fatalf("newExploreModel() error: %v", err)
	}
	return m
}

// press sends a key and runs any returned command that produces a transition.
func press(t *testing.T, m ExploreModel, key tea.KeyMsg) (ExploreModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(key)
	return next.(ExploreModel), cmd
}

// settle delivers msg and then ticks until the animation finishes.
func settle(t *testing.T, m ExploreModel, msg tea.Msg) ExploreModel {
	t.Helper()
	next, _ := m.Update(msg)
	m = next.(ExploreModel)
	if !m.Animating() {
		t.Fatal("model should animate after a transition")
	}
	start := time.Now()
	next, _ = m.Update(tickMsg{gen: m.gen, at: start})
	m = next.(ExploreModel)
	next, cmd := m.Update(tickMsg{gen: m.gen, at: start.Add(time.Second)})
	m = next.(ExploreModel)
	if m.Animating() || cmd != nil {
		t.Fatal("animation should finish once the duration elapses")
	}
	return m
}

func TestExploreModel_StartsWithRoots(t *testing.T) {
	m := newTestExploreModel(t)
	rows := m.rows()
	if len(rows) != len(m.analysis.RootIDs) {
		t.Fatalf("rows = %d, want %d roots", len(rows), len(m.analysis.RootIDs))
	}
	if rows[0].id != "Agent::orchestrator" {
		t.Errorf("first row = %q, want Agent::orchestrator", rows[0].id)
	}
	if m.Animating() {
		t.Error("model should start at rest")
	}
}

func TestExploreModel_ToggleExpandsAndCollapses(t *testing.T) {
	m := newTestExploreModel(t)
	before := len(m.rows())

	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("enter on an expandable root should request a transition")
	}
	m = settle(t, m, cmd())

	if !m.Expanded().Has("Agent::orchestrator") {
		t.Error("orchestrator should be expanded")
	}
	if after := len(m.rows()); after <= before {
		t.Errorf("rows after expand = %d, want more than %d", after, before)
	}
	if m.rows()[m.cursor].id != "Agent::orchestrator" {
		t.Error("cursor should stay on the toggled node")
	}

	m, cmd = press(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	if cmd == nil {
		t.Fatal("left on an expanded node should request a transition")
	}
	m = settle(t, m, cmd())
	if got := len(m.rows()); got != before {
		t.Errorf("rows after collapse = %d, want %d", got, before)
	}
}

func TestExploreModel_CollapsingRowsFadeOut(t *testing.T) {
	m := newTestExploreModel(t)
	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'a'}})
	m = settle(t, m, cmd())
	expanded := len(m.rows())

	m, cmd = press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'c'}})
	next, _ := m.Update(cmd())
	m = next.(ExploreModel)

	if got := len(m.rows()); got != expanded {
		t.Errorf("rows at start of collapse = %d, want %d", got, expanded)
	}
	if len(m.state.CollapsingIDs) == 0 {
		t.Error("collapse all should mark nodes as collapsing")
	}
	if want := fmt.Sprintf("-%d", len(m.state.CollapsingIDs)); !strings.Contains(m.View(), want) {
		t.Error("view should report collapsing nodes while animating")
	}
}

func TestExploreModel_IgnoresKeysWhilePending(t *testing.T) {
	m := newTestExploreModel(t)
	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected a transition command")
	}
	if _, again := press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'a'}}); again != nil {
		t.Error("a second transition should not start while one is pending")
	}
}

func TestExploreModel_SupersededTicksDropped(t *testing.T) {
	m := newTestExploreModel(t)
	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'a'}})
	next, _ := m.Update(cmd())
	m = next.(ExploreModel)
	first := m.gen

	start := time.Now()
	next, _ = m.Update(tickMsg{gen: first, at: start})
	m = next.(ExploreModel)

	// A second transition lands while the first is still animating.
	m, cmd = press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'c'}})
	if cmd == nil {
		t.Fatal("collapse all should request a transition")
	}
	next, _ = m.Update(cmd())
	m = next.(ExploreModel)
	if m.gen == first {
		t.Fatal("a new transition should start a new tick generation")
	}

	next, stale := m.Update(tickMsg{gen: first, at: start.Add(time.Second)})
	m = next.(ExploreModel)
	if stale != nil {
		t.Error("a tick from the superseded transition should not schedule another")
	}
	if !m.Animating() {
		t.Error("a stale tick should not advance the current animation")
	}

	next, live := m.Update(tickMsg{gen: m.gen, at: start})
	m = next.(ExploreModel)
	if live == nil || !m.Animating() {
		t.Error("the current transition should keep ticking")
	}
}

func TestExploreModel_Navigation(t *testing.T) {
	m := newTestExploreModel(t)
	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'a'}})
	m = settle(t, m, cmd())

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	if m.cursor != 1 {
		t.Errorf("cursor after down = %d, want 1", m.cursor)
	}
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyUp})
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyUp})
	if m.cursor != 0 {
		t.Errorf("cursor should not move above the first row, got %d", m.cursor)
	}

	_, cmd = press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("q should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should return tea.Quit")
	}
}

func TestExploreModel_View(t *testing.T) {
	m := newTestExploreModel(t)
	view := m.View()
	for _, want := range []string{"Explore Topology", "orchestrator", "runs"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q", want)
		}
	}
}

func TestShade(t *testing.T) {
	if got := shade(1, colorCyan); got != colorCyan {
		t.Errorf("shade(1) = %v, want full color", got)
	}
	if got := shade(0, colorCyan); got != "236" {
		t.Errorf("shade(0) = %v, want 236", got)
	}
	if got := shade(0.5, colorCyan); got == colorCyan {
		t.Error("half opacity should be dimmed")
	}
}
