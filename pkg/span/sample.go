package span

import (
	"encoding/binary"
	"fmt"
	"io"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
)

// SampleOptions configures [Sample].
type SampleOptions struct {
	Seed     uint64    // RNG seed; the same seed always yields the same spans
	Sessions int       // number of user sessions (default 5)
	Start    time.Time // timestamp of the first span (default 2025-01-01T00:00:00Z)
}

// Sample generates spans for a small multi-agent system: a user-facing
// orchestrator that plans with an LLM and routes through a Glue router to a
// researcher and a writer. The researcher hands off to the writer and the
// writer occasionally sends work back through a Glue span, forming a cycle;
// web_search retries itself, forming a self-loop.
//
// Span, trace and session ids are UUIDs drawn from the seeded generator, so
// output is reproducible.
func Sample(opts SampleOptions) []Record {
	if opts.Sessions <= 0 {
		opts.Sessions = 5
	}
	if opts.Start.IsZero() {
		opts.Start = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	}

	var seed [32]byte
	binary.LittleEndian.PutUint64(seed[:], opts.Seed)
	src := rand.NewChaCha8(seed)
	s := &sampler{rng: rand.New(src), ids: src, clock: opts.Start}

	for range opts.Sessions {
		session := s.newID()
		for range 1 + s.rng.IntN(3) {
			s.trace(session, s.newID())
		}
	}
	return s.out
}

type sampler struct {
	rng   *rand.Rand
	ids   io.Reader
	clock time.Time
	out   []Record
}

func (s *sampler) newID() string {
	id, err := uuid.NewRandomFromReader(s.ids)
	if err != nil {
		// ChaCha8 reads never fail; keep ids unique regardless.
		return fmt.Sprintf("span-%d", len(s.out))
	}
	return id.String()
}

func (s *sampler) trace(session, trace string) {
	root := s.emit("", trace, session, KindAgent, "orchestrator", 0.02)
	s.emit(root, trace, session, KindLLM, "planner", 0.01)
	router := s.emit(root, trace, session, KindGlue, "router", 0)

	if s.rng.Float64() < 0.8 {
		researcher := s.emit(router, trace, session, KindAgent, "researcher", 0.03)
		s.emit(researcher, trace, session, KindLLM, "gpt-4o", 0.02)
		search := s.emit(researcher, trace, session, KindTool, "web_search", 0.15)
		if s.rng.Float64() < 0.25 {
			s.emit(search, trace, session, KindTool, "web_search", 0.1)
		}
		if s.rng.Float64() < 0.5 {
			s.writer(researcher, trace, session)
		}
	}
	if s.rng.Float64() < 0.6 {
		s.writer(router, trace, session)
	}
}

func (s *sampler) writer(parent, trace, session string) {
	writer := s.emit(parent, trace, session, KindAgent, "writer", 0.02)
	s.emit(writer, trace, session, KindLLM, "claude", 0.02)
	s.emit(writer, trace, session, KindTool, "save_doc", 0.05)
	if s.rng.Float64() < 0.3 {
		revision := s.emit(writer, trace, session, KindGlue, "revision", 0)
		s.emit(revision, trace, session, KindAgent, "researcher", 0.03)
	}
}

func (s *sampler) emit(parent, trace, session string, kind Kind, label string, errRate float64) string {
	id := s.newID()
	duration := 20 + s.rng.Float64()*1980
	rec := Record{
		SpanID:      id,
		ParentID:    parent,
		TraceID:     trace,
		SessionID:   session,
		NodeType:    kind,
		NodeLabel:   label,
		Description: descriptions[label],
		StartTime:   s.clock,
		EndTime:     s.clock.Add(time.Duration(duration * float64(time.Millisecond))),
		DurationMs:  duration,
		Status:      StatusOK,
	}
	if kind == KindLLM {
		rec.InputTokens = 200 + s.rng.Int64N(4000)
		rec.OutputTokens = 50 + s.rng.Int64N(800)
	}
	if s.rng.Float64() < errRate {
		rec.Status = StatusError
		rec.ErrorMessage = fmt.Sprintf("%s failed: upstream timeout", label)
	}
	s.clock = s.clock.Add(time.Duration(10+s.rng.IntN(200)) * time.Millisecond)
	s.out = append(s.out, rec)
	return id
}

var descriptions = map[string]string{
	"orchestrator": "Entry agent that plans and delegates user requests",
	"researcher":   "Gathers sources and facts",
	"writer":       "Drafts and revises the final answer",
	"web_search":   "Search API wrapper",
	"save_doc":     "Persists drafts to document storage",
}
