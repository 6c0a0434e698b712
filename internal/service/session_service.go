package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"qnotes/internal/dbclient"
	"qnotes/internal/domain"
	"qnotes/internal/logging"
)

// Messages reported when a query cannot be started.
const (
	MsgInvalidURI         = "Invalid database URI"
	MsgUnsupportedBackend = "Unsupported database type"
)

// JobRunner starts a command and calls done exactly once, on the session loop.
type JobRunner interface {
	Execute(command string, done func(domain.Completion))
}

// QueryCompletedEvent is the payload of EventQueryCompleted.
type QueryCompletedEvent struct {
	QueryID    int               `json:"queryId"`
	Completion domain.Completion `json:"completion"`
}

// ─────────────────────────────────────────────────────────────
// Session Service — connection, queries and their execution states
// ─────────────────────────────────────────────────────────────

// SessionService is the aggregate root of one open notebook.
//
// It is not safe for concurrent use: every method must run on the session
// Loop. The runner's completions are expected to be dispatched onto that
// same loop, which is the only point where work re-enters from another
// goroutine.
type SessionService struct {
	ctx      context.Context
	registry *dbclient.Registry
	runner   JobRunner
	emitter  EventEmitter
	log      *logrus.Entry
	now      func() time.Time

	connectionURI string
	backend       domain.BackendKind
	queries       map[int]string
	states        map[int]*domain.ExecutionState
	version       uint64
	inflight      runningJobsGuard
}

// NewSessionService creates an empty session. Call Open to populate it.
func NewSessionService(
	ctx context.Context,
	registry *dbclient.Registry,
	runner JobRunner,
	emitter EventEmitter,
	logger *logrus.Logger,
) *SessionService {
	if logger == nil {
		logger = logging.Discard()
	}
	if emitter == nil {
		emitter = NoopEmitter{}
	}
	return &SessionService{
		ctx:      ctx,
		registry: registry,
		runner:   runner,
		emitter:  emitter,
		log:      logger.WithField("component", "session"),
		now:      time.Now,
		queries:  make(map[int]string),
		states:   make(map[int]*domain.ExecutionState),
	}
}

// Open initializes the session from a loaded document, or from defaults
// when doc is nil: defaultURI plus one query holding its backend's sample.
func (s *SessionService) Open(doc *domain.Document, defaultURI string) domain.SessionSnapshot {
	if doc == nil {
		backend := s.registry.Detect(defaultURI)
		doc = &domain.Document{
			ConnectionURI: defaultURI,
			Backend:       backend,
			Queries:       map[int]string{1: s.registry.DefaultQuery(backend)},
		}
	}
	s.connectionURI = doc.ConnectionURI
	s.backend = s.registry.Detect(doc.ConnectionURI)
	s.queries = make(map[int]string, len(doc.Queries))
	for id, text := range doc.Queries {
		s.queries[id] = text
	}
	s.states = make(map[int]*domain.ExecutionState)
	return s.changed()
}

// ── Mutators ───────────────────────────────────────────────

// UpdateConnection replaces the connection URI and re-detects the backend.
// Existing queries and their execution states are left as they are.
func (s *SessionService) UpdateConnection(uri string) domain.SessionSnapshot {
	s.connectionURI = uri
	s.backend = s.registry.Detect(uri)
	s.log.WithField("backend", s.backend.String()).Debugf("connection set to %s", logging.Mask(uri))
	return s.changed()
}

// UpdateQueryText stores text for id without touching its execution state.
// Writing the same text again is a no-op and does not bump the version.
func (s *SessionService) UpdateQueryText(id int, text string) domain.SessionSnapshot {
	if cur, ok := s.queries[id]; ok && cur == text {
		return s.Snapshot()
	}
	s.queries[id] = text
	return s.changed()
}

// AddQuery appends a query holding the backend's sample text and returns its id.
func (s *SessionService) AddQuery() (int, domain.SessionSnapshot) {
	id := s.nextQueryID()
	s.queries[id] = s.registry.DefaultQuery(s.backend)
	return id, s.changed()
}

// Replace swaps in connection and queries from a document, for example after
// the notebook file changed on disk. Execution states of ids that still exist
// are kept; the rest are dropped.
func (s *SessionService) Replace(doc domain.Document) domain.SessionSnapshot {
	s.connectionURI = doc.ConnectionURI
	s.backend = s.registry.Detect(doc.ConnectionURI)
	s.queries = make(map[int]string, len(doc.Queries))
	for id, text := range doc.Queries {
		s.queries[id] = text
	}
	for id := range s.states {
		if _, ok := s.queries[id]; !ok {
			delete(s.states, id)
		}
	}
	return s.changed()
}

// ExecuteQuery runs text against the current connection and records the
// outcome under id. text is passed in rather than read from the stored query
// so that edited-but-unsaved text can be run.
//
// An empty URI, an unknown backend or a URI the adapter cannot parse fail
// immediately without starting a process. Otherwise the state moves to
// running and onComplete is called once the process finishes. If several
// runs of the same id overlap, the last one to complete wins.
func (s *SessionService) ExecuteQuery(id int, text string, onComplete func(domain.Completion)) {
	if onComplete == nil {
		onComplete = func(domain.Completion) {}
	}
	if s.connectionURI == "" {
		s.failNow(id, MsgInvalidURI, onComplete)
		return
	}
	src, ok := s.registry.Get(s.backend)
	if !s.backend.Known() || !ok {
		s.failNow(id, MsgUnsupportedBackend, onComplete)
		return
	}
	command, err := src.BuildCommand(s.connectionURI, text)
	if err != nil {
		s.failNow(id, err.Error(), onComplete)
		return
	}

	runID := uuid.New().String()
	s.state(id).Start(runID, s.now())
	s.inflight.Begin(id)
	s.log.WithFields(logrus.Fields{"query": id, "run": runID, "backend": s.backend.String()}).Debug("query started")
	s.changed()

	s.runner.Execute(command, func(c domain.Completion) {
		s.inflight.End(id)
		s.finish(id, runID, c)
		onComplete(c)
	})
}

func (s *SessionService) failNow(id int, msg string, onComplete func(domain.Completion)) {
	c := domain.Failed(msg)
	s.state(id).Finish(c, s.now())
	s.log.WithField("query", id).Debugf("query not started: %s", msg)
	s.changed()
	s.emitter.Emit(s.ctx, EventQueryCompleted, QueryCompletedEvent{QueryID: id, Completion: c})
	onComplete(c)
}

func (s *SessionService) finish(id int, runID string, c domain.Completion) {
	st := s.state(id)
	if st.RunID != runID {
		s.log.WithFields(logrus.Fields{"query": id, "run": runID}).Debug("completion from an older run overwrites the current state")
	}
	st.Finish(c, s.now())
	s.changed()
	s.emitter.Emit(s.ctx, EventQueryCompleted, QueryCompletedEvent{QueryID: id, Completion: c})
}

// ── Queries ────────────────────────────────────────────────

// Snapshot returns a copy of the current state.
func (s *SessionService) Snapshot() domain.SessionSnapshot {
	snap := domain.SessionSnapshot{
		Version:       s.version,
		ConnectionURI: s.connectionURI,
		Backend:       s.backend,
		Queries:       make(map[int]string, len(s.queries)),
		States:        make(map[int]domain.ExecutionState, len(s.states)),
	}
	for id, text := range s.queries {
		snap.Queries[id] = text
	}
	for id, st := range s.states {
		snap.States[id] = *st
	}
	return snap
}

// Document returns the persisted part of the session.
func (s *SessionService) Document() domain.Document {
	doc := domain.Document{
		ConnectionURI: s.connectionURI,
		Backend:       s.backend,
		Queries:       make(map[int]string, len(s.queries)),
	}
	for id, text := range s.queries {
		doc.Queries[id] = text
	}
	return doc
}

// Query returns the stored text for id.
func (s *SessionService) Query(id int) (string, bool) {
	text, ok := s.queries[id]
	return text, ok
}

// InFlight returns the number of unfinished runs for id.
func (s *SessionService) InFlight(id int) int {
	return s.inflight.Count(id)
}

// WaitIdle blocks until every started run has completed or ctx ends.
// The completions must still be able to reach the loop, so call it from
// outside the loop while the loop is running.
func (s *SessionService) WaitIdle(ctx context.Context) {
	s.inflight.WaitAll(ctx)
}

// ── Helpers ────────────────────────────────────────────────

// nextQueryID returns one past the highest id in use. For sessions built only
// through AddQuery this equals count+1, and it never collides with an id
// loaded from a file with gaps.
func (s *SessionService) nextQueryID() int {
	highest := 0
	for id := range s.queries {
		if id > highest {
			highest = id
		}
	}
	return highest + 1
}

func (s *SessionService) state(id int) *domain.ExecutionState {
	st, ok := s.states[id]
	if !ok {
		st = &domain.ExecutionState{Status: domain.QueryStatusIdle}
		s.states[id] = st
	}
	return st
}

// changed bumps the version and publishes the new snapshot.
func (s *SessionService) changed() domain.SessionSnapshot {
	s.version++
	snap := s.Snapshot()
	s.emitter.Emit(s.ctx, EventSessionChanged, snap)
	return snap
}
