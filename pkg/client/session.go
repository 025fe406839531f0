package client

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/paperfix/paperfix/backend/go-services/internal/document"
)

// ErrNotAuthenticated is reported when an anonymous session tries to save.
var ErrNotAuthenticated = errors.New("sign in to save documents")

// API is the part of Client a Session drives.
type API interface {
	GenerateStream(ctx context.Context, templateID string, answers map[string]string) (*Stream, error)
	Edit(ctx context.Context, content, instruction string) (string, error)
	CreateDraft(ctx context.Context, in DocumentInput) (*document.Document, error)
	CreateDocument(ctx context.Context, in DocumentInput) (*document.Document, error)
	SaveProgress(ctx context.Context, id, content string, title *string) error
	Finalize(ctx context.Context, id string, title *string) (*document.Document, error)
}

type State int

const (
	StateForm State = iota
	StateGenerating
	StatePreview
	StateEditing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateForm:
		return "form"
	case StateGenerating:
		return "generating"
	case StatePreview:
		return "preview"
	case StateEditing:
		return "editing"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Msg is input to a Session.
type Msg interface{ msg() }

type (
	SubmitAnswers struct{ Answers map[string]string }
	// EditContent replaces the content with the user's own typing.
	EditContent struct{ Content string }
	// RequestEdit asks the AI to apply an instruction to the current content.
	RequestEdit struct{ Instruction string }
	SetTitle    struct{ Title string }
	// Save finalizes the document.
	Save  struct{}
	Close struct{}
)

func (SubmitAnswers) msg() {}
func (EditContent) msg()   {}
func (RequestEdit) msg()   {}
func (SetTitle) msg()      {}
func (Save) msg()          {}
func (Close) msg()         {}

// internal messages, posted by background work back to the loop
type (
	generated struct {
		content string
		err     error
	}
	edited struct {
		content string
		err     error
	}
	stored struct {
		op  string
		doc *document.Document
		err error
	}
	autosaveDue struct{}
)

func (generated) msg()   {}
func (edited) msg()      {}
func (stored) msg()      {}
func (autosaveDue) msg() {}

// Event is output from a Session.
type Event interface{ event() }

type (
	StateChanged struct{ From, To State }
	// Delta is a fragment of a document being generated.
	Delta struct{ Text string }
	// ContentChanged carries the full current content.
	ContentChanged struct{ Content string }
	// Saved reports a successful create, auto-save or finalize. Document is
	// nil for auto-saves.
	Saved struct {
		Op       string
		Document *document.Document
	}
	// Failed reports an operation that did not go through. Nothing is retried.
	Failed struct {
		Op  string
		Err error
	}
)

func (StateChanged) event()   {}
func (Delta) event()          {}
func (ContentChanged) event() {}
func (Saved) event()          {}
func (Failed) event()         {}

// Session is the client side of one document: questionnaire, generation,
// then preview with edits and auto-save. All state is owned by the goroutine
// running Run; other goroutines talk to it through Send and Events.
type Session struct {
	api        API
	templateID string
	authed     bool
	now        func() time.Time
	delay      time.Duration
	timeout    time.Duration

	msgs   chan Msg
	events chan Event
	done   chan struct{}

	state    State
	answers  map[string]string
	content  string
	title    string
	docID    string
	autosave *Debouncer

	// draftPending is set while the post-generation draft insert is in flight;
	// saveQueued holds a Save that arrived during that window.
	draftPending bool
	saveQueued   bool
}

type SessionOption func(*Session)

// WithAutosaveDelay overrides DefaultAutosaveDelay.
func WithAutosaveDelay(d time.Duration) SessionOption { return func(s *Session) { s.delay = d } }

// WithClock replaces time.Now for the default draft title.
func WithClock(now func() time.Time) SessionOption { return func(s *Session) { s.now = now } }

// NewSession starts in StateForm. authenticated controls whether drafts are
// persisted; anonymous sessions only generate and edit.
func NewSession(api API, templateID string, authenticated bool, opts ...SessionOption) *Session {
	s := &Session{
		api:        api,
		templateID: templateID,
		authed:     authenticated,
		now:        time.Now,
		delay:      DefaultAutosaveDelay,
		timeout:    30 * time.Second,
		msgs:       make(chan Msg, 16),
		events:     make(chan Event, 64),
		done:       make(chan struct{}),
	}
	for _, o := range opts {
		o(s)
	}
	s.autosave = NewDebouncer(s.delay, func() { s.post(autosaveDue{}) })
	return s
}

// DefaultTitle is "<template id with dashes as spaces> - <YYYY-MM-DD>".
func DefaultTitle(templateID string, now time.Time) string {
	return strings.ReplaceAll(templateID, "-", " ") + " - " + now.Format("2006-01-02")
}

// Events must be drained while Run is active. The channel is never closed;
// use Done to learn that Run has returned.
func (s *Session) Events() <-chan Event { return s.events }

func (s *Session) Done() <-chan struct{} { return s.done }

// Send queues a message. It returns false once the session has stopped.
func (s *Session) Send(m Msg) bool {
	select {
	case s.msgs <- m:
		return true
	case <-s.done:
		return false
	}
}

func (s *Session) post(m Msg) { s.Send(m) }

func (s *Session) emit(e Event) {
	select {
	case s.events <- e:
	case <-s.done:
	}
}

func (s *Session) setState(to State) {
	if s.state == to {
		return
	}
	from := s.state
	s.state = to
	s.emit(StateChanged{From: from, To: to})
}

// Run processes messages until Close is received or ctx ends. A pending
// auto-save is flushed on Close.
func (s *Session) Run(ctx context.Context) error {
	defer close(s.done)
	for {
		select {
		case <-ctx.Done():
			s.autosave.Stop()
			return ctx.Err()
		case m := <-s.msgs:
			if _, ok := m.(Close); ok {
				s.closeSession(ctx)
				return nil
			}
			s.handle(ctx, m)
		}
	}
}

func (s *Session) handle(ctx context.Context, m Msg) {
	switch m := m.(type) {
	case SubmitAnswers:
		if s.state != StateForm {
			return
		}
		s.answers = m.Answers
		s.setState(StateGenerating)
		go s.generate(ctx, m.Answers)

	case generated:
		if m.err != nil {
			s.emit(Failed{Op: "generate", Err: m.err})
			s.setState(StateForm)
			return
		}
		s.content = m.content
		s.emit(ContentChanged{Content: s.content})
		s.setState(StatePreview)
		if s.authed {
			if s.title == "" {
				s.title = DefaultTitle(s.templateID, s.now())
			}
			s.draftPending = true
			in := DocumentInput{Title: s.title, Content: s.content, TemplateID: s.templateID, Answers: s.answers}
			go s.store(ctx, "draft", func(c context.Context) (*document.Document, error) { return s.api.CreateDraft(c, in) })
		}

	case EditContent:
		if s.state != StatePreview {
			return
		}
		s.content = m.Content
		s.emit(ContentChanged{Content: s.content})
		s.scheduleAutosave()

	case SetTitle:
		if s.state != StatePreview && s.state != StateEditing {
			return
		}
		s.title = m.Title
		s.scheduleAutosave()

	case RequestEdit:
		if s.state != StatePreview || strings.TrimSpace(m.Instruction) == "" {
			return
		}
		s.setState(StateEditing)
		content := s.content
		go func() {
			c, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()
			text, err := s.api.Edit(c, content, m.Instruction)
			s.post(edited{content: text, err: err})
		}()

	case edited:
		s.setState(StatePreview)
		if m.err != nil {
			s.emit(Failed{Op: "edit", Err: m.err})
			return
		}
		s.content = m.content
		s.emit(ContentChanged{Content: s.content})
		s.scheduleAutosave()

	case autosaveDue:
		if s.docID == "" {
			if s.draftPending {
				// the draft is still being created; try again after it lands
				s.autosave.Trigger()
			}
			return
		}
		id, content, title := s.docID, s.content, s.title
		go s.store(ctx, "autosave", func(c context.Context) (*document.Document, error) {
			return nil, s.api.SaveProgress(c, id, content, &title)
		})

	case Save:
		s.save(ctx)

	case stored:
		if m.op == "draft" {
			s.draftStored(ctx, m)
			return
		}
		if m.err != nil {
			s.emit(Failed{Op: m.op, Err: m.err})
			return
		}
		if m.doc != nil {
			s.docID = m.doc.ID
		}
		s.emit(Saved{Op: m.op, Document: m.doc})
	}
}

// draftStored settles the post-generation draft and runs a Save that was
// queued behind it. A document id already set by create or finalize wins.
func (s *Session) draftStored(ctx context.Context, m stored) {
	s.draftPending = false
	queued := s.saveQueued
	s.saveQueued = false
	if m.err != nil {
		s.emit(Failed{Op: m.op, Err: m.err})
	} else {
		if s.docID == "" && m.doc != nil {
			s.docID = m.doc.ID
		}
		s.emit(Saved{Op: m.op, Document: m.doc})
	}
	if queued {
		s.save(ctx)
	}
}

func (s *Session) scheduleAutosave() {
	if s.authed {
		s.autosave.Trigger()
	}
}

func (s *Session) save(ctx context.Context) {
	if s.state != StatePreview {
		return
	}
	if !s.authed {
		s.emit(Failed{Op: "finalize", Err: ErrNotAuthenticated})
		return
	}
	s.autosave.Stop()
	if s.draftPending {
		s.saveQueued = true
		return
	}
	title := s.title
	if title == "" {
		title = DefaultTitle(s.templateID, s.now())
	}
	if s.docID == "" {
		in := DocumentInput{Title: title, Content: s.content, TemplateID: s.templateID, Answers: s.answers}
		go s.store(ctx, "create", func(c context.Context) (*document.Document, error) { return s.api.CreateDocument(c, in) })
		return
	}
	id, content := s.docID, s.content
	go s.store(ctx, "finalize", func(c context.Context) (*document.Document, error) {
		if err := s.api.SaveProgress(c, id, content, &title); err != nil {
			return nil, err
		}
		return s.api.Finalize(c, id, &title)
	})
}

func (s *Session) closeSession(ctx context.Context) {
	if s.autosave.Stop() && s.docID != "" {
		c, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		title := s.title
		if err := s.api.SaveProgress(c, s.docID, s.content, &title); err != nil {
			s.emit(Failed{Op: "autosave", Err: err})
		} else {
			s.emit(Saved{Op: "autosave"})
		}
	}
	s.setState(StateClosed)
}

func (s *Session) generate(ctx context.Context, answers map[string]string) {
	stream, err := s.api.GenerateStream(ctx, s.templateID, answers)
	if err != nil {
		s.post(generated{err: err})
		return
	}
	defer stream.Close()
	var b strings.Builder
	for {
		d, err := stream.Next()
		if err == io.EOF {
			s.post(generated{content: b.String()})
			return
		}
		if err != nil {
			s.post(generated{err: err})
			return
		}
		b.WriteString(d)
		s.emit(Delta{Text: d})
	}
}

func (s *Session) store(ctx context.Context, op string, fn func(context.Context) (*document.Document, error)) {
	c, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	d, err := fn(c)
	s.post(stored{op: op, doc: d, err: err})
}
