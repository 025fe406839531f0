package client

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/paperfix/paperfix/backend/go-services/internal/document"
	"github.com/stretchr/testify/require"
)

type progressCall struct {
	id, content, title string
}

type fakeAPI struct {
	mu        sync.Mutex
	sse       string
	genErr    error
	editText  string
	editErr   error
	drafts    []DocumentInput
	created   []DocumentInput
	progress  []progressCall
	finalized []string

	// draftGate, when set, holds CreateDraft until it is closed
	draftGate chan struct{}
}

func (f *fakeAPI) GenerateStream(ctx context.Context, templateID string, answers map[string]string) (*Stream, error) {
	if f.genErr != nil {
		return nil, f.genErr
	}
	return NewStream(io.NopCloser(strings.NewReader(f.sse))), nil
}

func (f *fakeAPI) Edit(ctx context.Context, content, instruction string) (string, error) {
	return f.editText, f.editErr
}

func (f *fakeAPI) CreateDraft(ctx context.Context, in DocumentInput) (*document.Document, error) {
	if f.draftGate != nil {
		select {
		case <-f.draftGate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.drafts = append(f.drafts, in)
	return &document.Document{ID: "draft-1", Title: in.Title, Content: in.Content, IsDraft: true}, nil
}

func (f *fakeAPI) CreateDocument(ctx context.Context, in DocumentInput) (*document.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, in)
	return &document.Document{ID: "doc-1", Title: in.Title, Content: in.Content}, nil
}

func (f *fakeAPI) SaveProgress(ctx context.Context, id, content string, title *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := ""
	if title != nil {
		t = *title
	}
	f.progress = append(f.progress, progressCall{id, content, t})
	return nil
}

func (f *fakeAPI) Finalize(ctx context.Context, id string, title *string) (*document.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finalized = append(f.finalized, id)
	return &document.Document{ID: id, Title: *title}, nil
}

func (f *fakeAPI) progressCalls() []progressCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]progressCall(nil), f.progress...)
}

const twoDeltas = "data: {\"text\":\"Hello \"}\n\ndata: {\"text\":\"world\"}\n\ndata: [DONE]\n\n"

var fixedNow = func() time.Time { return time.Date(2025, 3, 9, 15, 0, 0, 0, time.UTC) }

func start(t *testing.T, s *Session) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = s.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-s.Done()
	})
}

// until collects events until match returns true.
func until(t *testing.T, s *Session, match func(Event) bool) []Event {
	t.Helper()
	var got []Event
	timeout := time.After(2 * time.Second)
	for {
		select {
		case e := <-s.Events():
			got = append(got, e)
			if match(e) {
				return got
			}
		case <-timeout:
			t.Fatalf("timed out; events so far: %#v", got)
		}
	}
}

func isState(to State) func(Event) bool {
	return func(e Event) bool {
		sc, ok := e.(StateChanged)
		return ok && sc.To == to
	}
}

func isSaved(op string) func(Event) bool {
	return func(e Event) bool {
		sv, ok := e.(Saved)
		return ok && sv.Op == op
	}
}

func isFailed(op string) func(Event) bool {
	return func(e Event) bool {
		f, ok := e.(Failed)
		return ok && f.Op == op
	}
}

func TestDefaultTitle(t *testing.T) {
	require.Equal(t, "terms of service - 2025-03-09", DefaultTitle("terms-of-service", fixedNow()))
}

func TestSession_GenerateCreatesDraftAndAutosaves(t *testing.T) {
	api := &fakeAPI{sse: twoDeltas}
	s := NewSession(api, "privacy-policy", true, WithAutosaveDelay(20*time.Millisecond), WithClock(fixedNow))
	start(t, s)

	require.True(t, s.Send(SubmitAnswers{Answers: map[string]string{"companyName": "Acme"}}))
	events := until(t, s, isSaved("draft"))

	require.Equal(t, StateChanged{From: StateForm, To: StateGenerating}, events[0])
	require.Contains(t, events, Delta{Text: "Hello "})
	require.Contains(t, events, Delta{Text: "world"})
	require.Contains(t, events, ContentChanged{Content: "Hello world"})
	require.Contains(t, events, StateChanged{From: StateGenerating, To: StatePreview})

	require.Len(t, api.drafts, 1)
	require.Equal(t, "privacy policy - 2025-03-09", api.drafts[0].Title)
	require.Equal(t, "Acme", api.drafts[0].Answers["companyName"])

	s.Send(EditContent{Content: "a"})
	s.Send(EditContent{Content: "ab"})
	s.Send(EditContent{Content: "abc"})
	until(t, s, isSaved("autosave"))

	calls := api.progressCalls()
	require.Len(t, calls, 1)
	require.Equal(t, progressCall{"draft-1", "abc", "privacy policy - 2025-03-09"}, calls[0])

	s.Send(SetTitle{Title: "My Policy"})
	s.Send(Save{})
	events = until(t, s, isSaved("finalize"))
	saved := events[len(events)-1].(Saved)
	require.Equal(t, "My Policy", saved.Document.Title)
	require.Equal(t, []string{"draft-1"}, api.finalized)

	s.Send(Close{})
	until(t, s, isState(StateClosed))
}

func TestSession_Anonymous(t *testing.T) {
	api := &fakeAPI{sse: twoDeltas}
	s := NewSession(api, "nda", false, WithAutosaveDelay(5*time.Millisecond))
	start(t, s)

	s.Send(SubmitAnswers{})
	until(t, s, isState(StatePreview))
	s.Send(EditContent{Content: "changed"})
	s.Send(Save{})
	events := until(t, s, isFailed("finalize"))
	require.ErrorIs(t, events[len(events)-1].(Failed).Err, ErrNotAuthenticated)

	time.Sleep(20 * time.Millisecond)
	require.Empty(t, api.drafts)
	require.Empty(t, api.progressCalls())
}

func TestSession_GenerationFailureReturnsToForm(t *testing.T) {
	api := &fakeAPI{genErr: errors.New("quota exceeded")}
	s := NewSession(api, "nda", true)
	start(t, s)

	s.Send(SubmitAnswers{})
	events := until(t, s, isState(StateForm))
	require.Contains(t, events, Failed{Op: "generate", Err: api.genErr})
}

func TestSession_TruncatedStreamIsAFailure(t *testing.T) {
	api := &fakeAPI{sse: "data: {\"text\":\"Hel\"}\n\n"}
	s := NewSession(api, "nda", true)
	start(t, s)

	s.Send(SubmitAnswers{})
	events := until(t, s, isFailed("generate"))
	require.ErrorIs(t, events[len(events)-1].(Failed).Err, ErrIncompleteStream)
	until(t, s, isState(StateForm))
	require.Empty(t, api.drafts)
}

func TestSession_RequestEdit(t *testing.T) {
	api := &fakeAPI{sse: twoDeltas, editErr: ErrEmptyEdit}
	s := NewSession(api, "nda", false)
	start(t, s)

	s.Send(SubmitAnswers{})
	until(t, s, isState(StatePreview))

	s.Send(RequestEdit{Instruction: "make it formal"})
	events := until(t, s, isFailed("edit"))
	require.Contains(t, events, StateChanged{From: StatePreview, To: StateEditing})
	require.ErrorIs(t, events[len(events)-1].(Failed).Err, ErrEmptyEdit)
}

func TestSession_RequestEditReplacesContent(t *testing.T) {
	api := &fakeAPI{sse: twoDeltas, editText: "Formal greeting"}
	s := NewSession(api, "nda", false)
	start(t, s)

	s.Send(SubmitAnswers{})
	until(t, s, isState(StatePreview))
	s.Send(RequestEdit{Instruction: "make it formal"})
	events := until(t, s, func(e Event) bool { return e == ContentChanged{Content: "Formal greeting"} })
	require.Contains(t, events, StateChanged{From: StateEditing, To: StatePreview})
}

func TestSession_CloseFlushesPendingAutosave(t *testing.T) {
	api := &fakeAPI{sse: twoDeltas}
	s := NewSession(api, "nda", true, WithAutosaveDelay(time.Hour), WithClock(fixedNow))
	start(t, s)

	s.Send(SubmitAnswers{})
	until(t, s, isSaved("draft"))
	s.Send(EditContent{Content: "last words"})
	s.Send(Close{})
	until(t, s, isState(StateClosed))

	calls := api.progressCalls()
	require.Len(t, calls, 1)
	require.Equal(t, "last words", calls[0].content)
}

func TestSession_SaveWhileDraftInFlightFinalizesTheDraft(t *testing.T) {
	api := &fakeAPI{sse: twoDeltas, draftGate: make(chan struct{})}
	s := NewSession(api, "nda", true, WithAutosaveDelay(10*time.Millisecond), WithClock(fixedNow))
	start(t, s)

	s.Send(SubmitAnswers{})
	until(t, s, isState(StatePreview))
	s.Send(Save{})
	close(api.draftGate)

	events := until(t, s, isSaved("finalize"))
	require.True(t, containsSaved(events, "draft"))
	api.mu.Lock()
	require.Empty(t, api.created)
	require.Equal(t, []string{"draft-1"}, api.finalized)
	api.mu.Unlock()

	s.Send(EditContent{Content: "after save"})
	until(t, s, isSaved("autosave"))
	calls := api.progressCalls()
	require.Equal(t, progressCall{"draft-1", "after save", "nda - 2025-03-09"}, calls[len(calls)-1])
}

func TestSession_SaveAfterFailedDraftCreatesDocument(t *testing.T) {
	api := &failingDraftAPI{fakeAPI: &fakeAPI{sse: twoDeltas}, gate: make(chan struct{})}
	s := NewSession(api, "nda", true, WithClock(fixedNow))
	start(t, s)

	s.Send(SubmitAnswers{})
	until(t, s, isState(StatePreview))
	s.Send(Save{})
	close(api.gate)

	events := until(t, s, isSaved("create"))
	require.Contains(t, events, Failed{Op: "draft", Err: errDraftRejected})
	require.Equal(t, "doc-1", events[len(events)-1].(Saved).Document.ID)
	require.Empty(t, api.finalized)
}

var errDraftRejected = errors.New("draft rejected")

type failingDraftAPI struct {
	*fakeAPI
	gate chan struct{}
}

func (f *failingDraftAPI) CreateDraft(ctx context.Context, in DocumentInput) (*document.Document, error) {
	<-f.gate
	return nil, errDraftRejected
}

func containsSaved(events []Event, op string) bool {
	for _, e := range events {
		if isSaved(op)(e) {
			return true
		}
	}
	return false
}
