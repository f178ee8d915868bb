package workflow

import (
	"context"
	"net/http"
	"reflect"
	"sync"
	"testing"

	"estate-admin/internal/approvallog"
	"estate-admin/internal/model"
	"estate-admin/internal/upstream"
)

type call struct {
	action Action
	id     string
	reason string
}

type fakeBackend struct {
	mu      sync.Mutex
	calls   []call
	err     error
	result  *model.Property
	started chan struct{} // receives when a call begins
	block   chan struct{} // when non-nil, calls wait on it
}

func (f *fakeBackend) record(action Action, id, reason string) (*model.Property, error) {
	f.mu.Lock()
	f.calls = append(f.calls, call{action: action, id: id, reason: reason})
	started := f.started
	block := f.block
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if block != nil {
		<-block
	}
	return f.result, f.err
}

func (f *fakeBackend) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeBackend) ApproveProperty(ctx context.Context, token, id, reason string) (*model.Property, error) {
	return f.record(ActionApprove, id, reason)
}

func (f *fakeBackend) RejectProperty(ctx context.Context, token, id, reason string) (*model.Property, error) {
	return f.record(ActionReject, id, reason)
}

func (f *fakeBackend) PullDownProperty(ctx context.Context, token, id, reason string) (*model.Property, error) {
	return f.record(ActionPullDown, id, reason)
}

func (f *fakeBackend) ReactivateProperty(ctx context.Context, token, id, reason string) (*model.Property, error) {
	return f.record(ActionReactivate, id, reason)
}

type recordingNotifier struct {
	mu        sync.Mutex
	successes []string
	errors    []string
}

func (n *recordingNotifier) Success(propertyID, message string) {
	n.mu.Lock()
	n.successes = append(n.successes, message)
	n.mu.Unlock()
}

func (n *recordingNotifier) Error(propertyID, message string) {
	n.mu.Lock()
	n.errors = append(n.errors, message)
	n.mu.Unlock()
}

func testActor() Actor {
	return Actor{ID: "a1", Email: "admin@example.com", Name: "Admin", Token: "tok"}
}

func TestLegalActions_Table(t *testing.T) {
	cases := []struct {
		status model.PropertyStatus
		want   []Action
	}{
		{model.StatusPending, []Action{ActionApprove, ActionReject}},
		{model.StatusActive, []Action{ActionPullDown}},
		{model.StatusInactive, []Action{ActionReactivate}},
		{model.StatusRejected, []Action{ActionApprove}},
		{model.StatusDraft, []Action{ActionApprove, ActionReject}},
		{model.PropertyStatus("SOLD"), nil},
		{model.PropertyStatus(""), nil},
	}
	for _, tc := range cases {
		got := LegalActions(tc.status)
		if !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("LegalActions(%q) = %v, want %v", tc.status, got, tc.want)
		}
	}
}

func TestTargetStatus(t *testing.T) {
	cases := map[Action]model.PropertyStatus{
		ActionApprove:    model.StatusActive,
		ActionReject:     model.StatusRejected,
		ActionPullDown:   model.StatusInactive,
		ActionReactivate: model.StatusActive,
	}
	for action, want := range cases {
		got, ok := TargetStatus(action)
		if !ok || got != want {
			t.Fatalf("TargetStatus(%s) = %q, want %q", action, got, want)
		}
	}
	if _, ok := TargetStatus(Action("demolish")); ok {
		t.Fatalf("unknown action must have no target")
	}
}

func TestParseAction(t *testing.T) {
	cases := map[string]Action{
		"approve":    ActionApprove,
		"reject":     ActionReject,
		"pullDown":   ActionPullDown,
		"pull-down":  ActionPullDown,
		"reactivate": ActionReactivate,
	}
	for raw, want := range cases {
		got, ok := ParseAction(raw)
		if !ok || got != want {
			t.Fatalf("ParseAction(%q) = %q, %v", raw, got, ok)
		}
	}
	if _, ok := ParseAction("demolish"); ok {
		t.Fatalf("unknown action must not parse")
	}
}

func TestApply_Success(t *testing.T) {
	backend := &fakeBackend{}
	notifier := &recordingNotifier{}
	logs := approvallog.NewMemoryStore()
	svc := NewService(backend, logs, notifier)

	p1 := &model.Property{ID: "p1", Status: model.StatusPending}
	updated, err := svc.Apply(context.Background(), testActor(), p1, ActionApprove, "looks good")
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if updated.Status != model.StatusActive {
		t.Fatalf("expected ACTIVE, got %q", updated.Status)
	}
	// Input property is never mutated in place.
	if p1.Status != model.StatusPending {
		t.Fatalf("input property mutated: %q", p1.Status)
	}
	if backend.callCount() != 1 {
		t.Fatalf("expected 1 backend call, got %d", backend.callCount())
	}
	if backend.calls[0].reason != "looks good" {
		t.Fatalf("reason not carried verbatim: %q", backend.calls[0].reason)
	}
	if len(notifier.successes) != 1 || len(notifier.errors) != 0 {
		t.Fatalf("unexpected notifications: %+v", notifier)
	}

	// Only pullDown is legal from the new status.
	next := LegalActions(updated.Status)
	if !reflect.DeepEqual(next, []Action{ActionPullDown}) {
		t.Fatalf("expected only pullDown after approval, got %v", next)
	}

	entries, err := logs.Query(context.Background(), approvallog.Filter{PropertyID: "p1"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one log entry, got %d", len(entries))
	}
	if entries[0].PreviousStatus != model.StatusPending || entries[0].NewStatus != model.StatusActive {
		t.Fatalf("unexpected log entry: %+v", entries[0])
	}
}

func TestApply_BackendFailureLeavesStatusUnchanged(t *testing.T) {
	backend := &fakeBackend{err: &upstream.APIError{StatusCode: http.StatusConflict, Message: "status changed by another admin"}}
	notifier := &recordingNotifier{}
	svc := NewService(backend, approvallog.NewMemoryStore(), notifier)

	p := &model.Property{ID: "p1", Status: model.StatusPending}
	_, err := svc.Apply(context.Background(), testActor(), p, ActionReject, "spam listing")
	if err == nil {
		t.Fatalf("expected error")
	}
	if p.Status != model.StatusPending {
		t.Fatalf("status mutated on failure: %q", p.Status)
	}
	if len(notifier.errors) != 1 || notifier.errors[0] != "status changed by another admin" {
		t.Fatalf("expected backend message surfaced, got %v", notifier.errors)
	}
	if len(notifier.successes) != 0 {
		t.Fatalf("no success notification expected")
	}
}

func TestApply_GenericFailureMessage(t *testing.T) {
	backend := &fakeBackend{err: context.DeadlineExceeded}
	notifier := &recordingNotifier{}
	svc := NewService(backend, nil, notifier)

	p := &model.Property{ID: "p1", Status: model.StatusPending}
	if _, err := svc.Apply(context.Background(), testActor(), p, ActionApprove, ""); err == nil {
		t.Fatalf("expected error")
	}
	if len(notifier.errors) != 1 || notifier.errors[0] != "Unable to update property status" {
		t.Fatalf("expected generic fallback, got %v", notifier.errors)
	}
}

func TestApply_ReasonRequired(t *testing.T) {
	backend := &fakeBackend{}
	svc := NewService(backend, nil, &recordingNotifier{})

	p2 := &model.Property{ID: "p2", Status: model.StatusActive}
	_, err := svc.Apply(context.Background(), testActor(), p2, ActionPullDown, "")
	if err != ErrReasonRequired {
		t.Fatalf("expected ErrReasonRequired, got %v", err)
	}
	_, err = svc.Apply(context.Background(), testActor(), p2, ActionPullDown, "   \t ")
	if err != ErrReasonRequired {
		t.Fatalf("expected ErrReasonRequired for whitespace, got %v", err)
	}
	if backend.callCount() != 0 {
		t.Fatalf("no request may be issued without a reason, got %d calls", backend.callCount())
	}
	if p2.Status != model.StatusActive {
		t.Fatalf("status mutated: %q", p2.Status)
	}

	// Optional-reason actions go through with a blank reason.
	p3 := &model.Property{ID: "p3", Status: model.StatusInactive}
	if _, err := svc.Apply(context.Background(), testActor(), p3, ActionReactivate, ""); err != nil {
		t.Fatalf("Apply reactivate: %v", err)
	}
	if backend.callCount() != 1 {
		t.Fatalf("expected 1 call, got %d", backend.callCount())
	}
}

func TestApply_IllegalTransitionIssuesNoRequest(t *testing.T) {
	backend := &fakeBackend{}
	svc := NewService(backend, nil, &recordingNotifier{})

	p := &model.Property{ID: "p1", Status: model.StatusActive}
	_, err := svc.Apply(context.Background(), testActor(), p, ActionApprove, "x")
	if err != ErrTransitionNotAllowed {
		t.Fatalf("expected ErrTransitionNotAllowed, got %v", err)
	}

	unknown := &model.Property{ID: "p2", Status: "SOLD"}
	for _, action := range []Action{ActionApprove, ActionReject, ActionPullDown, ActionReactivate} {
		if _, err := svc.Apply(context.Background(), testActor(), unknown, action, "x"); err != ErrTransitionNotAllowed {
			t.Fatalf("expected ErrTransitionNotAllowed for %s, got %v", action, err)
		}
	}
	if backend.callCount() != 0 {
		t.Fatalf("expected no backend calls, got %d", backend.callCount())
	}
}

func TestApply_BusyGate(t *testing.T) {
	backend := &fakeBackend{
		started: make(chan struct{}, 1),
		block:   make(chan struct{}),
	}
	svc := NewService(backend, nil, &recordingNotifier{})

	p := &model.Property{ID: "p1", Status: model.StatusPending}
	done := make(chan error, 1)
	go func() {
		_, err := svc.Apply(context.Background(), testActor(), p, ActionApprove, "")
		done <- err
	}()

	<-backend.started
	if !svc.Busy("p1") {
		t.Fatalf("expected p1 busy while request is in flight")
	}

	_, err := svc.Apply(context.Background(), testActor(), p, ActionReject, "dup")
	if err != ErrBusy {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	if backend.callCount() != 1 {
		t.Fatalf("second call must not reach the backend, got %d calls", backend.callCount())
	}

	close(backend.block)
	if err := <-done; err != nil {
		t.Fatalf("first Apply: %v", err)
	}
	if svc.Busy("p1") {
		t.Fatalf("expected busy flag released")
	}

	// A different property is never gated by p1's flight.
	other := &model.Property{ID: "p9", Status: model.StatusPending}
	backend.block = nil
	backend.started = nil
	if _, err := svc.Apply(context.Background(), testActor(), other, ActionApprove, ""); err != nil {
		t.Fatalf("Apply other: %v", err)
	}
}

func TestApply_UsesResponsePayload(t *testing.T) {
	backend := &fakeBackend{result: &model.Property{
		ID:     "p1",
		Title:  "Flat",
		Status: model.StatusPending, // stale status in payload is overridden
		ApprovalHistory: []model.ApprovalHistoryEntry{
			{ID: "h1", Action: "approve", PreviousStatus: "PENDING", NewStatus: "ACTIVE", CreatedAt: "2026-08-31T00:00:00Z"},
		},
	}}
	svc := NewService(backend, nil, &recordingNotifier{})

	p := &model.Property{ID: "p1", Status: model.StatusPending}
	updated, err := svc.Apply(context.Background(), testActor(), p, ActionApprove, "")
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if updated.Status != model.StatusActive {
		t.Fatalf("expected deterministic target status, got %q", updated.Status)
	}
	if len(updated.ApprovalHistory) != 1 {
		t.Fatalf("expected server history carried through, got %+v", updated.ApprovalHistory)
	}
}
