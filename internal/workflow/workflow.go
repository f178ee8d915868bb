// Package workflow owns the property approval state machine: which admin
// actions are legal for a given listing status, and how a chosen action is
// executed against the backend.
package workflow

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"

	"estate-admin/internal/approvallog"
	"estate-admin/internal/model"
	"estate-admin/internal/upstream"
)

type Action string

const (
	ActionApprove    Action = "approve"
	ActionReject     Action = "reject"
	ActionPullDown   Action = "pullDown"
	ActionReactivate Action = "reactivate"
)

var (
	ErrTransitionNotAllowed = errors.New("workflow: action not allowed for current status")
	ErrReasonRequired       = errors.New("workflow: a reason is required for this action")
	ErrBusy                 = errors.New("workflow: another transition is in flight for this property")
	ErrNoProperty           = errors.New("workflow: no property loaded")
)

// LegalActions returns the actions an admin may take from status. Unknown
// statuses get no actions at all.
func LegalActions(status model.PropertyStatus) []Action {
	switch status {
	case model.StatusPending:
		return []Action{ActionApprove, ActionReject}
	case model.StatusActive:
		return []Action{ActionPullDown}
	case model.StatusInactive:
		return []Action{ActionReactivate}
	case model.StatusRejected:
		return []Action{ActionApprove}
	case model.StatusDraft:
		return []Action{ActionApprove, ActionReject}
	}
	return nil
}

func CanApply(status model.PropertyStatus, action Action) bool {
	for _, a := range LegalActions(status) {
		if a == action {
			return true
		}
	}
	return false
}

// TargetStatus is deterministic per action; the server does not negotiate it.
func TargetStatus(action Action) (model.PropertyStatus, bool) {
	switch action {
	case ActionApprove, ActionReactivate:
		return model.StatusActive, true
	case ActionReject:
		return model.StatusRejected, true
	case ActionPullDown:
		return model.StatusInactive, true
	}
	return "", false
}

// RequiresReason reports whether action refuses a blank reason.
func RequiresReason(action Action) bool {
	return action == ActionReject || action == ActionPullDown
}

func ParseAction(raw string) (Action, bool) {
	switch Action(raw) {
	case ActionApprove:
		return ActionApprove, true
	case ActionReject:
		return ActionReject, true
	case ActionPullDown:
		return ActionPullDown, true
	case ActionReactivate:
		return ActionReactivate, true
	}
	// Path segments use the kebab form.
	if raw == "pull-down" {
		return ActionPullDown, true
	}
	return "", false
}

// Backend is the subset of the upstream client the workflow needs.
type Backend interface {
	ApproveProperty(ctx context.Context, token, id, reason string) (*model.Property, error)
	RejectProperty(ctx context.Context, token, id, reason string) (*model.Property, error)
	PullDownProperty(ctx context.Context, token, id, reason string) (*model.Property, error)
	ReactivateProperty(ctx context.Context, token, id, reason string) (*model.Property, error)
}

// Actor identifies the admin performing a transition, together with the
// upstream access token to authenticate it.
type Actor struct {
	ID    string
	Email string
	Name  string
	Token string
}

type Service struct {
	backend  Backend
	logs     approvallog.Store
	notifier Notifier

	mu       sync.Mutex
	inflight map[string]bool
}

func NewService(backend Backend, logs approvallog.Store, notifier Notifier) *Service {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &Service{
		backend:  backend,
		logs:     logs,
		notifier: notifier,
		inflight: make(map[string]bool),
	}
}

// Busy reports whether a transition is currently in flight for propertyID.
func (s *Service) Busy(propertyID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inflight[propertyID]
}

func (s *Service) acquire(propertyID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inflight[propertyID] {
		return false
	}
	s.inflight[propertyID] = true
	return true
}

func (s *Service) release(propertyID string) {
	s.mu.Lock()
	delete(s.inflight, propertyID)
	s.mu.Unlock()
}

// Apply executes one transition. It issues no request when the action is
// illegal for the property's current status, when a required reason is blank,
// or when another transition for the same property has not settled. On
// success the returned property carries the deterministic target status; on
// failure the input property is untouched and only a notification is emitted.
func (s *Service) Apply(ctx context.Context, actor Actor, property *model.Property, action Action, reason string) (*model.Property, error) {
	if property == nil || property.ID == "" {
		return nil, ErrNoProperty
	}

	if RequiresReason(action) && strings.TrimSpace(reason) == "" {
		return nil, ErrReasonRequired
	}

	status := model.ParsePropertyStatus(string(property.Status))
	if !CanApply(status, action) {
		log.Printf("workflow: %s not legal for %s (property %s), request suppressed", action, status, property.ID)
		return nil, ErrTransitionNotAllowed
	}

	if !s.acquire(property.ID) {
		return nil, ErrBusy
	}
	defer s.release(property.ID)

	updated, err := s.execute(ctx, actor.Token, property.ID, action, reason)
	if err != nil {
		s.notifier.Error(property.ID, failureMessage(err))
		return nil, err
	}

	target, _ := TargetStatus(action)
	result := updated
	if result == nil {
		copied := *property
		result = &copied
	}
	// The target is deterministic from the client's point of view, whatever
	// the response payload says.
	result.Status = target

	s.appendLog(ctx, actor, property.ID, action, status, target, reason)
	s.notifier.Success(property.ID, successMessage(action))
	return result, nil
}

func (s *Service) execute(ctx context.Context, token, id string, action Action, reason string) (*model.Property, error) {
	switch action {
	case ActionApprove:
		return s.backend.ApproveProperty(ctx, token, id, reason)
	case ActionReject:
		return s.backend.RejectProperty(ctx, token, id, reason)
	case ActionPullDown:
		return s.backend.PullDownProperty(ctx, token, id, reason)
	case ActionReactivate:
		return s.backend.ReactivateProperty(ctx, token, id, reason)
	}
	return nil, ErrTransitionNotAllowed
}

func (s *Service) appendLog(ctx context.Context, actor Actor, propertyID string, action Action, previous, next model.PropertyStatus, reason string) {
	if s.logs == nil {
		return
	}
	entry := approvallog.Entry{
		PropertyID:     propertyID,
		Action:         string(action),
		PreviousStatus: previous,
		NewStatus:      next,
		AdminID:        actor.ID,
		AdminEmail:     actor.Email,
		AdminName:      actor.Name,
		Reason:         strings.TrimSpace(reason),
	}
	if err := s.logs.Append(ctx, entry); err != nil {
		log.Printf("workflow: approval log append failed for %s: %v", propertyID, err)
	}
}

func successMessage(action Action) string {
	switch action {
	case ActionApprove:
		return "Property approved"
	case ActionReject:
		return "Property rejected"
	case ActionPullDown:
		return "Property pulled down"
	case ActionReactivate:
		return "Property reactivated"
	}
	return "Property updated"
}

func failureMessage(err error) string {
	var apiErr *upstream.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	if errors.Is(err, upstream.ErrUnauthorized) {
		return "Session expired"
	}
	return "Unable to update property status"
}
