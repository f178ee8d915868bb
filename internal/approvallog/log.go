// Package approvallog is the gateway's own append-only audit trail of admin
// decisions. It is separate from the backend-owned approvalHistory on a
// property, which the gateway never fabricates.
package approvallog

import (
	"context"
	"time"

	"estate-admin/internal/model"
)

type Entry struct {
	ID             string               `json:"id"`
	PropertyID     string               `json:"propertyId"`
	Action         string               `json:"action"`
	PreviousStatus model.PropertyStatus `json:"previousStatus"`
	NewStatus      model.PropertyStatus `json:"newStatus"`
	AdminID        string               `json:"adminId"`
	AdminEmail     string               `json:"adminEmail"`
	AdminName      string               `json:"adminName,omitempty"`
	Reason         string               `json:"reason,omitempty"`
	CreatedAt      time.Time            `json:"createdAt"`
}

type Filter struct {
	PropertyID string
	AdminEmail string
	Action     string
}

func (f Filter) matches(e Entry) bool {
	if f.PropertyID != "" && e.PropertyID != f.PropertyID {
		return false
	}
	if f.AdminEmail != "" && e.AdminEmail != f.AdminEmail {
		return false
	}
	if f.Action != "" && e.Action != f.Action {
		return false
	}
	return true
}

type Stats struct {
	TotalEntries    int `json:"totalEntries"`
	TotalApprovals  int `json:"totalApprovals"`
	TotalRejections int `json:"totalRejections"`
	ApprovalsToday  int `json:"approvalsToday"`
	RejectionsToday int `json:"rejectionsToday"`
}

// Store is an append-only log. Query returns entries most recent first.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	Query(ctx context.Context, filter Filter) ([]Entry, error)
	Stats(ctx context.Context) (Stats, error)
	Export(ctx context.Context) ([]byte, error)
}

func statsFrom(entries []Entry, now time.Time) Stats {
	var s Stats
	s.TotalEntries = len(entries)
	today := now.Format("2006-01-02")
	for _, e := range entries {
		sameDay := e.CreatedAt.Format("2006-01-02") == today
		switch e.Action {
		case "approve":
			s.TotalApprovals++
			if sameDay {
				s.ApprovalsToday++
			}
		case "reject":
			s.TotalRejections++
			if sameDay {
				s.RejectionsToday++
			}
		}
	}
	return s
}
