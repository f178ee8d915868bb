package model

import "strings"

type PropertyStatus string

const (
	StatusDraft    PropertyStatus = "DRAFT"
	StatusPending  PropertyStatus = "PENDING"
	StatusActive   PropertyStatus = "ACTIVE"
	StatusRejected PropertyStatus = "REJECTED"
	StatusInactive PropertyStatus = "INACTIVE"
)

type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleOwner Role = "OWNER"
	RoleAgent Role = "AGENT"
	RoleUser  Role = "USER"
)

type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Name      string `json:"name,omitempty"`
	Role      Role   `json:"role"`
	Status    string `json:"status"`
	Phone     string `json:"phone,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
	LastLogin string `json:"lastLogin,omitempty"`
}

type ApprovalHistoryEntry struct {
	ID             string `json:"id"`
	Action         string `json:"action"`
	Reason         string `json:"reason,omitempty"`
	PreviousStatus string `json:"previousStatus"`
	NewStatus      string `json:"newStatus"`
	AdminID        string `json:"adminId,omitempty"`
	AdminEmail     string `json:"adminEmail,omitempty"`
	CreatedAt      string `json:"createdAt"`
}

type Property struct {
	ID              string                 `json:"id"`
	Title           string                 `json:"title"`
	Description     string                 `json:"description,omitempty"`
	Price           float64                `json:"price"`
	Currency        string                 `json:"currency,omitempty"`
	Location        string                 `json:"location,omitempty"`
	City            string                 `json:"city,omitempty"`
	Type            string                 `json:"type,omitempty"`
	ListingType     string                 `json:"listingType,omitempty"`
	Status          PropertyStatus         `json:"status"`
	Images          []string               `json:"images,omitempty"`
	Bedrooms        int                    `json:"bedrooms,omitempty"`
	Bathrooms       int                    `json:"bathrooms,omitempty"`
	Owner           *User                  `json:"owner,omitempty"`
	RejectionReason string                 `json:"rejectionReason,omitempty"`
	ApprovalHistory []ApprovalHistoryEntry `json:"approvalHistory,omitempty"`
	CreatedAt       string                 `json:"createdAt,omitempty"`
	UpdatedAt       string                 `json:"updatedAt,omitempty"`
}

// ParsePropertyStatus normalizes a raw status value. Unknown values are
// returned uppercased as-is so the workflow can treat them as having no
// legal actions rather than guessing.
func ParsePropertyStatus(raw string) PropertyStatus {
	s := PropertyStatus(strings.ToUpper(strings.TrimSpace(raw)))
	switch s {
	case StatusDraft, StatusPending, StatusActive, StatusRejected, StatusInactive:
		return s
	}
	return s
}

// KnownStatus reports whether s is one of the closed enum values.
func KnownStatus(s PropertyStatus) bool {
	switch s {
	case StatusDraft, StatusPending, StatusActive, StatusRejected, StatusInactive:
		return true
	}
	return false
}

func ParseRole(raw string) Role {
	r := Role(strings.ToUpper(strings.TrimSpace(raw)))
	switch r {
	case RoleAdmin, RoleOwner, RoleAgent, RoleUser:
		return r
	}
	return RoleUser
}

// SanitizeProperty fills defaults for fields upstream payloads routinely leave
// null or mistyped, so consumers never have to null-guard at the use site.
func SanitizeProperty(p *Property) *Property {
	if p == nil {
		return nil
	}
	out := *p
	if out.Title == "" {
		out.Title = "Untitled Property"
	}
	if out.Currency == "" {
		out.Currency = "NGN"
	}
	if out.Type == "" {
		out.Type = "unknown"
	}
	if out.Images == nil {
		out.Images = []string{}
	}
	out.Status = ParsePropertyStatus(string(out.Status))
	return &out
}

// DisplayName renders a user's name with the same fallback chain the
// dashboard uses: first+last, either alone, free-form name, then email.
func (u *User) DisplayName() string {
	if u == nil {
		return "Unknown User"
	}
	first := strings.TrimSpace(u.FirstName)
	last := strings.TrimSpace(u.LastName)
	switch {
	case first != "" && last != "":
		return first + " " + last
	case first != "":
		return first
	case last != "":
		return last
	case strings.TrimSpace(u.Name) != "":
		return strings.TrimSpace(u.Name)
	case strings.TrimSpace(u.Email) != "":
		return strings.TrimSpace(u.Email)
	}
	return "Unknown User"
}
