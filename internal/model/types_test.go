package model

import "testing"

func TestParsePropertyStatus(t *testing.T) {
	if got := ParsePropertyStatus(" pending "); got != StatusPending {
		t.Fatalf("expected PENDING, got %q", got)
	}
	if got := ParsePropertyStatus("active"); got != StatusActive {
		t.Fatalf("expected ACTIVE, got %q", got)
	}
	if got := ParsePropertyStatus("SOLD"); KnownStatus(got) {
		t.Fatalf("SOLD should not be a known status")
	}
}

func TestSanitizeProperty(t *testing.T) {
	if SanitizeProperty(nil) != nil {
		t.Fatalf("expected nil for nil input")
	}
	p := SanitizeProperty(&Property{ID: "p1", Status: "pending"})
	if p.Title != "Untitled Property" {
		t.Fatalf("expected default title, got %q", p.Title)
	}
	if p.Currency != "NGN" {
		t.Fatalf("expected default currency, got %q", p.Currency)
	}
	if p.Images == nil {
		t.Fatalf("expected non-nil images slice")
	}
	if p.Status != StatusPending {
		t.Fatalf("expected normalized status, got %q", p.Status)
	}
}

func TestDisplayName(t *testing.T) {
	u := &User{FirstName: "Ada", LastName: "Obi"}
	if got := u.DisplayName(); got != "Ada Obi" {
		t.Fatalf("expected full name, got %q", got)
	}
	u = &User{Email: "admin@example.com"}
	if got := u.DisplayName(); got != "admin@example.com" {
		t.Fatalf("expected email fallback, got %q", got)
	}
	var nilUser *User
	if got := nilUser.DisplayName(); got != "Unknown User" {
		t.Fatalf("expected fallback, got %q", got)
	}
}
