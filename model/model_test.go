package model

import "testing"

func TestParseAuthProvider(t *testing.T) {
	cases := map[string]AuthProvider{
		"azure_ad": ProviderAzureAD,
		"passkey":  ProviderPasskey,
		"PASSWORD": ProviderPassword,
	}
	for in, want := range cases {
		got, err := ParseAuthProvider(in)
		if err != nil || got != want {
			t.Errorf("ParseAuthProvider(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseAuthProvider("github"); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestParseRequestStatus(t *testing.T) {
	cases := map[string]RequestStatus{
		"open":        StatusOpen,
		"in_progress": StatusInProgress,
		"Resolved":    StatusResolved,
	}
	for in, want := range cases {
		got, err := ParseRequestStatus(in)
		if err != nil || got != want {
			t.Errorf("ParseRequestStatus(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseRequestStatus("closed"); err == nil {
		t.Error("expected error for unknown status")
	}
}

func TestParseRequestCategory(t *testing.T) {
	cases := map[string]RequestCategory{
		"IT":    CategoryIT,
		"ops":   CategoryOps,
		"admin": CategoryAdmin,
		"HR":    CategoryHR,
	}
	for in, want := range cases {
		got, err := ParseRequestCategory(in)
		if err != nil || got != want {
			t.Errorf("ParseRequestCategory(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseRequestCategory("finance"); err == nil {
		t.Error("expected error for unknown category")
	}
}

func TestParseRequestPriority(t *testing.T) {
	cases := map[string]RequestPriority{
		"low":    PriorityLow,
		"Medium": PriorityMedium,
		"HIGH":   PriorityHigh,
	}
	for in, want := range cases {
		got, err := ParseRequestPriority(in)
		if err != nil || got != want {
			t.Errorf("ParseRequestPriority(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseRequestPriority("urgent"); err == nil {
		t.Error("expected error for unknown priority")
	}
}

func TestParseAuditAction(t *testing.T) {
	cases := map[string]AuditAction{
		"created":        ActionCreated,
		"updated":        ActionUpdated,
		"deleted":        ActionDeleted,
		"status_changed": ActionStatusChanged,
	}
	for in, want := range cases {
		got, err := ParseAuditAction(in)
		if err != nil || got != want {
			t.Errorf("ParseAuditAction(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseAuditAction("viewed"); err == nil {
		t.Error("expected error for unknown action")
	}
}
