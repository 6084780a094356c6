package session

import (
	"fmt"
	"testing"

	"github.com/ragulg06/RAP-HeadLine-HQ/internal/config"
	"github.com/ragulg06/RAP-HeadLine-HQ/pkg/models"
)

func testConfig() config.SessionConfig {
	return config.SessionConfig{
		HistoryLimit: 10,
		DefaultStyle: "professional",
		DefaultRange: "24h",
	}
}

func TestCreateStartsIdleWithDefaults(t *testing.T) {
	m := NewManager(testConfig())
	sess := m.Create()
	if sess.ID == "" {
		t.Fatal("session has no ID")
	}
	if sess.State != models.StateIdle {
		t.Errorf("state = %s, want idle", sess.State)
	}
	if sess.Preferences.Style != "professional" || sess.Preferences.TimeRange != "24h" {
		t.Errorf("defaults not applied: %+v", sess.Preferences)
	}
}

func TestGetUnknownSession(t *testing.T) {
	m := NewManager(testConfig())
	if _, err := m.Get("nope"); err != ErrNotFound {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestGetOrCreateFallsBack(t *testing.T) {
	m := NewManager(testConfig())
	created := m.Create()
	if got := m.GetOrCreate(created.ID); got.ID != created.ID {
		t.Error("existing session not reused")
	}
	fresh := m.GetOrCreate("expired-id")
	if fresh.ID == created.ID || fresh.ID == "expired-id" {
		t.Error("unknown ID should yield a fresh session")
	}
}

func TestHistoryBoundEviction(t *testing.T) {
	m := NewManager(testConfig())
	sess := m.Create()

	for i := 0; i < 25; i++ {
		m.AppendTurn(sess, models.TurnUser, fmt.Sprintf("turn %d", i))
	}

	history := m.History(sess)
	if len(history) != 10 {
		t.Fatalf("history length = %d, want exactly the bound 10", len(history))
	}
	if history[0].Text != "turn 15" || history[9].Text != "turn 24" {
		t.Errorf("eviction dropped wrong end: first=%q last=%q", history[0].Text, history[9].Text)
	}
}

func TestResolveCompanyStateMachine(t *testing.T) {
	m := NewManager(testConfig())
	sess := m.Create()

	// No company named, none remembered: clarification needed.
	company, ok := m.ResolveCompany(sess, "")
	if ok || company != "" {
		t.Fatalf("expected unresolved, got %q", company)
	}
	if sess.State != models.StateAwaitingCompany {
		t.Errorf("state = %s, want awaiting_company", sess.State)
	}

	// Explicit mention resolves and sticks.
	company, ok = m.ResolveCompany(sess, "Tesla")
	if !ok || company != "Tesla" {
		t.Fatalf("expected Tesla, got %q", company)
	}
	if sess.State != models.StateReady {
		t.Errorf("state = %s, want ready", sess.State)
	}

	// Follow-up without a mention reuses the sticky company.
	company, ok = m.ResolveCompany(sess, "")
	if !ok || company != "Tesla" {
		t.Fatalf("follow-up should reuse Tesla, got %q", company)
	}

	// A new mention replaces it.
	company, _ = m.ResolveCompany(sess, "Apple")
	if company != "Apple" || sess.LastResolvedCompany != "Apple" {
		t.Errorf("new mention not sticky: %q / %q", company, sess.LastResolvedCompany)
	}
}

func TestPreferencesPersistAcrossTurns(t *testing.T) {
	m := NewManager(testConfig())
	sess := m.Create()

	got := m.UpdatePreferences(sess, models.Preferences{Style: "casual", ImpactThreshold: 7})
	if got.Style != "casual" || got.ImpactThreshold != 7 || got.TimeRange != "24h" {
		t.Fatalf("overlay wrong: %+v", got)
	}

	// An empty update changes nothing.
	got = m.UpdatePreferences(sess, models.Preferences{})
	if got.Style != "casual" || got.ImpactThreshold != 7 {
		t.Errorf("preferences did not persist: %+v", got)
	}

	// A partial update overrides only the named field.
	got = m.UpdatePreferences(sess, models.Preferences{TimeRange: "1w"})
	if got.TimeRange != "1w" || got.Style != "casual" {
		t.Errorf("partial override wrong: %+v", got)
	}
}

func TestDelete(t *testing.T) {
	m := NewManager(testConfig())
	sess := m.Create()
	m.Delete(sess.ID)
	if _, err := m.Get(sess.ID); err != ErrNotFound {
		t.Fatal("session survived delete")
	}
	m.Delete("never-existed")
	if m.Count() != 0 {
		t.Errorf("count = %d, want 0", m.Count())
	}
}
