package session

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestIssueAndParse(t *testing.T) {
	m := NewManager("secret")

	token, sid, err := m.Issue("ABCD1234")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := uuid.Parse(sid); err != nil {
		t.Errorf("session id %q is not a uuid: %v", sid, err)
	}

	got, err := m.Parse(token, "ABCD1234")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != sid {
		t.Errorf("Parse() = %q, want %q", got, sid)
	}
}

func TestIssue_FreshSessions(t *testing.T) {
	m := NewManager("secret")
	_, a, _ := m.Issue("ABCD1234")
	_, b, _ := m.Issue("ABCD1234")
	if a == b {
		t.Error("expected distinct session ids")
	}
}

func TestParse_Rejects(t *testing.T) {
	m := NewManager("secret")
	token, _, err := m.Issue("ABCD1234")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := m.Parse(token, "ZZZZ9999"); !errors.Is(err, ErrWrongSurvey) {
		t.Errorf("other survey: expected ErrWrongSurvey, got %v", err)
	}
	if _, err := NewManager("other").Parse(token, "ABCD1234"); err == nil {
		t.Error("other secret: expected an error")
	}
	if _, err := m.Parse("not-a-token", "ABCD1234"); err == nil {
		t.Error("garbage: expected an error")
	}

	later := NewManager("secret")
	later.now = func() time.Time { return time.Now().Add(TTL + time.Minute) }
	if _, err := later.Parse(token, "ABCD1234"); err == nil {
		t.Error("expired: expected an error")
	}
}
