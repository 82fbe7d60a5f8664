package domain

import "testing"

func TestHasLabel(t *testing.T) {
	e := &Email{Labels: []string{"INBOX", "UNREAD"}}

	if !e.HasLabel("INBOX") {
		t.Error("HasLabel(INBOX) = false, want true")
	}
	if e.HasLabel("SPAM") {
		t.Error("HasLabel(SPAM) = true, want false")
	}
	if e.HasLabel("inbox") {
		t.Error("label matching is case-sensitive")
	}

	var empty Email
	if empty.HasLabel("INBOX") {
		t.Error("HasLabel on empty labels = true, want false")
	}
}
