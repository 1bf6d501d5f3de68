package fuzzy

import "testing"

func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"deploy", "deploy", 0},
		{"deploy", "depoy", 1},
		{"kitten", "sitting", 3},
		{"Deploy", "deploy", 0},
	}
	for _, tt := range tests {
		if got := LevenshteinDistance(tt.a, tt.b); got != tt.want {
			t.Errorf("LevenshteinDistance(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestMatch(t *testing.T) {
	if !Match("deploy", "the deploy finished", 2) {
		t.Error("substring should match")
	}
	if !Match("depoly", "the deploy finished", 2) {
		t.Error("typo within threshold should match")
	}
	if Match("invoice", "the deploy finished", 2) {
		t.Error("unrelated query should not match")
	}
}

func TestMatchWorkItem(t *testing.T) {
	subject := "Q3 budget review"
	sender := "finance@example.com"
	content := "Please approve the updated numbers before Friday."

	if !MatchWorkItem("budget", subject, sender, content) {
		t.Error("subject term should match")
	}
	if !MatchWorkItem("finance", subject, sender, content) {
		t.Error("sender term should match")
	}
	if !MatchWorkItem("approve", subject, sender, content) {
		t.Error("content term should match")
	}
	if !MatchWorkItem("budgit", subject, sender, content) {
		t.Error("typo should still match the subject")
	}
	if MatchWorkItem("kubernetes", subject, sender, content) {
		t.Error("unrelated query should not match")
	}
}
