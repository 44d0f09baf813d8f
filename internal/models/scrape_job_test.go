package models

import "testing"

func TestCanTransition(t *testing.T) {
	cases := []struct {
		name string
		from JobStatus
		to   JobStatus
		want bool
	}{
		{"pending to processing", JobPending, JobProcessing, true},
		{"pending to failed", JobPending, JobFailed, true},
		{"pending skips to completed on fast callback", JobPending, JobCompleted, true},
		{"processing to completed", JobProcessing, JobCompleted, true},
		{"processing to failed", JobProcessing, JobFailed, true},
		{"processing back to pending", JobProcessing, JobPending, false},
		{"completed is terminal", JobCompleted, JobPending, false},
		{"completed cannot fail", JobCompleted, JobFailed, false},
		{"failed is terminal", JobFailed, JobProcessing, false},
		{"failed cannot complete", JobFailed, JobCompleted, false},
		{"unknown status has no transitions", JobStatus("bogus"), JobPending, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanTransition(tc.from, tc.to); got != tc.want {
				t.Errorf("CanTransition(%q, %q) = %v, want %v", tc.from, tc.to, got, tc.want)
			}
		})
	}
}

func TestTerminal(t *testing.T) {
	if JobPending.Terminal() {
		t.Error("pending must not be terminal")
	}
	if JobProcessing.Terminal() {
		t.Error("processing must not be terminal")
	}
	if !JobCompleted.Terminal() {
		t.Error("completed must be terminal")
	}
	if !JobFailed.Terminal() {
		t.Error("failed must be terminal")
	}
}

func TestGithubMetricsFromResult(t *testing.T) {
	// JSON numbers decode as float64; unknown keys must be dropped.
	result := map[string]interface{}{
		"stars":          float64(42),
		"forks":          float64(7),
		"watchers":       float64(12),
		"open_issues":    float64(3),
		"last_commit_at": "2026-08-30T10:00:00Z",
		"injected_field": "should be ignored",
		"description":    "also ignored",
	}

	m := GithubMetricsFromResult(result)
	if m.Stars != 42 || m.Forks != 7 || m.Watchers != 12 || m.OpenIssues != 3 {
		t.Errorf("unexpected metrics: %+v", m)
	}
	if m.LastCommitAt != "2026-08-30T10:00:00Z" {
		t.Errorf("last_commit_at = %q", m.LastCommitAt)
	}
}

func TestGithubMetricsFromResultWrongTypes(t *testing.T) {
	result := map[string]interface{}{
		"stars":          "not a number",
		"last_commit_at": 12345,
	}
	m := GithubMetricsFromResult(result)
	if m.Stars != 0 {
		t.Errorf("stars = %d, want 0 for non-numeric input", m.Stars)
	}
	if m.LastCommitAt != "" {
		t.Errorf("last_commit_at = %q, want empty for non-string input", m.LastCommitAt)
	}
}
