package buildinfo

import (
	"runtime/debug"
	"strings"
	"testing"
)

func restore(t *testing.T) {
	t.Helper()
	v, c, d := Version, Commit, Date
	t.Cleanup(func() { Version, Commit, Date = v, c, d })
}

func TestFillFromVCS(t *testing.T) {
	tests := []struct {
		name       string
		commit     string
		settings   []debug.BuildSetting
		wantCommit string
		wantDate   string
	}{
		{
			name:   "unset",
			commit: "none",
			settings: []debug.BuildSetting{
				{Key: "vcs.revision", Value: "0123456789abcdef0123"},
				{Key: "vcs.time", Value: "2026-01-02T03:04:05Z"},
			},
			wantCommit: "0123456789abcdef0123",
			wantDate:   "2026-01-02T03:04:05Z",
		},
		{
			name:   "dirty",
			commit: "none",
			settings: []debug.BuildSetting{
				{Key: "vcs.revision", Value: "abc"},
				{Key: "vcs.modified", Value: "true"},
			},
			wantCommit: "abc-dirty",
			wantDate:   "unknown",
		},
		{
			name:       "ldflags win",
			commit:     "release",
			settings:   []debug.BuildSetting{{Key: "vcs.revision", Value: "abc"}},
			wantCommit: "release",
			wantDate:   "unknown",
		},
		{
			name:       "no vcs",
			commit:     "none",
			wantCommit: "none",
			wantDate:   "unknown",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			restore(t)
			Commit, Date = tt.commit, "unknown"
			fillFromVCS(tt.settings)
			if Commit != tt.wantCommit || Date != tt.wantDate {
				t.Errorf("Commit, Date = %q, %q; want %q, %q", Commit, Date, tt.wantCommit, tt.wantDate)
			}
		})
	}
}

func TestShortCommit(t *testing.T) {
	restore(t)
	Commit = "0123456789abcdef"
	if got := ShortCommit(); got != "0123456789ab" {
		t.Errorf("ShortCommit() = %q", got)
	}
	Commit = "abc"
	if got := ShortCommit(); got != "abc" {
		t.Errorf("ShortCommit() = %q", got)
	}
}

func TestTemplate(t *testing.T) {
	restore(t)
	Version = "v1.2.3"
	got := Template()
	if !strings.HasPrefix(got, "{{.Name}} version v1.2.3\n") || !strings.Contains(got, "\ngo: ") {
		t.Errorf("Template() = %q", got)
	}
	if !strings.Contains(String(), "version: v1.2.3") {
		t.Errorf("String() = %q", String())
	}
}
