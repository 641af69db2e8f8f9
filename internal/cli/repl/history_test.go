package repl

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRecordable(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"wallet list", true},
		{"did new seed=000000000000000000000000Trustee1", false},
		{"wallet open w1 key=secret", false},
		{"wallet export export_path=/tmp/x export_key", true},
		{"wallet export export_path=/tmp/x export_key=k", false},
		{"wallet open w1 key rekey=new", false},
		{"   ", false},
	}
	for _, tt := range tests {
		if got := Recordable(tt.line); got != tt.want {
			t.Errorf("Recordable(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}

func TestHistory_AddAndAt(t *testing.T) {
	h := NewHistory(filepath.Join(t.TempDir(), "history"), 3)

	h.Add("first")
	h.Add("second")
	h.Add("second")
	h.Add("wallet open w key=k")
	h.Add("third")
	h.Add("fourth")

	if h.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", h.Len())
	}
	tests := []struct {
		index int
		want  string
	}{
		{0, "fourth"},
		{1, "third"},
		{2, "second"},
		{3, ""},
		{-1, ""},
	}
	for _, tt := range tests {
		if got := h.At(tt.index); got != tt.want {
			t.Errorf("At(%d) = %q, want %q", tt.index, got, tt.want)
		}
	}
}

func TestHistory_SaveLoad(t *testing.T) {
	file := filepath.Join(t.TempDir(), "home", ".indy_cli_history")

	h := NewHistory(file, 0)
	for _, line := range []string{"wallet list", "pool list", "did list"} {
		h.Add(line)
	}
	if err := h.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	data, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if got := string(data); got != "wallet list\npool list\ndid list\n" {
		t.Errorf("history file = %q", got)
	}

	loaded := NewHistory(file, 2)
	if err := loaded.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Len() != 2 || loaded.At(0) != "did list" || loaded.At(1) != "pool list" {
		t.Errorf("loaded history = %d entries, At(0) = %q", loaded.Len(), loaded.At(0))
	}
}

func TestHistory_LoadMissing(t *testing.T) {
	h := NewHistory(filepath.Join(t.TempDir(), "missing", "history"), 0)
	if err := h.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if h.Len() != 0 {
		t.Errorf("Len() = %d, want 0", h.Len())
	}
}

func TestHistory_LoadSkipsSecrets(t *testing.T) {
	file := filepath.Join(t.TempDir(), "history")
	content := strings.Join([]string{"wallet list", "did new seed=abc", "pool list"}, "\n")
	if err := os.WriteFile(file, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	h := NewHistory(file, 0)
	if err := h.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if h.Len() != 2 {
		t.Errorf("Len() = %d, want 2", h.Len())
	}
}
