package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestConfirmDestructiveForce(t *testing.T) {
	t.Setenv("WARDEN_CONFIRMED", "")
	cfg := &confirmConfig{
		w:     &bytes.Buffer{},
		isTTY: func() bool { return false },
		force: true,
	}
	if err := confirmDestructive(cfg); err == nil {
		t.Error("--force without WARDEN_CONFIRMED=1 accepted")
	}

	t.Setenv("WARDEN_CONFIRMED", "1")
	if err := confirmDestructive(cfg); err != nil {
		t.Errorf("--force with WARDEN_CONFIRMED=1 rejected: %v", err)
	}
}

func TestConfirmDestructiveNonInteractive(t *testing.T) {
	cfg := &confirmConfig{
		w:     &bytes.Buffer{},
		isTTY: func() bool { return false },
	}
	err := confirmDestructive(cfg)
	if err == nil || !strings.Contains(err.Error(), "interactive") {
		t.Errorf("non-TTY without --force: err = %v", err)
	}
}

func TestConfirmDestructivePrompt(t *testing.T) {
	tests := []struct {
		answer string
		ok     bool
	}{
		{"y\n", true},
		{"yes\n", true},
		{"Y\n", true},
		{"n\n", false},
		{"\n", false},
		{"nope\n", false},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		cfg := &confirmConfig{
			w:      &out,
			stdin:  strings.NewReader(tt.answer),
			isTTY:  func() bool { return true },
			prompt: "Proceed?",
		}
		err := confirmDestructive(cfg)
		if (err == nil) != tt.ok {
			t.Errorf("answer %q: err = %v, want ok=%v", strings.TrimSpace(tt.answer), err, tt.ok)
		}
		if !strings.Contains(out.String(), "Proceed? [y/N]") {
			t.Errorf("prompt not written: %q", out.String())
		}
	}
}
