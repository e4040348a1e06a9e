package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// confirmConfig carries the seams of the destructive-command guard so
// tests can drive it without a real terminal.
type confirmConfig struct {
	w      io.Writer
	stdin  io.Reader
	isTTY  func() bool
	force  bool
	prompt string
}

// isStdinTTY reports whether stdin is an interactive terminal.
func isStdinTTY() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// confirmDestructive gates force-release and release-all. Either the
// caller answers an interactive y/N prompt, or passes --force with
// WARDEN_CONFIRMED=1 set (for scripted use by the primary coordinator).
func confirmDestructive(cfg *confirmConfig) error {
	if cfg.force {
		if os.Getenv("WARDEN_CONFIRMED") != "1" {
			return errors.New("--force requires WARDEN_CONFIRMED=1")
		}
		return nil
	}
	if !cfg.isTTY() {
		return errors.New("requires an interactive terminal (TTY), or --force with WARDEN_CONFIRMED=1")
	}

	fmt.Fprintf(cfg.w, "%s [y/N]: ", cfg.prompt)
	reader := bufio.NewReader(cfg.stdin)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return fmt.Errorf("read confirmation: %w", err)
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	if answer != "y" && answer != "yes" {
		return errors.New("aborted")
	}
	return nil
}
