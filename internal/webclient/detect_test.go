package webclient

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestFindChrome_ExplicitMissing(t *testing.T) {
	_, err := FindChrome(filepath.Join(t.TempDir(), "no-such-chrome"))
	if !errors.Is(err, ErrChromeNotFound) {
		t.Fatalf("expected ErrChromeNotFound, got %v", err)
	}
}

func TestFindChrome_ExplicitExecutable(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("executable bit semantics differ on windows")
	}
	fake := filepath.Join(t.TempDir(), "chrome")
	if err := os.WriteFile(fake, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := FindChrome(fake)
	if err != nil {
		t.Fatalf("FindChrome: %v", err)
	}
	if got != fake {
		t.Errorf("FindChrome = %q, want %q", got, fake)
	}
}

func TestFindChrome_EnvOverride(t *testing.T) {
	t.Setenv(ChromeEnv, filepath.Join(t.TempDir(), "missing"))
	if _, err := FindChrome(""); !errors.Is(err, ErrChromeNotFound) {
		t.Fatalf("expected ErrChromeNotFound from bad %s, got %v", ChromeEnv, err)
	}
}

func TestAutomationError(t *testing.T) {
	err := automationErr("find element #x", ErrElementNotFound)
	if !IsAutomationError(err) {
		t.Error("expected automation error")
	}
	if !errors.Is(err, ErrElementNotFound) {
		t.Error("expected to unwrap to ErrElementNotFound")
	}
	if err.Error() != "find element #x: no such element" {
		t.Errorf("unexpected message %q", err.Error())
	}
	if IsAutomationError(errors.New("plain")) {
		t.Error("plain error classified as automation error")
	}
}
