package cli_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"stash/internal/app"
	"stash/internal/cli"
	"stash/internal/commands"
	"stash/internal/config"
	"stash/internal/exitcode"
	"stash/internal/logging"
	"stash/internal/service"
	"stash/internal/session"
	"stash/internal/testutil"
)

// testFactory creates a service factory that returns the given FakeService.
func testFactory(svc *testutil.FakeService) app.ServiceFactory {
	return func(context.Context, *config.Config, *session.Manager, logging.Logger) (service.Service, error) {
		return svc, nil
	}
}

func run(t *testing.T, d *cli.Dispatcher, args ...string) (stdout, stderr string, code int) {
	t.Helper()
	var outBuf, errBuf bytes.Buffer
	code = d.Run(context.Background(), args, &outBuf, &errBuf)
	return outBuf.String(), errBuf.String(), code
}

func TestDispatcher_UnknownCommand(t *testing.T) {
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, testFactory(testutil.NewFakeService()))

	_, stderr, code := run(t, dispatcher, "unknowncmd")
	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: unknown command: unknowncmd\n"
	if stderr != expected {
		t.Errorf("expected %q, got %q", expected, stderr)
	}
}

func TestDispatcher_UnknownCommandSuggestion(t *testing.T) {
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, testFactory(testutil.NewFakeService()))

	_, stderr, code := run(t, dispatcher, "whoam")
	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: unknown command: whoam\ndid you mean: stash whoami\n"
	if stderr != expected {
		t.Errorf("expected %q, got %q", expected, stderr)
	}
}

func TestDispatcher_FlagBeforeCommand(t *testing.T) {
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, testFactory(testutil.NewFakeService()))

	_, stderr, code := run(t, dispatcher, "--quiet")
	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: unknown command: --quiet\n"
	if stderr != expected {
		t.Errorf("expected %q, got %q", expected, stderr)
	}
}

func TestDispatcher_HelpCommand(t *testing.T) {
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, testFactory(testutil.NewFakeService()))

	stdout, stderr, code := run(t, dispatcher, "help")
	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if !strings.Contains(stdout, "Usage:") {
		t.Error("expected help output to contain 'Usage:'")
	}
}

func TestDispatcher_VersionCommand(t *testing.T) {
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, testFactory(testutil.NewFakeService()))

	stdout, stderr, code := run(t, dispatcher, "version")
	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if stdout != "stash 0.1.0\n" {
		t.Errorf("expected 'stash 0.1.0\\n', got %q", stdout)
	}
}

func TestDispatcher_UnknownFlag(t *testing.T) {
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, testFactory(testutil.NewFakeService()))

	_, stderr, code := run(t, dispatcher, "help", "--unknown")
	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: unknown flag: --unknown\n"
	if stderr != expected {
		t.Errorf("expected %q, got %q", expected, stderr)
	}
}

func TestDispatcher_FlagNeedsArgument(t *testing.T) {
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, testFactory(testutil.NewFakeService()))

	_, stderr, code := run(t, dispatcher, "notes", "--config", t.TempDir(), "--search")
	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: flag needs an argument: --search\n"
	if stderr != expected {
		t.Errorf("expected %q, got %q", expected, stderr)
	}
}

func TestDispatcher_NeedsAuth(t *testing.T) {
	svc := testutil.NewFakeService()
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, testFactory(svc))

	_, stderr, code := run(t, dispatcher, "notes", "--config", t.TempDir())
	if code != exitcode.AuthError {
		t.Errorf("expected exit code %d, got %d", exitcode.AuthError, code)
	}
	expected := "error: not logged in (run: stash login)\n"
	if stderr != expected {
		t.Errorf("expected %q, got %q", expected, stderr)
	}
	if n := len(svc.Calls()); n != 0 {
		t.Errorf("expected no service calls, got %d", n)
	}
}

func TestDispatcher_SessionPersistsAcrossRuns(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddUser("ada", "lovelace")
	svc.AddTask(service.Task{Text: "write tests"})
	dir := t.TempDir()
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, testFactory(svc))

	stdout, stderr, code := run(t, dispatcher, "login", "--config", dir, "-u", "ada", "-p", "lovelace")
	if code != exitcode.Success || stdout != "ok\n" {
		t.Fatalf("login: code %d, stdout %q, stderr %q", code, stdout, stderr)
	}

	stdout, _, code = run(t, dispatcher, "whoami", "--config", dir)
	if code != exitcode.Success || stdout != "ada\n" {
		t.Errorf("whoami: code %d, stdout %q", code, stdout)
	}

	stdout, _, code = run(t, dispatcher, "tasks", "--config", dir)
	if code != exitcode.Success || !strings.Contains(stdout, "write tests") {
		t.Errorf("tasks: code %d, stdout %q", code, stdout)
	}
	// Flags may follow positional arguments.
	stdout, _, code = run(t, dispatcher, "done", "1", "--config", dir, "--quiet")
	if code != exitcode.Success || stdout != "" {
		t.Errorf("done --quiet: code %d, stdout %q", code, stdout)
	}

	stdout, _, code = run(t, dispatcher, "logout", "--config", dir)
	if code != exitcode.Success || stdout != "ok\n" {
		t.Errorf("logout: code %d, stdout %q", code, stdout)
	}
	_, _, code = run(t, dispatcher, "whoami", "--config", dir)
	if code != exitcode.AuthError {
		t.Errorf("expected auth error after logout, got %d", code)
	}
}

func TestDispatcher_ConfirmReadsInput(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddUser("ada", "lovelace")
	svc.AddNote(service.Note{Title: "doomed"})
	dir := t.TempDir()
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, testFactory(svc))

	if _, stderr, code := run(t, dispatcher, "login", "--config", dir, "-u", "ada", "-p", "lovelace"); code != exitcode.Success {
		t.Fatalf("login failed: %q", stderr)
	}

	dispatcher.WithInput(strings.NewReader("yes\n"))
	stdout, stderr, code := run(t, dispatcher, "rmnote", "--config", dir, "1")
	if code != exitcode.Success || stdout != "ok\n" {
		t.Errorf("rmnote: code %d, stdout %q, stderr %q", code, stdout, stderr)
	}
	if stderr != "Delete this note? [y/N] " {
		t.Errorf("unexpected prompt %q", stderr)
	}
}

func TestDispatcher_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("api:\n  base_url: ftp://nope\n"), 0600); err != nil {
		t.Fatal(err)
	}
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, testFactory(testutil.NewFakeService()))

	_, stderr, code := run(t, dispatcher, "theme", "--config", dir)
	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: api.base_url must be an http(s) URL: ftp://nope\n"
	if stderr != expected {
		t.Errorf("expected %q, got %q", expected, stderr)
	}
}

func TestDispatcher_DebugLogsToStderr(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddUser("ada", "lovelace")
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, testFactory(svc))

	_, stderr, code := run(t, dispatcher, "login", "--config", t.TempDir(), "--debug", "-u", "ada", "-p", "lovelace")
	if code != exitcode.Success {
		t.Fatalf("login failed: %q", stderr)
	}
	if !strings.Contains(stderr, "logging in as ada") {
		t.Errorf("expected debug log on stderr, got %q", stderr)
	}
}
