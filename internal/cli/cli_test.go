package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	errs "github.com/iamwavecut/tarabot/internal/errors"
)

type cliFixture struct {
	dir string
}

func newCLIFixture(t *testing.T) *cliFixture {
	t.Helper()
	return &cliFixture{dir: t.TempDir()}
}

func (f *cliFixture) run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	app := New()
	var out bytes.Buffer
	app.SetOutput(&out)
	app.SetArgs(append([]string{"--db-dir", f.dir, "--db-name", "test.db"}, args...))
	err := app.ExecuteContext(context.Background())
	_ = app.close()
	return out.String(), err
}

func (f *cliFixture) mustRun(t *testing.T, args ...string) string {
	t.Helper()

	out, err := f.run(t, args...)
	if err != nil {
		t.Fatalf("%v: %v", args, err)
	}
	return out
}

func TestGroupsCommands(t *testing.T) {
	t.Parallel()

	f := newCLIFixture(t)
	if out := f.mustRun(t, "groups", "add", "100", "Main", "chat"); out != "Registered group 100\n" {
		t.Fatalf("unexpected output: %q", out)
	}
	if out := f.mustRun(t, "groups", "add", "100"); out != "Group 100 was already registered\n" {
		t.Fatalf("unexpected output: %q", out)
	}
	f.mustRun(t, "groups", "moderation", "100", "on")

	out := f.mustRun(t, "groups", "list")
	if !strings.HasPrefix(out, "100\tMain chat\tdeletion=on\tsince ") {
		t.Fatalf("unexpected listing: %q", out)
	}

	if _, err := f.run(t, "groups", "title", "200", "Ghost"); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestReviewersAndACL(t *testing.T) {
	t.Parallel()

	f := newCLIFixture(t)
	if _, err := f.run(t, "reviewers", "link", "555", "100"); err == nil {
		t.Fatalf("linking to an unregistered group must fail")
	}
	f.mustRun(t, "groups", "add", "100")
	f.mustRun(t, "reviewers", "link", "555", "100")
	f.mustRun(t, "reviewers", "link", "444", "100")

	if out := f.mustRun(t, "reviewers", "list", "100"); out != "444\n555\n" {
		t.Fatalf("unexpected reviewers: %q", out)
	}
	if out := f.mustRun(t, "reviewers", "unlink", "555", "100"); out != "Removed 1 link(s)\n" {
		t.Fatalf("unexpected output: %q", out)
	}

	path := filepath.Join(f.dir, "acl.yml")
	if err := os.WriteFile(path, []byte("global_reviewers: [1]\nreviewers: [2, 3]\n"), 0o600); err != nil {
		t.Fatalf("write acl: %v", err)
	}
	if out := f.mustRun(t, "acl", "import", path); out != "Imported 3 id(s)\n" {
		t.Fatalf("unexpected output: %q", out)
	}
	if out := f.mustRun(t, "acl", "global", "remove", "1"); out != "global remove 1\n" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestWarningsAndHistory(t *testing.T) {
	t.Parallel()

	f := newCLIFixture(t)
	if out := f.mustRun(t, "warnings", "get", "42"); out != "0\n" {
		t.Fatalf("unexpected count: %q", out)
	}
	if _, err := f.run(t, "warnings", "set", "--", "42", "-1"); !errors.Is(err, errs.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
	f.mustRun(t, "warnings", "set", "42", "3")
	if out := f.mustRun(t, "warnings", "get", "42"); out != "3\n" {
		t.Fatalf("unexpected count: %q", out)
	}

	out := f.mustRun(t, "history", "--user", "42")
	fields := strings.Split(strings.TrimSpace(out), "\t")
	if len(fields) != 5 || fields[2] != "42" || fields[3] != "3" || fields[4] != "override" {
		t.Fatalf("unexpected history row: %q", out)
	}
	if out := f.mustRun(t, "history", "--group", "100"); out != "" {
		t.Fatalf("override rows have no group, got %q", out)
	}
}
