package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeExec struct {
	loggedIn bool
	err      error

	calls []string
	args  [][]string
}

func (f *fakeExec) isLoggedIn() bool { return f.loggedIn }
func (f *fakeExec) Register(ctx context.Context) error {
	f.calls = append(f.calls, "register")
	return f.err
}
func (f *fakeExec) Login(ctx context.Context) error {
	f.calls = append(f.calls, "login")
	f.loggedIn = true
	return f.err
}
func (f *fakeExec) Refresh(ctx context.Context, args []string) error {
	f.calls = append(f.calls, "refresh")
	f.args = append(f.args, args)
	return f.err
}
func (f *fakeExec) Logout(ctx context.Context, args []string) error {
	f.calls = append(f.calls, "logout")
	f.args = append(f.args, args)
	f.loggedIn = false
	return f.err
}
func (f *fakeExec) Validate(ctx context.Context, args []string) error {
	f.calls = append(f.calls, "validate")
	f.args = append(f.args, args)
	return f.err
}
func (f *fakeExec) Profile(ctx context.Context) error {
	f.calls = append(f.calls, "profile")
	return f.err
}

func TestRunREPL_LoginFlowAndCommands(t *testing.T) {
	input := strings.Join([]string{
		"help",
		"login",
		"help",
		"",
		"profile",
		"validate tok-1",
		"refresh",
		"status",
		"foobar",
		"logout",
		"exit",
		"register",
	}, "\n")

	exec := &fakeExec{loggedIn: false}
	var out bytes.Buffer

	runREPL(context.Background(), exec, func() string { return "(status)" }, rdr(input), &out)

	wantOrder := []string{"login", "profile", "validate", "refresh", "logout"}
	if len(exec.calls) != len(wantOrder) {
		t.Fatalf("calls = %+v, want %+v", exec.calls, wantOrder)
	}
	for i, c := range wantOrder {
		if exec.calls[i] != c {
			t.Fatalf("call #%d = %q, want %q (all=%v)", i, exec.calls[i], c, exec.calls)
		}
	}
	assert.Equal(t, [][]string{{"tok-1"}, {}, {}}, exec.args)

	s := out.String()
	assert.Contains(t, s, "Available commands: register, login")
	assert.Contains(t, s, "Available commands: profile, validate")
	assert.Contains(t, s, "Unknown command: foobar")
	assert.Contains(t, s, "Bye!")
	assert.Contains(t, s, "authctl (status)> ")
}

func TestRunREPL_PrintsErrorsAndContinues(t *testing.T) {
	exec := &fakeExec{err: errors.New("boom")}
	var out bytes.Buffer

	runREPL(context.Background(), exec, func() string { return "" }, rdr("register\nvalidate x\n"), &out)

	assert.Equal(t, []string{"register", "validate"}, exec.calls)
	assert.Equal(t, 2, strings.Count(out.String(), "Error: boom"))
}

func TestRunREPL_StopsOnEOF(t *testing.T) {
	exec := &fakeExec{}
	var out bytes.Buffer

	runREPL(context.Background(), exec, func() string { return "" }, rdr(""), &out)

	assert.Empty(t, exec.calls)
}

func TestDispatch_Unknown(t *testing.T) {
	known, err := dispatch(context.Background(), &fakeExec{}, "addnote", nil)
	assert.False(t, known)
	assert.NoError(t, err)
}
