package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Refresh(ctx context.Context, args []string) error
	Logout(ctx context.Context, args []string) error
	Validate(ctx context.Context, args []string) error
	Profile(ctx context.Context) error
}

// dispatch runs a single session command. It reports false for names it
// does not know.
func dispatch(ctx context.Context, a execIface, cmd string, args []string) (bool, error) {
	switch cmd {
	case "register":
		return true, a.Register(ctx)
	case "login":
		return true, a.Login(ctx)
	case "refresh":
		return true, a.Refresh(ctx, args)
	case "logout":
		return true, a.Logout(ctx, args)
	case "validate":
		return true, a.Validate(ctx, args)
	case "profile":
		return true, a.Profile(ctx)
	}
	return false, nil
}

// runREPL starts a simple read–eval–print loop.
//
// It reads a line from reader, parses the first token as the command and
// dispatches to methods on 'a'. Errors returned by a command are printed and
// the loop continues. The loop exits on EOF or when the user types "exit" or
// "quit".
//
//	Not logged in:  register, login, refresh <t>, validate <t>, logout <id> <t>
//	Logged in:      profile, validate, refresh, logout, status
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader, w io.Writer) {
	for {
		fmt.Fprintf(w, "authctl %s> ", statusFn())

		line, err := readLine(reader)
		if err != nil {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				fmt.Fprintln(w, "Available commands: profile, validate, refresh, logout, status, exit")
			} else {
				fmt.Fprintln(w, "Available commands: register, login, refresh <token>, validate <token>, logout <userId> <token>, exit")
			}
			continue

		case "status":
			fmt.Fprintln(w, statusFn())
			continue

		case "exit", "quit":
			fmt.Fprintln(w, "Bye!")
			return
		}

		known, err := dispatch(ctx, a, cmd, args)
		if !known {
			fmt.Fprintln(w, "Unknown command:", cmd)
			continue
		}
		if err != nil {
			fmt.Fprintln(w, "Error:", err)
		}
	}
}
