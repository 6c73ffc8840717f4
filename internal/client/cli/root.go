package cli

import (
	"context"
	"fmt"
)

func (a *App) getStatus() string {
	if !a.isLoggedIn() {
		return "(anonymous)"
	}
	if a.userName != "" {
		return fmt.Sprintf("(%s)", a.userName)
	}
	return fmt.Sprintf("(%s)", a.client.Session().UserID)
}

// Root runs the interactive REPL until the user exits or stdin is closed.
func (a *App) Root(ctx context.Context) {
	fmt.Fprintf(a.out, "Welcome to authctl, connected to %s (type 'help' for commands)\n", a.config.ServerEndpointAddr)
	runREPL(ctx, a, a.getStatus, a.reader, a.out)
}

// Exec runs a single command non-interactively.
func (a *App) Exec(ctx context.Context, cmd string, args []string) error {
	known, err := dispatch(ctx, a, cmd, args)
	if !known {
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
	return err
}
