// Command extcheck checks and expands units that use the inline and scope
// language extensions.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/roach88/extcheck/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.NewRootCommand().ExecuteContext(ctx)
	stop()
	if err == nil {
		return
	}

	// Commands print their own results; only report what they did not.
	var exitErr *cli.ExitError
	if !errors.As(err, &exitErr) {
		// flag and argument errors from cobra
		fmt.Fprintln(os.Stderr, "extcheck:", err)
		os.Exit(cli.ExitCommandError)
	}
	if exitErr.Code == cli.ExitCommandError {
		fmt.Fprintln(os.Stderr, "extcheck:", err)
	}
	os.Exit(exitErr.Code)
}
