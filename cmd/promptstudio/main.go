package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/promptstudio/apiclient"
	apperrors "github.com/jrsteele09/promptstudio/internal/errors"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, errorText(err))
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(stderr, "Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd, closeApp := newRootCommand()
	defer func() {
		if err := closeApp(); err != nil && returnError == nil {
			returnError = err
		}
	}()

	cmd.SetArgs(args)
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return cmd.ExecuteContext(ctx)
}

// errorText is what the user sees for a failed command.
func errorText(err error) string {
	switch {
	case apperrors.Is(err, apiclient.ErrRefreshFailed):
		return apiclient.ErrorMessage(err) + "\nRun `promptstudio login` to sign in."
	case apperrors.Is(err, apperrors.ErrNotAuthenticated), apperrors.Is(err, apperrors.ErrUserNotLoaded):
		return "You are not signed in. Run `promptstudio login` first."
	default:
		return "Error: " + apiclient.ErrorMessage(err)
	}
}

func displayAppname(w io.Writer, appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	fmt.Fprintln(w, myFigure.String())
}
