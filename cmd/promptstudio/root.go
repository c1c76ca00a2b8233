package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/jrsteele09/promptstudio/internal/config"
	"github.com/spf13/cobra"
)

const traceVar = "PROMPTSTUDIO_TRACE"

// rootFlags are shared by every subcommand.
type rootFlags struct {
	envFile string
	trace   bool
}

// appReady observes each app once it is built. Tests replace it.
var appReady = func(*app) {}

// newRootCommand builds the command tree. The returned func releases the app
// the command opened and must run whether or not the command succeeded.
func newRootCommand() (*cobra.Command, func() error) {
	flags := &rootFlags{}
	var a *app
	closeApp := func() error {
		if a == nil {
			return nil
		}
		err := a.Close()
		a = nil
		return err
	}

	root := &cobra.Command{
		Use:           "promptstudio",
		Short:         "Save and organise ChatGPT conversations as bookmarks",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.Load(flags.envFile); err != nil {
				return fmt.Errorf("load %s: %w", flags.envFile, err)
			}
			c := config.New()
			logger := newLogger(cmd.ErrOrStderr(), c.GetLogLevel())

			opts := appOptions{}
			if flags.trace {
				opts.trace = cmd.ErrOrStderr()
			}
			var err error
			if a, err = newApp(cmd.Context(), c, logger, opts); err != nil {
				return err
			}
			appReady(a)
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			displayAppname(cmd.OutOrStdout(), a.config.GetAppName())
			return cmd.Help()
		},
	}

	root.PersistentFlags().StringVar(&flags.envFile, "env-file", ".env", "dotenv file to load before reading configuration")
	root.PersistentFlags().BoolVar(&flags.trace, "trace", config.GetEnvBool(traceVar, false), "print every API request (or set "+traceVar+")")

	appFn := func() *app { return a }
	root.AddCommand(
		newLoginCommand(appFn),
		newRegisterCommand(appFn),
		newLogoutCommand(appFn),
		newWhoamiCommand(appFn),
		newPromptsCommand(appFn),
		newCollectionsCommand(appFn),
	)
	return root, closeApp
}

// readValue returns flagValue, or prompts for it on the command's input.
func readValue(cmd *cobra.Command, in *bufio.Reader, flagValue, label string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: ", label)
	line, err := in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("read %s: %w", strings.ToLower(label), err)
	}
	value := strings.TrimSpace(line)
	if value == "" {
		return "", fmt.Errorf("%s is required", strings.ToLower(label))
	}
	return value, nil
}
