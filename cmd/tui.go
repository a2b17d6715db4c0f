package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/JAlbrecht-svg/inkasso-console/internal/controller"
	"github.com/JAlbrecht-svg/inkasso-console/internal/ui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Start the interactive case workbench",
	Long: `Start the terminal UI: the case list with search and status filter on the
left, the selected case with its payments and actions on the right.

Logs go to a file (log.file) to keep the screen clean. Endpoint changes
saved by 'inkasso config set-endpoint' apply to the running UI.`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("inkasso tui needs an interactive terminal; use the list/show subcommands instead")
	}
	cfg := GetConfig()

	logOut := io.Discard
	if logFile := openLogFile(cfg.Log.File); logFile != nil {
		defer logFile.Close()
		logOut = logFile
	}
	// The TUI always logs to its file; the level only applies to stderr.
	logger := log.New(logOut, "[UI] ", log.LstdFlags)

	a, err := newApp(os.Stdout, logOut)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	go func() {
		if err := a.settings.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Printf("settings watch stopped: %v", err)
		}
	}()

	ctrlLogger := log.New(logOut, "[Controller] ", log.LstdFlags)
	cases := controller.NewCaseList(a.repo, cfg.UI.SearchDebounce, ctrlLogger)
	detail := controller.NewCaseDetail(a.repo, cases, a.recorder(), ctrlLogger)

	tui := ui.NewUI(ctx, ui.Deps{
		Cases:    cases,
		Detail:   detail,
		Endpoint: a.settings.BaseURL,
		Theme:    cfg.UI.Theme,
	}, logger)
	if err := tui.Start(ctx); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}

// openLogFile creates the log file for TUI mode. nil means logs are dropped.
func openLogFile(path string) *os.File {
	if path == "" {
		return nil
	}
	if err := ensureDir(path); err != nil {
		return nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil
	}
	return f
}
