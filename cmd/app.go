package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JAlbrecht-svg/inkasso-console/internal/bus"
	"github.com/JAlbrecht-svg/inkasso-console/internal/controller"
	"github.com/JAlbrecht-svg/inkasso-console/internal/credentials"
	"github.com/JAlbrecht-svg/inkasso-console/internal/journal"
	"github.com/JAlbrecht-svg/inkasso-console/internal/repository"
	"github.com/JAlbrecht-svg/inkasso-console/internal/settings"
	"github.com/JAlbrecht-svg/inkasso-console/internal/transport"
)

// app holds the collaborators shared by the subcommands.
type app struct {
	config   Config
	out      io.Writer
	logOut   io.Writer
	logger   *log.Logger
	settings *settings.Store
	tokens   credentials.Store
	client   *transport.Client
	repo     *repository.Repository

	journal *journal.Journal
	feed    bus.Bus
}

// newApp wires settings, credentials and the transport from the config.
// Journal and change feed are opened on first use by recorder.
func newApp(out, logOut io.Writer) (*app, error) {
	cfg := GetConfig()
	logger := newLogger(logOut, cfg.Log.Level, "[inkasso] ")

	st, err := settings.Open(cfg.Settings.Path, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	if cfg.API.BaseURL != "" {
		if err := st.SetOverride(cfg.API.BaseURL); err != nil {
			return nil, fmt.Errorf("invalid --base-url: %w", err)
		}
	}

	tokens := tokenChain(cfg)

	client := transport.New(transport.Config{
		Endpoint:  transport.EndpointFunc(st.BaseURL),
		Tokens:    credentials.Token{Store: tokens},
		Timeout:   cfg.API.Timeout,
		UserAgent: "inkasso-console/" + versionString(),
	}, newLogger(logOut, cfg.Log.Level, "[Transport] "))

	return &app{
		config:   cfg,
		out:      out,
		logOut:   logOut,
		logger:   logger,
		settings: st,
		tokens:   tokens,
		client:   client,
		repo:     repository.New(client),
	}, nil
}

// tokenChain looks in INKASSO_API_TOKEN, then the system keyring, then the
// credentials file.
func tokenChain(cfg Config) credentials.Chain {
	return credentials.Chain{
		credentials.EnvStore{Var: credentials.EnvToken},
		credentials.KeyringStore{},
		credentials.NewFileStore(cfg.Token.Path),
	}
}

// newLogger keeps debug output only when level is debug, the way the
// services stay quiet unless asked.
func newLogger(w io.Writer, level, prefix string) *log.Logger {
	if strings.ToLower(level) != "debug" {
		w = io.Discard
	}
	return log.New(w, prefix, log.LstdFlags)
}

// recorder opens the journal and the change feed. A journal that cannot be
// opened is logged and skipped; writes to the backend still go ahead.
func (a *app) recorder() controller.Recorder {
	var recs controller.Recorders
	if a.journal == nil {
		j, err := journal.Open(a.config.Journal.Path, actor())
		if err != nil {
			a.logger.Printf("journal disabled: %v", err)
		} else {
			a.journal = j
		}
	}
	if a.journal != nil {
		recs = append(recs, a.journal)
	}
	if a.feed == nil {
		a.feed = bus.NewBus(a.config.Redis.URL, a.config.Redis.Stream, actor(), a.logger)
	}
	recs = append(recs, a.feed)
	return recs
}

// Close releases the journal and the feed connection.
func (a *app) Close() {
	if a.journal != nil {
		if err := a.journal.Close(); err != nil {
			a.logger.Printf("closing journal: %v", err)
		}
	}
	if a.feed != nil {
		_ = a.feed.Close()
	}
}

func (a *app) caseDetail() *controller.CaseDetail {
	return controller.NewCaseDetail(a.repo, nil, a.recorder(), newLogger(a.logOut, a.config.Log.Level, "[Controller] "))
}

func (a *app) debtorDetail() *controller.DebtorDetail {
	return controller.NewDebtorDetail(a.repo, nil, a.recorder(), newLogger(a.logOut, a.config.Log.Level, "[Controller] "))
}

// actor names this workstation in the journal and the feed.
func actor() string {
	user := os.Getenv("USER")
	if user == "" {
		user = os.Getenv("USERNAME")
	}
	host, _ := os.Hostname()
	switch {
	case user != "" && host != "":
		return user + "@" + host
	case user != "":
		return user
	case host != "":
		return host
	default:
		return "inkasso"
	}
}

// withApp runs fn with an app writing to the command's output and closes it
// afterwards.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	a, err := newApp(cmd.OutOrStdout(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(cmd.Context(), a)
}

// failure turns a backend error into the message printed for the user.
func failure(action string, err error) error {
	return fmt.Errorf("%s: %s", action, transport.UserMessage(err))
}

func ensureDir(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		return os.MkdirAll(dir, 0o755)
	}
	return nil
}
