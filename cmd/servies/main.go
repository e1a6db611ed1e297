package main

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/servies/internal/api"
	"github.com/mmcdole/servies/internal/catalog"
	"github.com/mmcdole/servies/internal/config"
	"github.com/mmcdole/servies/internal/filters"
	"github.com/mmcdole/servies/internal/lists"
	"github.com/mmcdole/servies/internal/logging"
	"github.com/mmcdole/servies/internal/notify"
	"github.com/mmcdole/servies/internal/search"
	"github.com/mmcdole/servies/internal/store"
	"github.com/mmcdole/servies/internal/tui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// Version is set at build time via -ldflags
var Version = "dev"

func main() {
	root, a := newRootCmd()
	err := root.Execute()
	a.close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app holds what every command needs once configuration is loaded
type app struct {
	configPath string

	cfg    *config.Config
	logger *slog.Logger
	logs   io.Closer
	kv     *store.StateStore
	client *api.Client
}

func newRootCmd() (*cobra.Command, *app) {
	a := &app{}

	root := &cobra.Command{
		Use:           "servies",
		Short:         "Track movies and series from the terminal",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTUI()
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "config file (default ~/.config/servies/config.yaml)")

	root.AddCommand(
		newSetupCmd(a),
		newFiltersCmd(a),
		newToggleCmd(a),
		newRateCmd(a),
		newListsCmd(a),
		newSearchCmd(a),
		newCacheCmd(a),
		newVersionCmd(),
	)
	return root, a
}

// load reads configuration and sets up logging
func (a *app) load() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	a.cfg = cfg

	logger, closer, err := logging.Setup(cfg.Logging.File, cfg.Logging.Level)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = logging.NullLogger()
	}
	a.logger = logger
	a.logs = closer
	slog.SetDefault(logger)

	logger.Info("starting servies", "version", Version)
	return nil
}

// connect opens the persisted state and the API client
func (a *app) connect() error {
	if a.client != nil {
		return nil
	}
	if !a.cfg.IsConfigured() {
		return fmt.Errorf("no server configured; run 'servies setup' or set SERVIES_SERVER_URL")
	}

	kv, err := store.NewStateStore(a.cfg.Cache.Dir, a.cfg.Server.URL)
	if err != nil {
		return fmt.Errorf("failed to open state store: %w", err)
	}
	a.kv = kv
	a.client = api.NewClient(a.cfg.Server.URL, a.cfg.Server.Token, a.logger,
		api.WithCollection(a.cfg.API.Collection),
		api.WithTimeout(a.cfg.API.Timeout),
		api.WithPageSize(a.cfg.UI.PageSize),
	)
	return nil
}

func (a *app) close() {
	if a.logger == nil {
		return // Never loaded
	}
	if a.kv != nil {
		if err := a.kv.Close(); err != nil {
			a.logger.Warn("failed to close state store", "error", err)
		}
	}
	a.logger.Info("shutting down")
	if a.logs != nil {
		a.logs.Close()
	}
}

func (a *app) runTUI() error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("stdout is not a terminal; use a subcommand (see 'servies --help')")
	}
	if !a.cfg.IsConfigured() {
		if err := a.setup(os.Stdin, os.Stdout); err != nil {
			return err
		}
	}
	if err := a.connect(); err != nil {
		return err
	}

	banner := notify.NewBanner(a.cfg.UI.NotificationTTL)
	model := tui.NewModel(tui.Options{
		Catalog:        catalog.NewService(a.client, a.client, a.logger),
		Mutations:      a.client,
		Lists:          lists.New(a.client, a.kv, banner, a.logger),
		Filters:        filters.NewStore(a.kv, a.logger),
		Search:         search.NewService(a.client, a.logger),
		Banner:         banner,
		Logger:         a.logger,
		Timeout:        a.cfg.API.Timeout,
		SearchDebounce: a.cfg.UI.SearchDebounce,
		SearchCooldown: a.cfg.UI.SearchCooldown,
	})
	defer model.Close()

	p := tea.NewProgram(model, tea.WithAltScreen())

	a.logger.Info("starting TUI")
	if _, err := p.Run(); err != nil {
		a.logger.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// setup prompts for the server and token and saves them
func (a *app) setup(in *os.File, out io.Writer) error {
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Welcome to servies!")
	fmt.Fprintln(out)

	reader := bufio.NewReader(in)
	var serverURL string
	for serverURL == "" {
		fmt.Fprint(out, "Server URL (e.g., https://servies.example.com/api): ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}
		serverURL = strings.TrimSpace(line)
		if serverURL == "" {
			fmt.Fprintln(out, "Server URL cannot be empty. Please try again.")
		}
	}

	fmt.Fprint(out, "Access token (leave empty for none): ")
	var token string
	if term.IsTerminal(int(in.Fd())) {
		raw, err := term.ReadPassword(int(in.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return fmt.Errorf("failed to read token: %w", err)
		}
		token = strings.TrimSpace(string(raw))
	} else {
		line, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return fmt.Errorf("failed to read token: %w", err)
		}
		token = strings.TrimSpace(line)
	}

	a.cfg.Server.URL = serverURL
	a.cfg.Server.Token = token
	if err := config.Save(a.cfg, a.configPath); err != nil {
		return err
	}
	fmt.Fprintln(out, "✓ Configuration saved")
	return nil
}
