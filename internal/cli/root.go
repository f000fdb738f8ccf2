// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jeranaias/applianceai-tui/internal/api"
	"github.com/jeranaias/applianceai-tui/internal/config"
	"github.com/jeranaias/applianceai-tui/internal/logging"
	"github.com/jeranaias/applianceai-tui/internal/model"
	"github.com/jeranaias/applianceai-tui/internal/storage"
	"github.com/jeranaias/applianceai-tui/internal/store"
)

// Version information, set by main from build flags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// errNotLoggedIn is returned by commands that need a stored session.
var errNotLoggedIn = errors.New("not logged in; run 'applianceai login' first")

// Execute runs the command tree against os.Args and returns the process
// exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, newPalette(os.Stderr).Error.Render("Error:"), err)
		return 1
	}
	return 0
}

// =============================================================================
// ROOT COMMAND
// =============================================================================

// rootOptions are the persistent flags shared by every command.
type rootOptions struct {
	apiBase    string
	configPath string
	ephemeral  bool
	debug      bool
}

// NewRootCmd builds the applianceai command tree.
func NewRootCmd() *cobra.Command {
	o := &rootOptions{}

	root := &cobra.Command{
		Use:   "applianceai",
		Short: "Appliance support assistant for the terminal",
		Long: `applianceai answers questions about your refrigerator or washing machine
using the manufacturer's manuals.

Run it without a subcommand for the full-screen interface, or use the
subcommands below from scripts.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, o)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&o.apiBase, "api-base", "", "backend URL including the /api prefix (overrides config)")
	pf.StringVar(&o.configPath, "config", "", "config file (default ~/.applianceai/config.toml)")
	pf.BoolVar(&o.ephemeral, "ephemeral", false, "keep tokens in memory only")
	pf.BoolVar(&o.debug, "debug", false, "debug logging")

	root.AddCommand(
		newLoginCmd(o),
		newSignupCmd(o),
		newLogoutCmd(o),
		newAskCmd(o),
		newChatCmd(o),
		newTipsCmd(o),
		newHistoryCmd(o),
		newExportCmd(o),
		newConfigCmd(o),
		newVersionCmd(),
	)
	return root
}

// loadConfig reads the config file and applies the persistent flags on top.
func (o *rootOptions) loadConfig() (*config.Config, string, error) {
	path := o.configPath
	if path == "" {
		p, err := config.ConfigPath()
		if err != nil {
			return nil, "", err
		}
		path = p
	}
	cfg, err := config.LoadFromPath(path)
	if err != nil {
		return nil, "", err
	}
	if o.apiBase != "" {
		cfg.API.BaseURL = strings.TrimRight(strings.TrimSpace(o.apiBase), "/")
	}
	if o.ephemeral {
		cfg.Storage.Ephemeral = true
	}
	if o.debug {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", fmt.Errorf("invalid config: %w", err)
	}
	config.SetGlobal(cfg)
	return cfg, path, nil
}

// =============================================================================
// APP
// =============================================================================

// app is everything a command needs to talk to the backend.
type app struct {
	cfg     *config.Config
	cfgPath string

	tokens storage.Store
	client *api.Client
	store  *store.Store
	log    zerolog.Logger

	closers []io.Closer
}

// open loads config, starts logging and opens token storage. interactive
// suppresses console logging since the UI owns the terminal.
func (o *rootOptions) open(cmd *cobra.Command, interactive bool) (*app, error) {
	cfg, path, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, cfgPath: path}

	var console io.Writer
	if o.debug && !interactive {
		console = cmd.ErrOrStderr()
	}
	logCloser, err := logging.Setup(logging.Options{Level: cfg.Log.Level, Path: cfg.Log.Path, Console: console})
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, logCloser)
	a.log = logging.For("cli")

	if !cfg.Storage.Ephemeral {
		if err := os.MkdirAll(filepath.Dir(cfg.Storage.Path), 0700); err != nil {
			a.Close()
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}
	tokens, closer, err := storage.Open(storage.Options{
		Path:       cfg.Storage.Path,
		KeyPath:    cfg.Storage.KeyPath,
		Passphrase: cfg.Storage.Passphrase,
		Ephemeral:  cfg.Storage.Ephemeral,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open storage: %w", err)
	}
	a.tokens = tokens
	// Storage closes before the log file.
	a.closers = append([]io.Closer{closer}, a.closers...)

	a.client = api.New(api.Options{
		BaseURL:   cfg.API.BaseURL,
		Timeout:   time.Duration(cfg.API.TimeoutSecs) * time.Second,
		RateLimit: cfg.API.RateLimit,
		RateBurst: cfg.API.RateBurst,
		Tokens:    tokens,
	})
	a.store = store.New(a.client, tokens)
	a.client.OnUnauthorized(a.store.HandleUnauthorized)

	a.log.Debug().
		Str("api", cfg.API.BaseURL).
		Bool("ephemeral", cfg.Storage.Ephemeral).
		Str("command", cmd.Name()).
		Msg("started")
	return a, nil
}

// Close releases storage and the log file.
func (a *app) Close() error {
	var errs []error
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// requireLogin restores the stored session, refreshing the access token
// when possible.
func (a *app) requireLogin(ctx context.Context) error {
	a.store.Resume(ctx)
	if !a.store.Snapshot().Auth.IsAuthenticated {
		return errNotLoggedIn
	}
	return nil
}

// selectFor makes appliance and brand the current selection.
func (a *app) selectFor(sel selection) {
	a.store.Dispatch(store.SelectAppliance{ID: sel.appliance})
	a.store.Dispatch(store.SelectBrand{ID: sel.brand})
}

// =============================================================================
// SELECTION FLAGS
// =============================================================================

// selection is the --appliance/--brand pair.
type selection struct {
	appliance string
	brand     string
}

func (s *selection) register(cmd *cobra.Command) {
	var ids, brands []string
	seen := map[string]bool{}
	for _, a := range model.Appliances() {
		ids = append(ids, a.ID)
		for _, b := range a.Brands {
			if !seen[b.ID] {
				seen[b.ID] = true
				brands = append(brands, b.ID)
			}
		}
	}
	cmd.Flags().StringVarP(&s.appliance, "appliance", "a", "", "appliance ("+strings.Join(ids, ", ")+")")
	cmd.Flags().StringVarP(&s.brand, "brand", "b", "", "brand ("+strings.Join(brands, ", ")+")")
	_ = cmd.MarkFlagRequired("appliance")
	_ = cmd.MarkFlagRequired("brand")
}

// validate normalises the ids and checks them against the catalog.
func (s *selection) validate() error {
	s.appliance = strings.ToLower(strings.TrimSpace(s.appliance))
	s.brand = strings.ToLower(strings.TrimSpace(s.brand))
	if _, ok := model.LookupAppliance(s.appliance); !ok {
		return fmt.Errorf("unknown appliance %q", s.appliance)
	}
	if _, ok := model.LookupBrand(s.appliance, s.brand); !ok {
		return fmt.Errorf("brand %q is not offered for %s", s.brand, model.ApplianceName(s.appliance))
	}
	return nil
}

func (s selection) String() string {
	return model.BrandName(s.brand) + " " + model.ApplianceName(s.appliance)
}

// selectionForTitle recovers the selection from a backend session name such
// as "Lg Refrigerator Support".
func selectionForTitle(title string) selection {
	appliance, brand, ok := model.SelectionForSessionName(title)
	if !ok {
		return selection{}
	}
	return selection{appliance: appliance, brand: brand}
}
