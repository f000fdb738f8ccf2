// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"
	"github.com/spf13/cobra"

	"github.com/jeranaias/applianceai-tui/internal/config"
)

func newConfigCmd(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newConfigShowCmd(o), newConfigPathCmd(o), newConfigInitCmd(o))
	return cmd
}

func newConfigShowCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Long: `Print the configuration after defaults, .env files, APPLIANCEAI_*
environment variables and command-line flags have been applied.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := o.loadConfig()
			if err != nil {
				return err
			}
			var buf bytes.Buffer
			if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
				return fmt.Errorf("encode config: %w", err)
			}

			out := cmd.OutOrStdout()
			p := newPalette(out)
			fmt.Fprintln(out, p.Dim.Render("# "+path))
			if !colorsEnabled(out) {
				_, err := out.Write(buf.Bytes())
				return err
			}
			return highlightTOML(out, buf.String())
		},
	}
}

func newConfigPathCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := o.configPath
			if path == "" {
				p, err := config.ConfigPath()
				if err != nil {
					return err
				}
				path = p
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}

func newConfigInitCmd(o *rootOptions) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file with the default settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := o.configPath
			if path == "" {
				p, err := config.ConfigPath()
				if err != nil {
					return err
				}
				path = p
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
				return fmt.Errorf("create config directory: %w", err)
			}

			cfg := config.Default()
			if o.apiBase != "" {
				cfg.API.BaseURL = o.apiBase
			}
			if err := config.SaveTOML(cfg, path); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), newPalette(cmd.OutOrStdout()).Success.Render("Wrote "+path))
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

// highlightTOML writes src with terminal syntax highlighting.
func highlightTOML(w io.Writer, src string) error {
	lexer := lexers.Get("toml")
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := chromaStyles.Get("monokai")
	if style == nil {
		style = chromaStyles.Fallback
	}
	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	it, err := lexer.Tokenise(nil, src)
	if err != nil {
		_, werr := io.WriteString(w, src)
		return werr
	}
	return formatter.Format(w, style, it)
}
