package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/memohai/openchat-bot/cmd/openchat-bot/modules"
	"github.com/memohai/openchat-bot/internal/agent"
	"github.com/memohai/openchat-bot/internal/auth"
	"github.com/memohai/openchat-bot/internal/command"
	"github.com/memohai/openchat-bot/internal/config"
	"github.com/memohai/openchat-bot/internal/version"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "openchat-bot",
		Short:         "OpenChat bot that answers commands and platform events with an agent persona",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("config", defaultConfigPath(), "path to the TOML config file")
	root.AddCommand(newServeCmd(), newDefinitionCmd(), newTokenCmd(), newVersionCmd())
	return root
}

func defaultConfigPath() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return config.DefaultConfigPath
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the bot HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			app := fx.New(
				fx.Supply(cfg),
				modules.InfraModule,
				modules.DomainModule,
				modules.ServerModule,
				fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
					return &fxevent.SlogLogger{Logger: logger.With(slog.String("component", "fx"))}
				}),
			)
			if err := app.Err(); err != nil {
				return err
			}
			app.Run()
			return nil
		},
	}
}

func newDefinitionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "definition",
		Short: "Print the bot definition JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			character, err := agent.LoadCharacter(cfg.Agent.CharacterPath)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(command.NewBotDefinition(character))
		},
	}
}

func newTokenCmd() *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the runtime API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if ttl <= 0 {
				ttl, err = time.ParseDuration(cfg.RuntimeAPI.TokenTTL)
				if err != nil {
					return fmt.Errorf("invalid runtime token ttl: %w", err)
				}
			}
			token, expiresAt, err := auth.GenerateToken(strings.TrimSpace(subject), cfg.RuntimeAPI.JWTSecret, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires at %s\n", expiresAt.Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "runtime", "token subject recorded in action logs")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (defaults to runtime_api.token_ttl)")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "OpenChat bot %s\n", version.GetInfo())
		},
	}
}
