package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"guestbook/internal/config"
	"guestbook/internal/model"
	web "guestbook/internal/server"
	"guestbook/internal/store"
	"guestbook/internal/worker"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	logger     *zap.Logger
	configPath string
	flagCfg    = config.Default()
)

var rootCmd = &cobra.Command{
	Use:           "guestbook",
	Short:         "guestbook - a tiny message board with static pages",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the static pages and the message board",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := resolveConfig(cmd)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := store.Open(cfg.StoreOptions())
		if err != nil {
			return fmt.Errorf("failed to init store: %w", err)
		}
		defer st.Close()

		// The writer outlives ctx so requests drained during shutdown can still save.
		writerCtx, stopWriter := context.WithCancel(context.Background())
		defer stopWriter()
		w := worker.NewWriter(st, logger)
		go w.Start(writerCtx)

		srv := web.NewServer(st, w, cfg.Root, logger)
		errc := make(chan error, 1)
		go func() {
			errc <- srv.Start(cfg.Addr)
		}()

		logger.Info("Server running.",
			zap.String("backend", cfg.Backend),
			zap.String("root", cfg.Root))

		select {
		case err := <-errc:
			if !errors.Is(err, http.ErrServerClosed) {
				return err
			}
		case <-ctx.Done():
			logger.Info("Shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Stop(shutdownCtx); err != nil {
				logger.Error("Shutdown failed", zap.Error(err))
			}
		}
		stopWriter()

		logger.Info("Goodbye!")
		return nil
	},
}

var postCmd = &cobra.Command{
	Use:   "post [username] [message]",
	Short: "Store a message without going through the web form",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := resolveConfig(cmd)
		if err != nil {
			return err
		}

		msg := model.Message{Username: args[0], Message: args[1]}
		if !msg.Valid() {
			return errors.New("username and message must both be non-empty")
		}

		st, err := store.Open(cfg.StoreOptions())
		if err != nil {
			return fmt.Errorf("failed to init store: %w", err)
		}
		defer st.Close()

		ts := model.FormatTimestamp(time.Now())
		if err := st.Append(cmd.Context(), ts, msg); err != nil {
			return fmt.Errorf("failed to save message: %w", err)
		}

		logger.Info("Message stored",
			zap.String("timestamp", ts),
			zap.String("username", msg.Username))
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print every stored message, oldest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := resolveConfig(cmd)
		if err != nil {
			return err
		}

		st, err := store.Open(cfg.StoreOptions())
		if err != nil {
			return fmt.Errorf("failed to init store: %w", err)
		}
		defer st.Close()

		entries, err := st.List(cmd.Context())
		if err != nil {
			return err
		}

		if len(entries) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), color.YellowString("No messages yet."))
			return nil
		}
		for _, e := range entries {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %s\n",
				color.New(color.Faint).Sprint(e.Timestamp),
				color.CyanString(e.Username),
				e.Message.Message)
		}
		return nil
	},
}

// resolveConfig starts from the config file (or defaults) and applies only
// the flags the user set explicitly.
func resolveConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	override := func(name string, dst *string, val string) {
		if flags.Changed(name) {
			*dst = val
		}
	}
	override("addr", &cfg.Addr, flagCfg.Addr)
	override("root", &cfg.Root, flagCfg.Root)
	override("backend", &cfg.Backend, flagCfg.Backend)
	override("data", &cfg.DataFile, flagCfg.DataFile)
	override("badger", &cfg.BadgerPath, flagCfg.BadgerPath)
	override("redis", &cfg.RedisAddr, flagCfg.RedisAddr)
	override("sqlite", &cfg.SQLitePath, flagCfg.SQLitePath)

	return cfg, cfg.Validate()
}

func main() {
	var err error
	logger, err = zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	def := config.Default()
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "Path to a YAML config file")
	pf.StringVar(&flagCfg.Backend, "backend", def.Backend, "Message store backend: file, badger, redis or sqlite")
	pf.StringVar(&flagCfg.DataFile, "data", def.DataFile, "Path to the JSON message document (file backend)")
	pf.StringVar(&flagCfg.BadgerPath, "badger", def.BadgerPath, "Path to BadgerDB data directory")
	pf.StringVar(&flagCfg.RedisAddr, "redis", def.RedisAddr, "Address of Redis server")
	pf.StringVar(&flagCfg.SQLitePath, "sqlite", def.SQLitePath, "Path to the SQLite database file")

	serveCmd.Flags().StringVar(&flagCfg.Addr, "addr", def.Addr, "http server address")
	serveCmd.Flags().StringVar(&flagCfg.Root, "root", def.Root, "Directory holding index.html, message.html and other static files")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(postCmd)
	rootCmd.AddCommand(listCmd)

	if err := rootCmd.Execute(); err != nil {
		logger.Error("Command failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}
