package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/devinmiller/Identity/internal/config"
	"github.com/devinmiller/Identity/internal/http/server"
	"github.com/devinmiller/Identity/internal/observability/logger"
	"github.com/devinmiller/Identity/internal/security/password"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	var cfgPath = envOr("IDENTITY_CONFIG", "config.yaml")

	root := &cobra.Command{
		Use:           "identity",
		Short:         "Servidor de interacción (login, logout, registro) del IdP",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", cfgPath, "Ruta del config.yaml (env IDENTITY_CONFIG)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Levanta el servidor HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), cfgPath)
		},
	}

	checkCmd := &cobra.Command{
		Use:   "check-config",
		Short: "Valida el config y sale",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := loadConfig(cfgPath); err != nil {
				return err
			}
			fmt.Println("ok")
			return nil
		},
	}

	// hash-password: genera el PHC argon2id para users[].password_hash
	var fromStdin bool
	hashCmd := &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Genera un hash argon2id para sembrar usuarios",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var plain string
			switch {
			case fromStdin:
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("leyendo stdin: %w", err)
				}
				plain = strings.TrimRight(line, "\r\n")
			case len(args) == 1:
				plain = args[0]
			default:
				return errors.New("password requerido (argumento o --stdin)")
			}
			phc, err := password.Hash(password.Default, plain)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), phc)
			return nil
		},
	}
	hashCmd.Flags().BoolVar(&fromStdin, "stdin", false, "Leer el password de stdin")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Imprime la versión",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}

	root.AddCommand(serveCmd, checkCmd, hashCmd, versionCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	// .env es opcional; las variables del sistema siguen valiendo
	_ = godotenv.Load()

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config inválido: %w", err)
	}
	return cfg, nil
}

func serve(ctx context.Context, cfgPath string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return err
	}

	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level, ServiceName: "identity"})
	defer func() { _ = logger.Sync() }()
	log := logger.L()
	ctx = logger.ToContext(ctx, log)

	app, err := server.Build(ctx, cfg, server.Options{Version: version})
	if err != nil {
		log.Error("wiring failed", logger.Err(err))
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Warn("cleanup error", logger.Err(err))
		}
	}()

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           app.Handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", logger.String("addr", cfg.Server.Addr), logger.String("version", version))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(sctx)
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
