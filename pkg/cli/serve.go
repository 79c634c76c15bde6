package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/notelens/notelens/pkg/cli/config"
	httpctrl "github.com/notelens/notelens/pkg/controller/http"
	"github.com/notelens/notelens/pkg/service/embedding"
	"github.com/notelens/notelens/pkg/service/syncer"
	"github.com/notelens/notelens/pkg/service/worker"
	"github.com/notelens/notelens/pkg/usecase"
	"github.com/notelens/notelens/pkg/utils/logging"
)

func cmdServe() *cli.Command {
	var addr string
	var repoCfg config.Repository
	var geminiCfg config.Gemini
	var authCfg config.Auth
	var chatCfg config.Chat

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("NOTELENS_ADDR"),
			Destination: &addr,
		},
	}

	// Add shared config flags
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, geminiCfg.Flags()...)
	flags = append(flags, authCfg.Flags()...)
	flags = append(flags, chatCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := chatCfg.Configure(c); err != nil {
				return goerr.Wrap(err, "failed to load chat configuration")
			}

			// Initialize repository based on backend type
			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logging.Default().Error("failed to close repository", "error", err.Error())
				}
			}()

			// Configure authentication
			authUC, err := authCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to configure authentication")
			}
			if authUC.IsNoAuthn() {
				logging.Default().Warn("Running in no-auth mode (development only)")
			} else {
				logging.Default().Info("Token verification enabled", "auth", &authCfg)
			}

			// One Gemini client serves both chat and embedding
			llmClient, err := geminiCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to configure Gemini client")
			}

			embedder, err := embedding.New(llmClient,
				embedding.WithTimeout(chatCfg.EmbeddingTimeout()))
			if err != nil {
				return goerr.Wrap(err, "failed to configure embedder")
			}
			sync := syncer.New(repo, embedder)

			uc := usecase.New(repo, llmClient, embedder, sync,
				usecase.WithAuth(authUC),
				usecase.WithChatOptions(
					usecase.WithHistoryWindow(chatCfg.HistoryWindow()),
					usecase.WithTurnTimeout(chatCfg.TurnTimeout()),
				),
			)

			// Re-index notes that lost their chunks to a failed sync
			resyncWorker := worker.NewResyncWorker(repo, sync, chatCfg.ResyncInterval())
			if err := resyncWorker.Start(ctx); err != nil {
				return goerr.Wrap(err, "failed to start resync worker")
			}

			httpHandler := httpctrl.New(uc.Chat, uc.Notes, httpctrl.WithAuth(authUC))
			server := &http.Server{
				Addr:              addr,
				Handler:           httpHandler,
				ReadHeaderTimeout: 30 * time.Second,
			}

			// Setup signal handling for graceful shutdown
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			// Start server in goroutine
			errCh := make(chan error, 1)
			go func() {
				logging.Default().Info("Starting HTTP server", "addr", addr)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			// Wait for shutdown signal or server error
			select {
			case err := <-errCh:
				resyncWorker.Stop()
				return err
			case sig := <-sigCh:
				logging.Default().Info("Received shutdown signal", "signal", sig)

				resyncWorker.Stop()

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}

				logging.Default().Info("Server shutdown completed")
				return nil
			}
		},
	}
}
