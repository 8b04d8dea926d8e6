package commands

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aita-solution/qper-threads-correct/pkg/chatcore"
	"github.com/aita-solution/qper-threads-correct/pkg/server"
	"github.com/aita-solution/qper-threads-correct/pkg/upload"
)

var (
	serveAddr    string
	servePath    string
	serveOrigins []string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the websocket bridge for browser clients",
	Long: `Serve a websocket endpoint that browser front ends use to chat. Every
connection gets its own conversation. Inline attachments are limited to 5MB
and jpeg, png, pdf or doc.

Endpoints:
  GET /ws       websocket (submit, transcribe, reset, ping)
  GET /healthz  health check

Examples:
  qper serve --addr :8080
  qper serve --allow-origin https://chat.example.com`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := getContext()
		if err != nil {
			return err
		}

		client := createClient(ctx)
		cache, err := openUploadCache(ctx)
		if err != nil {
			return err
		}
		if cache != nil {
			defer cache.Close()
		}
		arch, err := createArchiver(ctx)
		if err != nil {
			return err
		}
		transcriber := createTranscriber(ctx)

		srv, err := server.New(server.Config{
			NewSession: func(context.Context) (*server.Session, error) {
				coord := createCoordinator(client, cache, upload.CompactLimits)
				orch, err := createOrchestrator(ctx, client, coord)
				if err != nil {
					return nil, err
				}
				core, err := chatcore.New(chatcore.Config{
					Orchestrator: orch,
					Coordinator:  coord,
					Transcriber:  transcriber,
					Archive:      arch,
					Logger:       slog.Default(),
				})
				if err != nil {
					orch.Close()
					return nil, err
				}
				return &server.Session{Core: core, Release: func() { orch.Close() }}, nil
			},
			Limits:         upload.CompactLimits,
			Path:           servePath,
			AllowedOrigins: serveOrigins,
			Logger:         slog.Default(),
		})
		if err != nil {
			return err
		}

		sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return srv.ListenAndServe(sigCtx, serveAddr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address")
	serveCmd.Flags().StringVar(&servePath, "path", server.DefaultPath, "websocket path")
	serveCmd.Flags().StringSliceVar(&serveOrigins, "allow-origin", nil, "allowed browser origin (repeatable, default any)")
}
