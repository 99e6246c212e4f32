package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/bugtriage/internal/logging"
	"github.com/ShayCichocki/bugtriage/internal/metrics"
	"github.com/ShayCichocki/bugtriage/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the triage HTTP API",
	Long: `Serve the triage HTTP API.

Endpoints:
  POST   /api/triage          triage a report, store and return the result
  GET    /api/results         list stored results, newest first (?limit, ?offset)
  GET    /api/results/count   number of stored results
  GET    /api/results/{id}    one stored result
  DELETE /api/results/{id}    delete a stored result
  GET    /healthz             liveness
  GET    /metrics             Prometheus metrics`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides server.addr)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	m := metrics.New()
	engine, err := buildEngine(cfg, st, m)
	if err != nil {
		return err
	}

	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	srv := server.New(engine, st,
		server.WithMetrics(m),
		server.WithLogger(logging.New("server")),
	)
	return srv.ListenAndServe(ctx, server.Config{
		Addr:         addr,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	})
}
