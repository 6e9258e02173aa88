package cmd

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/linkmark/linkmark/internal/app"
	"github.com/linkmark/linkmark/internal/server"
	"github.com/linkmark/linkmark/pkg/history"
)

var (
	serveAddr   string
	serveSource string
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Short:   "Run the message router",
	Long:    `Serve JSON message actions (checkUrl, importHistory, ...) over HTTP.`,
	GroupID: "store",
	Example: `  linkmark serve
  linkmark serve --addr :9000 --source visits.json`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from LINKMARK_ADDR)")
	serveCmd.Flags().StringVar(&serveSource, "source", "", "JSON visit source for importHistory")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, st := openStore()
	defer st.Close()

	addr := cfg.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	var src history.Source
	if serveSource != "" {
		src = history.FileSource{Path: serveSource}
	}

	svc := app.NewService(st, src, cfg.Window())
	srv := server.New(svc)

	log.Printf("listening on %s (db: %s)", addr, cfg.DBPath)
	return srv.Start(addr)
}
