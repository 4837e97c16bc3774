package main

import (
	"github.com/spf13/cobra"

	"github.com/otavio/driftboard/internal/db"
	"github.com/otavio/driftboard/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the task server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := connectDB(); err != nil {
			return err
		}
		if err := db.Migrate(pool); err != nil {
			return err
		}

		srv := server.New(server.Config{
			Addr:  serveAddr,
			Token: getToken(),
			Pool:  pool,
		})
		return srv.Start()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8437", "listen address")
	rootCmd.AddCommand(serveCmd)
}
