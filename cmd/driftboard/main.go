package main

import (
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/otavio/driftboard/internal/db"
	"github.com/otavio/driftboard/internal/wire"
)

var (
	serverHost string
	authToken  string
	dbURL      string
	pool       *pgxpool.Pool
)

var rootCmd = &cobra.Command{
	Use:   "driftboard",
	Short: "Kanban + calendar task planning over a realtime channel",
	Long:  "Driftboard keeps a partitioned task board in sync with a server over a websocket channel, and ships the dev server for it.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverHost, "server", "", "server host (overrides DRIFTBOARD_SERVER)")
	rootCmd.PersistentFlags().StringVar(&authToken, "token", "", "auth token (overrides DRIFTBOARD_TOKEN)")
	rootCmd.PersistentFlags().StringVar(&dbURL, "db", "", "database URL (overrides DATABASE_URL)")
}

// channelURL derives the websocket URL from flag, env, or the local default.
func channelURL() (string, error) {
	host := serverHost
	if host == "" {
		host = os.Getenv("DRIFTBOARD_SERVER")
	}
	if host == "" {
		host = "localhost:8437"
	}
	url, err := wire.SocketURL(host)
	if err != nil {
		return "", err
	}
	if token := getToken(); token != "" {
		url += "?token=" + token
	}
	return url, nil
}

func getToken() string {
	if authToken != "" {
		return authToken
	}
	return os.Getenv("DRIFTBOARD_TOKEN")
}

// connectDB initializes the pool. Call from subcommands that need storage.
func connectDB() error {
	url := dbURL
	if url == "" {
		url = os.Getenv("DATABASE_URL")
	}
	if url == "" {
		return fmt.Errorf("DATABASE_URL not set (use --db flag or .env)")
	}

	var err error
	pool, err = db.Connect(url)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	return nil
}

// quietLogger keeps protocol chatter out of interactive output.
func quietLogger() *log.Logger {
	return log.New(os.Stderr, "", 0)
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}

	if pool != nil {
		pool.Close()
	}
}
