package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/otavio/driftboard/internal/board"
	"github.com/otavio/driftboard/internal/sync"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow the reconciled board state (headless client)",
	RunE: func(cmd *cobra.Command, args []string) error {
		url, err := channelURL()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		logger := log.New(os.Stderr, "watch: ", log.Ltime)
		session := sync.NewSession(url, logger, func(msg string) {
			logger.Printf("server error: %s", msg)
		})
		session.OnChange = func() {
			s := session.Store
			fmt.Printf("[%s] braindump=%d backlog=%d archive=%d board=%d total=%d\n",
				session.Status(),
				len(s.Tasks(board.BucketBraindump)),
				len(s.Tasks(board.BucketBacklog)),
				len(s.Tasks(board.BucketArchive)),
				boardCount(s),
				s.Len())
		}

		if err := session.Start(ctx); err != nil {
			return fmt.Errorf("connecting: %w", err)
		}
		<-ctx.Done()
		session.Stop()
		return nil
	},
}

func boardCount(s *board.Store) int {
	n := 0
	for _, d := range s.Window().Dates() {
		n += len(s.Tasks(board.DayBucket(d)))
	}
	return n
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
