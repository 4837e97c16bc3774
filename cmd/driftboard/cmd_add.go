package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/otavio/driftboard/internal/task"
	"github.com/otavio/driftboard/internal/wire"
	"github.com/otavio/driftboard/internal/ws"
)

var (
	addDescription string
	addDuration    string
)

var addCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Create a braindump task",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		url, err := channelURL()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
		defer cancel()

		adapter := ws.NewAdapter(url, quietLogger())
		if err := adapter.Open(ctx); err != nil {
			return fmt.Errorf("connecting: %w", err)
		}
		defer adapter.Close()

		t := &task.Task{
			FrontendID:  task.NewFrontendID(),
			Title:       strings.Join(args, " "),
			Description: addDescription,
			Status:      task.StatusBraindump,
			Duration:    task.NormalizeDuration(addDuration),
		}
		adapter.Send(wire.ActionCreateTask, t)

		// Wait for the server's echo carrying our frontend id.
		for {
			select {
			case <-ctx.Done():
				return fmt.Errorf("timed out waiting for server confirmation")
			case msg := <-adapter.Inbound():
				if msg.Type != wire.TypeTaskCreated {
					continue
				}
				created, err := msg.Task()
				if err != nil {
					return err
				}
				if created.FrontendID == t.FrontendID {
					fmt.Printf("Created: %d  %q\n", created.ID, created.Title)
					return nil
				}
			}
		}
	},
}

func init() {
	addCmd.Flags().StringVar(&addDescription, "description", "", "task description")
	addCmd.Flags().StringVar(&addDuration, "duration", "", "duration as HH:MM")
	rootCmd.AddCommand(addCmd)
}
