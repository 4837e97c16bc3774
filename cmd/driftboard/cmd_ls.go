package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/otavio/driftboard/internal/board"
	"github.com/otavio/driftboard/internal/task"
	"github.com/otavio/driftboard/internal/wire"
	"github.com/otavio/driftboard/internal/ws"
)

var lsJSON bool

var lsCmd = &cobra.Command{
	Use:   "ls",
	Short: "Table view of the current board window",
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

		w := board.NewWindow(time.Now())
		adapter.Send(wire.ActionFetchTasks, wire.FetchPayload{
			StartDate: w.First(),
			EndDate:   w.Last(),
		})

		for {
			select {
			case <-ctx.Done():
				return fmt.Errorf("timed out waiting for task list")
			case msg := <-adapter.Inbound():
				if msg.Type != wire.TypeTasksList {
					continue
				}
				tasks, err := msg.TaskList()
				if err != nil {
					return err
				}
				return printTasks(tasks)
			}
		}
	},
}

func printTasks(tasks []*task.Task) error {
	if lsJSON {
		return json.NewEncoder(os.Stdout).Encode(tasks)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tDATE\tORD\tDONE\tTITLE")
	for _, t := range tasks {
		done := ""
		if t.Completed {
			done = "x"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\t%s\n",
			t.ID, t.Status, t.ColumnDate, t.Order, done, t.Title)
	}
	return tw.Flush()
}

func init() {
	lsCmd.Flags().BoolVar(&lsJSON, "json", false, "output JSON")
	rootCmd.AddCommand(lsCmd)
}
