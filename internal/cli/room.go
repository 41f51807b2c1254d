package cli

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

func newRoomCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "room",
		Short: "Room operations",
	}

	cmd.AddCommand(newRoomNewCmd())
	cmd.AddCommand(newRoomStatusCmd())
	cmd.AddCommand(newRoomHistoryCmd())

	return cmd
}

func newRoomNewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "new",
		Short: "Reserve an unused room code",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result NewRoomResult
			if err := client.Post("/api/v1/rooms", nil, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newRoomStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <room>",
		Short: "Show whether a room exists and how many players it has",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result RoomStatus
			if err := client.Get("/api/v1/rooms/"+url.PathEscape(args[0]), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newRoomHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history <room>",
		Short: "List finished matches in a room, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/v1/rooms/" + url.PathEscape(args[0]) + "/history"
			if limit > 0 {
				path += fmt.Sprintf("?limit=%d", limit)
			}

			var result History
			if err := client.Get(path, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of matches to show")

	return cmd
}
