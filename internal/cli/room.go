package cli

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"
)

func newRoomCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "room",
		Short: "Room operations",
	}

	cmd.AddCommand(newRoomListCmd())
	cmd.AddCommand(newRoomCreateCmd())
	cmd.AddCommand(newRoomGetCmd())
	cmd.AddCommand(newRoomCurrentCmd())
	cmd.AddCommand(newRoomJoinCmd())
	cmd.AddCommand(newRoomLeaveCmd())
	cmd.AddCommand(newRoomDeleteCmd())
	cmd.AddCommand(newRoomKickCmd())
	cmd.AddCommand(newRoomAddBotCmd())

	return cmd
}

func roomPath(id string, suffix string) string {
	return "/api/v1/rooms/" + url.PathEscape(id) + suffix
}

// resolveRoom returns the room ID from args, falling back to the caller's
// current room
func resolveRoom(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}

	var current CurrentRoom
	if err := client.Get("/api/v1/rooms/current", &current); err != nil {
		return "", err
	}
	if current.Room == nil {
		return "", errors.New("not in a room; pass a room ID")
	}
	return current.Room.ID, nil
}

func newRoomListCmd() *cobra.Command {
	var page, pageSize int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List waiting rooms",
		RunE: func(cmd *cobra.Command, args []string) error {
			query := url.Values{}
			if page > 0 {
				query.Set("page", strconv.Itoa(page))
			}
			if pageSize > 0 {
				query.Set("page_size", strconv.Itoa(pageSize))
			}
			path := "/api/v1/rooms"
			if len(query) > 0 {
				path += "?" + query.Encode()
			}

			var result RoomPage
			if err := client.Get(path, &result); err != nil {
				return err
			}
			output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 0, "Page number (1-based)")
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "Rooms per page")

	return cmd
}

func newRoomCreateCmd() *cobra.Command {
	var maxPlayers int

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a room and become its host",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]any{
				"name":        args[0],
				"max_players": maxPlayers,
			}

			var result Room
			if err := client.Post("/api/v1/rooms", req, &result); err != nil {
				return err
			}
			output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().IntVar(&maxPlayers, "max-players", 4, "Maximum number of players")

	return cmd
}

func newRoomGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <room-id>",
		Short: "Show a room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Room
			if err := client.Get(roomPath(args[0], ""), &result); err != nil {
				return err
			}
			output(cmd).Print(result)
			return nil
		},
	}
}

func newRoomCurrentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "current",
		Short: "Show the room you are in",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result CurrentRoom
			if err := client.Get("/api/v1/rooms/current", &result); err != nil {
				return err
			}
			output(cmd).Print(result)
			return nil
		},
	}
}

func newRoomJoinCmd() *cobra.Command {
	var byID bool

	cmd := &cobra.Command{
		Use:   "join <invite-code>",
		Short: "Join a room by invite code, or by ID with --id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Room
			var err error
			if byID {
				err = client.Post(roomPath(args[0], "/join"), nil, &result)
			} else {
				req := map[string]string{"invite_code": args[0]}
				err = client.Post("/api/v1/rooms/join", req, &result)
			}
			if err != nil {
				return err
			}
			output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().BoolVar(&byID, "id", false, "Treat the argument as a room ID")

	return cmd
}

func newRoomLeaveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "leave",
		Short: "Leave your current room",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result LeaveResult
			if err := client.Post("/api/v1/rooms/leave", nil, &result); err != nil {
				return err
			}
			output(cmd).Print(result)
			return nil
		},
	}
}

func newRoomDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [room-id]",
		Short: "Delete a room you host",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveRoom(args)
			if err != nil {
				return err
			}
			if err := client.Delete(roomPath(id, "")); err != nil {
				return err
			}
			output(cmd).PrintMessage(fmt.Sprintf("Room %s deleted", id))
			return nil
		},
	}
}

func newRoomKickCmd() *cobra.Command {
	var roomID string

	cmd := &cobra.Command{
		Use:   "kick <member-id>",
		Short: "Remove a member from a room you host",
		Long: `Remove a member from a room you host.

Member IDs have the form human:<id> or bot:<id>, as shown by "room get".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveRoom(optional(roomID))
			if err != nil {
				return err
			}

			req := map[string]string{"member_id": args[0]}
			var result Room
			if err := client.Post(roomPath(id, "/kick"), req, &result); err != nil {
				return err
			}
			output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&roomID, "room", "", "Room ID (defaults to your current room)")

	return cmd
}

func newRoomAddBotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add-bot [room-id]",
		Short: "Add a bot player to a room you host",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveRoom(args)
			if err != nil {
				return err
			}

			var result Room
			if err := client.Post(roomPath(id, "/bots"), nil, &result); err != nil {
				return err
			}
			output(cmd).Print(result)
			return nil
		},
	}
}

func optional(s string) []string {
	if s == "" {
		return nil
	}
	return []string{s}
}
