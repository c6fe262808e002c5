package cli

import (
	"github.com/spf13/cobra"
)

func newGameCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "game",
		Short: "Game setup operations",
		Long: `Game setup operations. Every subcommand takes an optional room ID
and defaults to the room you are currently in.`,
	}

	cmd.AddCommand(newRoomActionCmd("start", "Move a full room into game setup (host only)", "/start"))
	cmd.AddCommand(newGameConfigsCmd())
	cmd.AddCommand(newGameConfigCmd())
	cmd.AddCommand(newGameReadyCmd())
	cmd.AddCommand(newRoomActionCmd("cancel-ready", "Withdraw your ready flag", "/cancel-ready"))
	cmd.AddCommand(newRoomActionCmd("stop", "Abort setup and return to waiting (host only)", "/stop-game"))
	cmd.AddCommand(newGameBeginCmd())

	return cmd
}

// newRoomActionCmd builds a body-less POST returning the room snapshot
func newRoomActionCmd(use, short, suffix string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " [room-id]",
		Short: short,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveRoom(args)
			if err != nil {
				return err
			}

			var result Room
			if err := client.Post(roomPath(id, suffix), nil, &result); err != nil {
				return err
			}
			output(cmd).Print(result)
			return nil
		},
	}
}

func newGameConfigsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "configs [room-id]",
		Short: "Show every player's configuration",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveRoom(args)
			if err != nil {
				return err
			}

			var result RoomConfigs
			if err := client.Get(roomPath(id, "/configs"), &result); err != nil {
				return err
			}
			output(cmd).Print(result)
			return nil
		},
	}
}

func newGameConfigCmd() *cobra.Command {
	var civ, color string

	cmd := &cobra.Command{
		Use:   "config [room-id]",
		Short: "Choose your civilization and color",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveRoom(args)
			if err != nil {
				return err
			}

			req := map[string]string{}
			if civ != "" {
				req["civilization"] = civ
			}
			if color != "" {
				req["color"] = color
			}

			var result Room
			if err := client.Post(roomPath(id, "/config"), req, &result); err != nil {
				return err
			}
			output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&civ, "civ", "", "Civilization")
	cmd.Flags().StringVar(&color, "color", "", "Color")
	cmd.MarkFlagsOneRequired("civ", "color")

	return cmd
}

func newGameReadyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ready [room-id]",
		Short: "Mark yourself ready",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveRoom(args)
			if err != nil {
				return err
			}

			var result ReadyResult
			if err := client.Post(roomPath(id, "/ready"), nil, &result); err != nil {
				return err
			}
			output(cmd).Print(result)
			return nil
		},
	}
}

func newGameBeginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "begin [room-id]",
		Short: "Launch the game once everyone is ready (host only)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveRoom(args)
			if err != nil {
				return err
			}

			var result GameLaunch
			if err := client.Post(roomPath(id, "/begin"), nil, &result); err != nil {
				return err
			}
			output(cmd).Print(result)
			return nil
		},
	}
}
