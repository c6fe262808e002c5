package cli

import (
	"github.com/spf13/cobra"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage your guest identity",
	}

	cmd.AddCommand(newUserGuestCmd())
	cmd.AddCommand(newUserMeCmd())
	cmd.AddCommand(newUserLogoutCmd())

	return cmd
}

func newUserGuestCmd() *cobra.Command {
	var avatar string
	var noSave bool

	cmd := &cobra.Command{
		Use:   "guest <display-name>",
		Short: "Sign in as a guest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{
				"display_name": args[0],
			}
			if avatar != "" {
				req["avatar_url"] = avatar
			}

			var result AuthResult
			if err := client.Post("/api/v1/users/guest", req, &result); err != nil {
				return err
			}

			if !noSave {
				if err := cfg.SaveToken(result.SessionToken); err != nil {
					return err
				}
			}

			output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&avatar, "avatar", "", "Avatar URL")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "Don't save the token to the token file")

	return cmd
}

func newUserMeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result User
			if err := client.Get("/api/v1/users/me", &result); err != nil {
				return err
			}
			output(cmd).Print(result)
			return nil
		},
	}
}

func newUserLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Post("/api/v1/users/logout", nil, nil); err != nil {
				return err
			}
			if err := cfg.ClearToken(); err != nil {
				return err
			}
			output(cmd).PrintMessage("Logged out")
			return nil
		},
	}
}
