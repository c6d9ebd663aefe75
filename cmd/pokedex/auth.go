package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to the catalog service",
	Long:  "Sign in with email and password. The session is stored locally and attached to later requests.",
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")

		session, err := controller.Login(cmd.Context(), email, password)
		if err != nil {
			return err
		}
		fmt.Printf("Signed in as %s (user %d)\n", session.Username, session.UserID)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !controller.Auth().IsAuthenticated() {
			fmt.Println("Not signed in.")
			return nil
		}
		if err := controller.Logout(); err != nil {
			return err
		}
		fmt.Println("Signed out.")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed in user",
	RunE: func(cmd *cobra.Command, args []string) error {
		session := controller.Auth().Session()
		if session == nil || !controller.Auth().IsAuthenticated() {
			fmt.Println("Not signed in.")
			return nil
		}
		fmt.Printf("%s (user %d), signed in %s\n",
			session.Username, session.UserID, session.CreatedAt.Format("2006-01-02 15:04"))
		if exp, ok := controller.Auth().ExpiresAt(); ok {
			fmt.Printf("Token expires %s\n", exp.Local().Format("2006-01-02 15:04"))
		}
		return nil
	},
}

func init() {
	loginCmd.Flags().StringP("email", "e", "", "account email")
	loginCmd.Flags().StringP("password", "p", "", "account password")
	_ = loginCmd.MarkFlagRequired("email")
	_ = loginCmd.MarkFlagRequired("password")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
}
