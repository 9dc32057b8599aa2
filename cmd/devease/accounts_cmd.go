package main

import (
	"fmt"

	"github.com/devease/devease/internal/api"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "Administer user accounts",
}

var accountsPendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List accounts awaiting approval",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, token, err := adminClient()
		if err != nil {
			return err
		}
		accounts, err := client.PendingAccounts(token)
		if err != nil {
			return err
		}
		if len(accounts) == 0 {
			fmt.Println("No accounts awaiting approval.")
			return nil
		}
		for _, acct := range accounts {
			fmt.Printf("%-30s %s\n", acct.Email, acct.Username)
		}
		return nil
	},
}

var accountsApproveCmd = &cobra.Command{
	Use:   "approve <email>",
	Short: "Approve a pending account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, token, err := adminClient()
		if err != nil {
			return err
		}
		if err := client.ApproveAccount(token, args[0]); err != nil {
			return err
		}
		fmt.Printf("Approved %s\n", args[0])
		return nil
	},
}

// adminClient obtains an admin token, either directly from config or by
// logging in with admin credentials.
func adminClient() (*api.Client, string, error) {
	client := api.New(viper.GetString("api"))

	if token := viper.GetString("token"); token != "" {
		return client, token, nil
	}

	email := viper.GetString("admin_email")
	password := viper.GetString("admin_password")
	if email == "" || password == "" {
		return nil, "", fmt.Errorf("set DEVEASE_TOKEN, or DEVEASE_ADMIN_EMAIL and DEVEASE_ADMIN_PASSWORD")
	}
	result, err := client.Login(email, password)
	if err != nil {
		return nil, "", err
	}
	return client, result.Token, nil
}

func init() {
	accountsCmd.AddCommand(accountsPendingCmd)
	accountsCmd.AddCommand(accountsApproveCmd)
}
