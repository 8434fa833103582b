package commands

import (
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"audiogate-backend/lib/accountstore"
	"audiogate-backend/lib/serviceutil"
)

func init() {
	accountsCmd.AddCommand(accountsListCmd)
	accountsCmd.AddCommand(accountsAddCmd)
	accountsCmd.AddCommand(accountsRemoveCmd)
	rootCmd.AddCommand(accountsCmd)
}

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "Manages the pool of scraping accounts.",
}

var accountsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Lists the accounts in the pool.",
	Run: func(cmd *cobra.Command, args []string) {
		accounts := openAccounts(readConfig())
		list, err := accounts.List(cmd.Context())
		if err != nil {
			serviceutil.Fatal("failed to list accounts", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Login"})
		for _, account := range list {
			t.AppendRow(table.Row{account.Login})
		}
		t.Render()
	},
}

var accountsAddCmd = &cobra.Command{
	Use:   "add <login> <password>",
	Short: "Adds an account to the pool, updating the password if it exists.",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		accounts := openAccounts(readConfig())
		err := accounts.Seed(cmd.Context(), []accountstore.Account{
			{Login: args[0], Password: args[1]},
		})
		if err != nil {
			serviceutil.Fatal("failed to add account", err)
		}
	},
}

var accountsRemoveCmd = &cobra.Command{
	Use:   "remove <login>",
	Short: "Removes an account from the pool.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		accounts := openAccounts(readConfig())
		err := accounts.Delete(cmd.Context(), args[0])
		if err != nil {
			serviceutil.Fatal("failed to remove account", err)
		}
	},
}
