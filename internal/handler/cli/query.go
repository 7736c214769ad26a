package cli

import (
	"libcirc/internal/usecase/queries"

	"github.com/spf13/cobra"
)

func newAccountCommand(qs queries.LendingQueries) *cobra.Command {
	return &cobra.Command{
		Use:   "account [username]",
		Short: "Show one account, or all accounts",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				view, err := qs.GetAccount(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd, view)
			}
			views, err := qs.ListAccounts(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, views)
		},
	}
}

func newCatalogCommand(qs queries.LendingQueries) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog [resource]",
		Short: "Show one resource, or the whole catalog",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				view, err := qs.GetResource(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd, view)
			}
			views, err := qs.ListResources(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, views)
		},
	}
}

func newEntriesCommand(qs queries.LendingQueries) *cobra.Command {
	return &cobra.Command{
		Use:   "entries [username]",
		Short: "List fine and payment records, optionally for one user",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			username := ""
			if len(args) == 1 {
				username = args[0]
			}
			views, err := qs.ListEntries(cmd.Context(), username)
			if err != nil {
				return err
			}
			return printJSON(cmd, views)
		},
	}
}

func newHistoryCommand(qs queries.LendingQueries) *cobra.Command {
	return &cobra.Command{
		Use:   "history <resource> <copy#>",
		Short: "Show the transaction history of a copy",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := parseCopyArgs(args[0], args[1])
			if err != nil {
				return err
			}
			views, err := qs.CopyHistory(cmd.Context(), key)
			if err != nil {
				return err
			}
			return printJSON(cmd, views)
		},
	}
}
