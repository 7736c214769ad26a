package cli

import (
	"fmt"

	"libcirc/internal/usecase/commands"

	"github.com/spf13/cobra"
)

func newRegisterCommand(cmds commands.LendingCommands) *cobra.Command {
	return &cobra.Command{
		Use:   "register <username>",
		Short: "Register a new member account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := cmds.RegisterAccount(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "registered %s\n", a.Username())
			return nil
		},
	}
}

func newAddResourceCommand(cmds commands.LendingCommands) *cobra.Command {
	return &cobra.Command{
		Use:   "add-resource <id> <title> <author>",
		Short: "Add a catalog entry",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := cmds.AddResource(cmd.Context(), args[0], args[1], args[2])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added resource %s: %s by %s\n", r.ID(), r.Title(), r.Author())
			return nil
		},
	}
}

func newAddCopyCommand(cmds commands.LendingCommands) *cobra.Command {
	return &cobra.Command{
		Use:   "add-copy <resource>",
		Short: "Add a copy of a resource",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := cmds.AddCopy(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added copy %s\n", key)
			return nil
		},
	}
}

func newIssueCommand(cmds commands.LendingCommands) *cobra.Command {
	return &cobra.Command{
		Use:   "issue <username> <resource> <copy#>",
		Short: "Check a copy out to a user",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := parseCopyArgs(args[1], args[2])
			if err != nil {
				return err
			}
			tx, err := cmds.Issue(cmd.Context(), args[0], key)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "issued %s to %s (transaction %s)\n", key, args[0], tx.ID())
			return nil
		},
	}
}

func newReturnCommand(cmds commands.LendingCommands) *cobra.Command {
	return &cobra.Command{
		Use:   "return <resource> <copy#>",
		Short: "Return a copy, settling any overdue charge",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := parseCopyArgs(args[0], args[1])
			if err != nil {
				return err
			}
			if err := cmds.Return(cmd.Context(), key); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "returned %s\n", key)
			return nil
		},
	}
}

func newReserveCommand(cmds commands.LendingCommands) *cobra.Command {
	return &cobra.Command{
		Use:   "reserve <username> <resource> <copy#>",
		Short: "Hold an available copy for a user",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := parseCopyArgs(args[1], args[2])
			if err != nil {
				return err
			}
			if _, err := cmds.Reserve(cmd.Context(), key, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "reserved %s for %s\n", key, args[0])
			return nil
		},
	}
}

func newCancelHoldCommand(cmds commands.LendingCommands) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel-hold <resource> <copy#>",
		Short: "Cancel a reservation on a copy",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := parseCopyArgs(args[0], args[1])
			if err != nil {
				return err
			}
			if err := cmds.CancelReservation(cmd.Context(), key); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cancelled hold on %s\n", key)
			return nil
		},
	}
}

func newRequestCommand(cmds commands.LendingCommands) *cobra.Command {
	return &cobra.Command{
		Use:   "request <username> <resource>",
		Short: "Queue a user for the next free copy of a resource",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cmds.Request(cmd.Context(), args[1], args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "queued %s for %s\n", args[0], args[1])
			return nil
		},
	}
}

func newCancelRequestCommand(cmds commands.LendingCommands) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel-request <username> <resource>",
		Short: "Withdraw a queued request",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cmds.CancelRequest(cmd.Context(), args[1], args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cancelled request of %s for %s\n", args[0], args[1])
			return nil
		},
	}
}

func newPayCommand(cmds commands.LendingCommands) *cobra.Command {
	return &cobra.Command{
		Use:   "pay <username> <cents>",
		Short: "Record a payment against a user's balance",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cents, err := parseCents(args[1])
			if err != nil {
				return err
			}
			if err := cmds.MakePayment(cmd.Context(), args[0], cents); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "payment of %d cents recorded for %s\n", cents, args[0])
			return nil
		},
	}
}

func newFineCommand(cmds commands.LendingCommands) *cobra.Command {
	return &cobra.Command{
		Use:   "fine <username> <resource> <copy#> <cents> <days-overdue>",
		Short: "Record a manual fine against a user",
		Args:  cobra.ExactArgs(5),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := parseCopyArgs(args[1], args[2])
			if err != nil {
				return err
			}
			cents, err := parseCents(args[3])
			if err != nil {
				return err
			}
			days, err := parseCents(args[4])
			if err != nil {
				return err
			}
			if err := cmds.AddFine(cmd.Context(), args[0], cents, key, int(days)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "fine of %d cents recorded for %s\n", cents, args[0])
			return nil
		},
	}
}

func newPromoteCommand(cmds commands.LendingCommands) *cobra.Command {
	return &cobra.Command{
		Use:   "promote <username>",
		Short: "Grant the staff role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			staffNumber, err := cmds.PromoteStaff(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now staff #%d\n", args[0], staffNumber)
			return nil
		},
	}
}

func newDemoteCommand(cmds commands.LendingCommands) *cobra.Command {
	return &cobra.Command{
		Use:   "demote <username>",
		Short: "Revoke the staff role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cmds.DemoteStaff(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now a member\n", args[0])
			return nil
		},
	}
}
