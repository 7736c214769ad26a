package cli

import (
	"encoding/json"
	"strconv"

	"libcirc/internal/domain/catalog"
	"libcirc/internal/pkg/errs"
	"libcirc/internal/usecase/commands"
	"libcirc/internal/usecase/queries"

	"github.com/spf13/cobra"
)

// NewRootCommand builds the command tree for the single-actor circulation
// desk. Every subcommand is one engine operation; output is JSON views on
// stdout.
func NewRootCommand(cmds commands.LendingCommands, qs queries.LendingQueries) *cobra.Command {
	root := &cobra.Command{
		Use:           "libcirc",
		Short:         "Library circulation engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newRegisterCommand(cmds),
		newAddResourceCommand(cmds),
		newAddCopyCommand(cmds),
		newIssueCommand(cmds),
		newReturnCommand(cmds),
		newReserveCommand(cmds),
		newCancelHoldCommand(cmds),
		newRequestCommand(cmds),
		newCancelRequestCommand(cmds),
		newPayCommand(cmds),
		newFineCommand(cmds),
		newPromoteCommand(cmds),
		newDemoteCommand(cmds),
		newAccountCommand(qs),
		newCatalogCommand(qs),
		newEntriesCommand(qs),
		newHistoryCommand(qs),
	)
	return root
}

func parseCopyArgs(resourceID, rawNumber string) (catalog.CopyKey, error) {
	number, err := strconv.Atoi(rawNumber)
	if err != nil {
		return catalog.CopyKey{}, errs.Wrapf(err, "copy number %q", rawNumber)
	}
	return catalog.CopyKey{ResourceID: resourceID, Number: number}, nil
}

func parseCents(raw string) (int64, error) {
	cents, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, errs.Wrapf(err, "amount %q", raw)
	}
	return cents, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
