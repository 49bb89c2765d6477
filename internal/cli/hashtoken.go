package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/gridsync/internal/syncd"
)

// NewHashTokenCommand creates the hash-token command.
func NewHashTokenCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hash-token <token>",
		Short: "Hash a device token for the server config",
		Long: `Hash a device token. Put the output under TokenHashes in the
[Syncd] config section; devices present the raw token as their bearer
credential.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := syncd.HashToken(args[0])
			if err != nil {
				return WrapExitError(ExitFailure, "hash token", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
	return cmd
}
