package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iliyamo/cleaning-booking/internal/jobs"
)

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete expired or revoked refresh tokens and spent reset tokens",
	RunE:  runPurge,
}

func init() {
	rootCmd.AddCommand(purgeCmd)
}

func runPurge(cmd *cobra.Command, args []string) error {
	env, err := openEnv()
	if err != nil {
		return err
	}
	defer env.close()

	res, err := jobs.NewCleanupJob(env.db, env.cfg.Cleanup, env.log).RunOnce(cmd.Context())
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %d refresh tokens and %d reset tokens.\n", res.RefreshTokens, res.ResetTokens)
	return err
}
