package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/iliyamo/cleaning-booking/internal/database"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Upsert the service catalog",
	Long: "Upsert categories and services, matched by slug. Without --file the " +
		"built-in catalog is used.",
	RunE: runSeed,
}

var seedFile string

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "", "catalog YAML file to load instead of the built-in one")
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	env, err := openEnv()
	if err != nil {
		return err
	}
	defer env.close()

	var res database.SeedResult
	if seedFile != "" {
		doc, err := os.ReadFile(seedFile)
		if err != nil {
			return fmt.Errorf("read catalog: %w", err)
		}
		res, err = database.SeedCatalogFrom(cmd.Context(), env.db, doc)
		if err != nil {
			return err
		}
	} else {
		res, err = database.SeedCatalog(cmd.Context(), env.db)
		if err != nil {
			return err
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d categories and %d services.\n", res.Categories, res.Services)
	return nil
}
