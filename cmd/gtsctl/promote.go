package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iliyamo/cleaning-booking/internal/model"
	"github.com/iliyamo/cleaning-booking/internal/repository"
)

var promoteCmd = &cobra.Command{
	Use:   "promote",
	Short: "Change the role of an account",
	Long:  "Set the role of the account registered under --email. Roles: CUSTOMER, EMPLOYEE, ADMIN.",
	RunE:  runPromote,
}

var (
	promoteEmail string
	promoteRole  string
)

func init() {
	promoteCmd.Flags().StringVar(&promoteEmail, "email", "", "email of the account")
	promoteCmd.Flags().StringVar(&promoteRole, "role", string(model.RoleAdmin), "role to assign")
	_ = promoteCmd.MarkFlagRequired("email")
	rootCmd.AddCommand(promoteCmd)
}

func runPromote(cmd *cobra.Command, args []string) error {
	role := model.Role(strings.ToUpper(strings.TrimSpace(promoteRole)))
	if !role.Valid() {
		return fmt.Errorf("unknown role %q", promoteRole)
	}

	env, err := openEnv()
	if err != nil {
		return err
	}
	defer env.close()

	err = repository.NewUserRepo(env.db).SetRole(cmd.Context(), promoteEmail, role)
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("no account with email %s", promoteEmail)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s.\n", repository.NormalizeEmail(promoteEmail), role)
	return nil
}
