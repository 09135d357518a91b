/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/patitas-adopcion/apiserver/internal/db"
	"github.com/patitas-adopcion/apiserver/internal/services"
	"github.com/patitas-adopcion/apiserver/internal/store"
	"github.com/patitas-adopcion/apiserver/types"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var adminFlags struct {
	username string
	password string
	role     string
}

// adminCmd represents the admin command
var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage administrator accounts",
}

var adminCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Provision an administrator",
	Long: `Provision an administrator. The password is stored as a bcrypt hash.

	patitas admin create --username ana --password secreto [--role admin]
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if strings.EqualFold(cfg.Database.Driver, "memory") {
			return errors.New("admin create needs a database; DB_DRIVER=memory is not supported")
		}

		dbConn, err := db.Open(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer dbConn.Close()

		auth := services.NewAuthService(store.NewAdministratorRepository(dbConn))
		admin, err := auth.Provision(cmd.Context(), adminFlags.username, adminFlags.password, adminFlags.role)
		if errors.Is(err, store.ErrConflict) {
			return fmt.Errorf("administrator %q already exists", adminFlags.username)
		}
		if err != nil {
			return err
		}

		logger.Info("administrador creado",
			zap.Int("id", admin.ID),
			zap.String("username", admin.Username),
			zap.String("role", admin.Role))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(adminCmd)
	adminCmd.AddCommand(adminCreateCmd)

	adminCreateCmd.Flags().StringVar(&adminFlags.username, "username", "", "login name")
	adminCreateCmd.Flags().StringVar(&adminFlags.password, "password", "", "password")
	adminCreateCmd.Flags().StringVar(&adminFlags.role, "role", types.DefaultAdminRole, "role reported on login")
	_ = adminCreateCmd.MarkFlagRequired("username")
	_ = adminCreateCmd.MarkFlagRequired("password")
}
