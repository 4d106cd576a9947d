// Command careadm runs database maintenance tasks: migrations, demo data and
// account bootstrapping.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/unihealth/care-api/internal/config"
	"github.com/unihealth/care-api/internal/model"
	"github.com/unihealth/care-api/internal/repository/postgres"
	"github.com/unihealth/care-api/pkg/logger"
	"github.com/unihealth/care-api/pkg/security"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:          "careadm",
		Short:        "Care API administration",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.NewLogger(nil).SetGlobal()
		},
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a config file")

	rootCmd.AddCommand(migrateCmd(&configPath))
	rootCmd.AddCommand(seedCmd(&configPath))
	rootCmd.AddCommand(createUserCmd(&configPath))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func migrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB(*configPath)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := postgres.Migrate(cmd.Context(), db); err != nil {
				return err
			}
			log.Info().Msg("schema applied")
			return nil
		},
	}
}

func createUserCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create an account with any role",
		RunE: func(cmd *cobra.Command, args []string) error {
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")
			roleName, _ := cmd.Flags().GetString("role")

			role, err := model.ParseRole(roleName)
			if err != nil {
				return err
			}
			db, err := openDB(*configPath)
			if err != nil {
				return err
			}
			defer db.Close()

			repos := postgres.NewRepositories(db, nil)
			user, err := createUser(cmd.Context(), repos, security.NewBcryptHasher(0), email, password, role)
			if err != nil {
				return err
			}
			log.Info().Int64("user_id", user.ID).Str("email", user.Email).Str("role", string(user.Role)).Msg("user created")
			return nil
		},
	}
	cmd.Flags().String("email", "", "login email")
	cmd.Flags().String("password", "", "initial password (min 8 characters)")
	cmd.Flags().String("role", string(model.RoleAdmin), "patient, nurse, admin or auditor")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func seedCmd(configPath *string) *cobra.Command {
	var opts seedOptions
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert catalogs plus fake staff, patients and availability",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB(*configPath)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := postgres.Migrate(cmd.Context(), db); err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()

			summary, err := seed(ctx, postgres.NewRepositories(db, nil), security.NewBcryptHasher(0), opts)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), summary)
			return nil
		},
	}
	cmd.Flags().IntVar(&opts.Nurses, "nurses", 3, "number of nurses")
	cmd.Flags().IntVar(&opts.Patients, "patients", 20, "number of patients")
	cmd.Flags().StringVar(&opts.Password, "password", "changeme123", "password for every seeded account")
	cmd.Flags().Int64Var(&opts.Seed, "seed", 0, "random seed (0 picks one)")
	return cmd
}

func openDB(configPath string) (*sqlx.DB, error) {
	cfg, err := config.Read(configPath)
	if err != nil {
		return nil, err
	}
	return postgres.NewDB(cfg.Database)
}
