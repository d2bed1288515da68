// Command admin is the operator CLI: schema migrations, role grants and
// email verification.
package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"ecoaceite/internal/config"
	"ecoaceite/internal/database"
	apperrors "ecoaceite/internal/errors"
	"ecoaceite/internal/logger"
	"ecoaceite/internal/models"
	"ecoaceite/internal/services"
)

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "admin",
		Short:         "Ecoaceite operator tasks",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newMigrateCmd(), newGrantRoleCmd(), newVerifyEmailCmd())
	return root
}

// openManager loads configuration and connects to the database.
func openManager() (*database.Manager, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return database.NewManager(database.NewConfig(cfg))
}

func newMigrateCmd() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := openManager()
			if err != nil {
				return err
			}
			defer m.Close()
			if err := m.RunMigrations(); err != nil {
				return err
			}
			cmd.Println("Migrations applied successfully")
			return nil
		},
	}

	down := &cobra.Command{
		Use:   "down [N]",
		Short: "Roll back N migrations (default 1)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			steps := 1
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil || n < 1 {
					return fmt.Errorf("invalid step count %q", args[0])
				}
				steps = n
			}
			m, err := openManager()
			if err != nil {
				return err
			}
			defer m.Close()
			if err := m.MigrateDown(steps); err != nil {
				return err
			}
			cmd.Printf("Rolled back %d migration(s)\n", steps)
			return nil
		},
	}

	version := &cobra.Command{
		Use:   "version",
		Short: "Print the applied schema version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := openManager()
			if err != nil {
				return err
			}
			defer m.Close()
			v, dirty, err := m.MigrationVersion()
			if err != nil {
				return err
			}
			cmd.Printf("Version: %d, Dirty: %v\n", v, dirty)
			return nil
		},
	}

	migrateCmd.AddCommand(up, down, version)
	return migrateCmd
}

func newGrantRoleCmd() *cobra.Command {
	var email, role, uid string

	cmd := &cobra.Command{
		Use:   "grant-role",
		Short: "Grant a role to an account",
		Long: `Sets the role of the account registered with --email.

When no account uses that email yet, or --uid is given, a usuarios entry is
created instead so the role applies on the person's first sign-in.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r := models.Role(role)
			if !r.IsValid() {
				return fmt.Errorf("unknown role %q", role)
			}
			if email == "" && uid == "" {
				return errors.New("--email or --uid is required")
			}

			m, err := openManager()
			if err != nil {
				return err
			}
			defer m.Close()
			if err := m.RunMigrations(); err != nil {
				return err
			}
			return grantRole(cmd, m, email, uid, r)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&role, "role", "", "role to grant")
	cmd.Flags().StringVar(&uid, "uid", "", "identity provider subject")
	_ = cmd.MarkFlagRequired("role")
	return cmd
}

func grantRole(cmd *cobra.Command, m *database.Manager, email, uid string, role models.Role) error {
	if uid == "" {
		user, err := services.NewUserService(m.DB()).GrantRoleByEmail(email, role)
		if err == nil {
			cmd.Printf("User %s is now %s\n", user.Email, user.Role)
			return nil
		}
		if !errors.Is(err, apperrors.ErrUserNotFound) {
			return err
		}
	}

	usuario, err := services.NewUsuarioService(m.DB()).CreateUsuario(uid, email, "", role)
	if err != nil {
		return err
	}
	cmd.Printf("Usuarios entry %s grants %s\n", usuario.ID, usuario.Role)
	return nil
}

func newVerifyEmailCmd() *cobra.Command {
	var email string
	var revoke bool

	cmd := &cobra.Command{
		Use:   "verify-email",
		Short: "Mark an account's email as verified",
		Long: `Records that the owner of --email has been confirmed out of band.

Locally registered accounts start unverified, and an unverified email is never
matched against usuarios entries or the admin allow-list.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := openManager()
			if err != nil {
				return err
			}
			defer m.Close()
			if err := m.RunMigrations(); err != nil {
				return err
			}
			return verifyEmail(cmd, m, email, !revoke)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().BoolVar(&revoke, "revoke", false, "clear the verified flag instead")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func verifyEmail(cmd *cobra.Command, m *database.Manager, email string, verified bool) error {
	users := services.NewUserService(m.DB())
	user, err := users.GetUserByEmail(email)
	if err != nil {
		return err
	}
	user, err = users.SetEmailVerified(user.ID, verified)
	if err != nil {
		return err
	}
	cmd.Printf("User %s email_verified=%t\n", user.Email, user.EmailVerified)
	return nil
}
