package main

import (
	"context"
	"fmt"
	"io"

	"legalizador/internal/catalog"
	"legalizador/internal/common"
	"legalizador/internal/models"
	"legalizador/internal/services"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage user accounts",
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a user directly in the database",
	Long: `Create a user directly in the database. Use it to add the first
Administrator of a fresh installation, since public registration only creates
Auditor accounts. ADMIN_EMAIL and ADMIN_PASSWORD do the same on serve.`,
	Example: `  legalizador user create --email admin@empresa.co --password s3creto --name "Ana Ruiz"
  legalizador user create --email auditor@empresa.co --password s3creto --name Luis --role Auditor`,
	RunE: runUserCreate,
}

func init() {
	userCreateCmd.Flags().String("email", "", "login email")
	userCreateCmd.Flags().String("password", "", "initial password (at least 6 characters)")
	userCreateCmd.Flags().String("name", "", "display name")
	userCreateCmd.Flags().String("role", catalog.RoleAdministrator, "Administrator or Auditor")
	_ = userCreateCmd.MarkFlagRequired("email")
	_ = userCreateCmd.MarkFlagRequired("password")
	_ = userCreateCmd.MarkFlagRequired("name")

	userCmd.AddCommand(userCreateCmd)
}

func runUserCreate(cmd *cobra.Command, args []string) error {
	email, _ := cmd.Flags().GetString("email")
	password, _ := cmd.Flags().GetString("password")
	name, _ := cmd.Flags().GetString("name")
	role, _ := cmd.Flags().GetString("role")

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	authSvc := services.NewAuthService(a.cache, a.users, a.logger, a.cfg.Auth.JWTSecret,
		a.cfg.Auth.AccessTokenTTL, a.cfg.Auth.RefreshTokenTTL)
	userSvc := services.NewUserService(a.users, authSvc, a.cache, a.logger)

	req := models.CreateUserRequest{Name: name, Email: email, Password: password, Role: role}
	return createUser(cmd.Context(), userSvc, req, cmd.OutOrStdout(), a.logger)
}

func createUser(ctx context.Context, userSvc services.UserService, req models.CreateUserRequest, out io.Writer, log *zap.Logger) error {
	if err := common.NewRequestValidator().Validate(&req); err != nil {
		return err
	}
	role := catalog.RoleFromLabel(req.Role)
	if role != catalog.RoleAdministrator && role != catalog.RoleAuditor {
		return common.Validation("unknown role %q", req.Role)
	}
	req.Role = role

	view, err := userSvc.Create(ctx, req)
	if err != nil {
		return err
	}
	log.Info("User created from the command line", zap.String("role", role))
	fmt.Fprintf(out, "User %s created with role %s (id %d)\n", view.Email, view.Role, int64(view.ID))
	return nil
}
