package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spec-kit/hms-service/internal/auth"
	"github.com/spec-kit/hms-service/internal/config"
	"github.com/spec-kit/hms-service/internal/domain"
	"github.com/spec-kit/hms-service/internal/observability"
	"github.com/spec-kit/hms-service/internal/persistence"
	"github.com/spec-kit/hms-service/internal/repository"
)

type createUserInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

func newUsersCommand() *cobra.Command {
	usersCmd := &cobra.Command{
		Use:   "users",
		Short: "Manage accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	var in createUserInput
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create an active account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := in.toUser()
			if err != nil {
				return err
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.Postgres.DSN == "" {
				return errors.New("missing database: set POSTGRES_DSN")
			}
			logger, err := observability.NewLogger(cfg.Logger)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
			if err != nil {
				return err
			}
			defer pg.Close()

			user.PasswordHash, err = auth.HashPassword(in.Password, cfg.Auth.BcryptCost)
			if err != nil {
				return fmt.Errorf("hash password: %w", err)
			}
			if err := repository.NewUserRepository(pg.PoolHandle()).Create(ctx, user); err != nil {
				return fmt.Errorf("create user: %w", err)
			}
			cmd.Printf("Created %s %s (%s)\n", user.Role, user.Email, user.ID)
			return nil
		},
	}
	createCmd.Flags().StringVar(&in.Name, "name", "", "Display name")
	createCmd.Flags().StringVar(&in.Email, "email", "", "Login email")
	createCmd.Flags().StringVar(&in.Password, "password", "", "Initial password")
	createCmd.Flags().StringVar(&in.Role, "role", string(domain.RolePatient), "One of ADMIN, DOCTOR, NURSE, RECEPTIONIST, PATIENT")

	usersCmd.AddCommand(createCmd)
	return usersCmd
}

func (in createUserInput) toUser() (*domain.User, error) {
	role := domain.Role(strings.ToUpper(strings.TrimSpace(in.Role)))
	if !role.Valid() {
		return nil, fmt.Errorf("invalid role %q", in.Role)
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	name := strings.TrimSpace(in.Name)
	if email == "" || name == "" || in.Password == "" {
		return nil, errors.New("--name, --email and --password are required")
	}
	return &domain.User{
		Name:   name,
		Email:  email,
		Role:   role,
		Status: domain.UserStatusActive,
	}, nil
}
