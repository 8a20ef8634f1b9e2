package main

import (
	"errors"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sabawaheed27/motofix-europe/internal/auth"
	"github.com/sabawaheed27/motofix-europe/internal/domain"
)

var (
	userEmail    string
	userName     string
	userPassword string
	userAdmin    bool
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage local users (SQL backends)",
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a user with a bcrypt password hash",
	RunE:  runUserCreate,
}

func init() {
	userCreateCmd.Flags().StringVar(&userEmail, "email", "", "login email")
	userCreateCmd.Flags().StringVar(&userName, "username", "", "display name")
	userCreateCmd.Flags().StringVar(&userPassword, "password", "", "password (at least 8 characters)")
	userCreateCmd.Flags().BoolVar(&userAdmin, "admin", false, "grant the admin flag")
	_ = userCreateCmd.MarkFlagRequired("email")
	_ = userCreateCmd.MarkFlagRequired("password")
	userCmd.AddCommand(userCreateCmd)
}

func runUserCreate(cmd *cobra.Command, _ []string) error {
	email := strings.TrimSpace(userEmail)
	if email == "" {
		return errors.New("--email must not be blank")
	}
	hash, err := auth.HashPassword(userPassword)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	e, err := setup(ctx)
	if err != nil {
		return err
	}
	defer e.close()
	if e.be.Credentials == nil {
		return errors.New("users of the hosted backend are managed by its auth service")
	}

	u := domain.User{Email: &email, IsAdmin: &userAdmin}
	if userName != "" {
		u.Username = &userName
	}
	created, err := e.be.Credentials.CreateUser(ctx, u, hash)
	if err != nil {
		return err
	}
	log.Info().Str("user", created.ID).Str("email", email).Bool("admin", userAdmin).Msg("user created")
	return nil
}
