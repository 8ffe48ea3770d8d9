/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jotnotes/apiserver/config"
	"github.com/jotnotes/apiserver/internal/auth"
	"github.com/jotnotes/apiserver/internal/db"
	"github.com/jotnotes/apiserver/internal/services"
	"github.com/jotnotes/apiserver/internal/store"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// userCmd represents the user command.
var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage user accounts",
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Register a user; the password is read from the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		username, _ := cmd.Flags().GetString("username")
		if strings.TrimSpace(username) == "" {
			return errors.New("--username is required")
		}

		password, err := readPassword()
		if err != nil {
			return err
		}

		cfg := config.LoadConfig()
		log := newLogger(cfg, "jotnotes-cli")
		defer func() {
			_ = log.Sync()
		}()
		if err := cfg.Validate(); err != nil {
			return err
		}

		tokens, err := auth.NewTokenIssuer(cfg.Auth.SecretKey, cfg.Auth.TokenTTL)
		if err != nil {
			return err
		}

		conn, err := db.Open(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer conn.Close()

		userService := services.NewUserService(store.NewUserRepository(conn), tokens, cfg.Auth.BcryptCost)
		user, err := userService.Register(cmd.Context(), username, password)
		if err != nil {
			return err
		}

		log.Infow("user created", "id", user.ID, "username", user.Username)
		fmt.Fprintf(cmd.OutOrStdout(), "created user %d (%s)\n", user.ID, user.Username)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(userCreateCmd)

	userCreateCmd.Flags().String("username", "", "username of the new account")
}

func readPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("password must be entered on a terminal")
	}

	fmt.Fprint(os.Stderr, "Password: ")
	first, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}

	fmt.Fprint(os.Stderr, "Repeat password: ")
	second, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}

	if string(first) != string(second) {
		return "", errors.New("passwords do not match")
	}
	if len(first) == 0 {
		return "", errors.New("password must not be empty")
	}
	return string(first), nil
}
