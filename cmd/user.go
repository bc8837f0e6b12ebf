package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"filestorage/internal/domain"
	"filestorage/internal/repository"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users and their project roles",
}

var userCreateCmdConfig struct {
	username string
	nickname string
	roles    []string
}

// parseRoles переводит строки в роли; неизвестная роль является ошибкой
func parseRoles(tokens []string) (domain.Roles, error) {
	roles := make(domain.Roles, 0, len(tokens))
	for _, token := range tokens {
		role, ok := domain.ParseRole(token)
		if !ok {
			return nil, fmt.Errorf("unknown role %q", token)
		}
		if !roles.Contains(role) {
			roles = append(roles, role)
		}
	}
	return roles, nil
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a user with a set of roles",
	RunE: func(cmd *cobra.Command, args []string) error {
		if userCreateCmdConfig.username == "" {
			return errors.New("username is required")
		}
		nickname := userCreateCmdConfig.nickname
		if nickname == "" {
			nickname = userCreateCmdConfig.username
		}

		roles, err := parseRoles(userCreateCmdConfig.roles)
		if err != nil {
			return err
		}

		db, err := repository.Connect(cmd.Context(), appConfig.Database)
		if err != nil {
			return err
		}
		defer db.Close()

		user := &domain.User{
			Username: userCreateCmdConfig.username,
			Nickname: nickname,
			Roles:    roles,
		}
		if err := repository.NewUserRepository(db).Create(cmd.Context(), user); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "created user %d\n", user.ID)
		return nil
	},
}

func init() {
	userCreateCmd.Flags().StringVar(&userCreateCmdConfig.username, "username", "", "unique user name")
	userCreateCmd.Flags().StringVar(&userCreateCmdConfig.nickname, "nickname", "", "display name (defaults to username)")
	userCreateCmd.Flags().StringSliceVar(&userCreateCmdConfig.roles, "role", nil, "role, repeatable: OWNER, MANAGER, DEVELOPER, DESIGNER, TESTER, ANALYST, VIEWER")

	userCmd.AddCommand(userCreateCmd)
}
