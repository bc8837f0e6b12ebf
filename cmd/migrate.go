package main

import (
	"github.com/spf13/cobra"

	"filestorage/internal/repository"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Connect создает базу postgres, если ее нет
		db, err := repository.Connect(cmd.Context(), appConfig.Database)
		if err != nil {
			return err
		}
		defer db.Close()

		return repository.Migrate(appConfig.Database)
	},
}
