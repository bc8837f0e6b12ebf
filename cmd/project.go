package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"filestorage/internal/repository"
	"filestorage/internal/service"
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage projects and their storage quotas",
}

var projectCreateCmdConfig struct {
	name           string
	maxStorageSize int64
}

var projectCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a project with a storage quota",
	RunE: func(cmd *cobra.Command, args []string) error {
		if projectCreateCmdConfig.name == "" {
			return errors.New("name is required")
		}

		db, err := repository.Connect(cmd.Context(), appConfig.Database)
		if err != nil {
			return err
		}
		defer db.Close()

		quotaService := service.NewStorageQuotaService(repository.NewProjectRepository(db), repository.NewResourceRepository(db))
		project, err := quotaService.CreateProject(cmd.Context(), projectCreateCmdConfig.name, projectCreateCmdConfig.maxStorageSize)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "created project %d\n", project.ID)
		return nil
	},
}

var projectQuotaCmdConfig struct {
	id             int64
	maxStorageSize int64
}

var projectQuotaCmd = &cobra.Command{
	Use:   "quota",
	Short: "Change the storage quota of a project",
	RunE: func(cmd *cobra.Command, args []string) error {
		if projectQuotaCmdConfig.id <= 0 {
			return errors.New("id is required")
		}

		db, err := repository.Connect(cmd.Context(), appConfig.Database)
		if err != nil {
			return err
		}
		defer db.Close()

		quotaService := service.NewStorageQuotaService(repository.NewProjectRepository(db), repository.NewResourceRepository(db))
		if err := quotaService.UpdateQuotaLimit(cmd.Context(), projectQuotaCmdConfig.id, projectQuotaCmdConfig.maxStorageSize); err != nil {
			return err
		}

		info, err := quotaService.GetQuotaInfo(cmd.Context(), projectQuotaCmdConfig.id)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "project %d: used %d of %d bytes\n", info.ProjectID, info.UsedSpace, info.TotalSpace)
		return nil
	},
}

func init() {
	projectCreateCmd.Flags().StringVar(&projectCreateCmdConfig.name, "name", "", "project name")
	projectCreateCmd.Flags().Int64Var(&projectCreateCmdConfig.maxStorageSize, "max-storage-size", 0, "storage quota in bytes")

	projectQuotaCmd.Flags().Int64Var(&projectQuotaCmdConfig.id, "id", 0, "project id")
	projectQuotaCmd.Flags().Int64Var(&projectQuotaCmdConfig.maxStorageSize, "max-storage-size", 0, "new storage quota in bytes")
	_ = projectQuotaCmd.MarkFlagRequired("max-storage-size")

	projectCmd.AddCommand(projectCreateCmd, projectQuotaCmd)
}
