package main

import "github.com/spf13/cobra"

var BuildVersion = "dev"

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "hms-api",
		Short:        "Hospital management API",
		Long:         "Authorization gate, profile cache and live consultation chat for the hospital management system.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newMigrateCommand())
	rootCmd.AddCommand(newUsersCommand())
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number of the API",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("%s\n", BuildVersion)
		},
	})
	return rootCmd
}
