package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tclemos/catalog-bench/catalog"
)

var (
	dbDescription string
	dbCascade     bool
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Inspect and manage catalog databases",
}

var dbListCmd = &cobra.Command{
	Use:   "list [pattern]",
	Short: "List databases, optionally filtered by a glob pattern",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pattern := ""
		if len(args) > 0 {
			pattern = args[0]
		}
		client := catalog.NewClient(serverURL())
		defer client.Close()

		names, err := client.ListDatabases(cmd.Context(), pattern)
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return nil
	},
}

var dbCreateCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Create a database",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := catalog.NewClient(serverURL())
		defer client.Close()

		return client.CreateDatabase(cmd.Context(), &catalog.Database{
			Name:        args[0],
			Description: dbDescription,
		})
	},
}

var dbDropCmd = &cobra.Command{
	Use:   "drop NAME",
	Short: "Drop a database",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := catalog.NewClient(serverURL())
		defer client.Close()

		return client.DropDatabase(cmd.Context(), args[0], dbCascade)
	},
}

func init() {
	rootCmd.AddCommand(dbCmd)
	dbCmd.AddCommand(dbListCmd, dbCreateCmd, dbDropCmd)

	dbCreateCmd.Flags().StringVar(&dbDescription, "description", "", "Database description")
	dbDropCmd.Flags().BoolVar(&dbCascade, "cascade", false, "Drop contained tables too")
}
