package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tclemos/catalog-bench/catalog"
)

var (
	tableColumns       []string
	tablePartitionKeys []string
)

var tableCmd = &cobra.Command{
	Use:   "table",
	Short: "Inspect and manage catalog tables",
}

var tableListCmd = &cobra.Command{
	Use:   "list DATABASE",
	Short: "List the tables of a database",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := catalog.NewClient(serverURL())
		defer client.Close()

		names, err := client.ListTables(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return nil
	},
}

var tableCreateCmd = &cobra.Command{
	Use:   "create DATABASE NAME",
	Short: "Create a table from name:type column declarations",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := catalog.NewTable(args[0], args[1],
			catalog.ParseSchema(tableColumns),
			catalog.ParseSchema(tablePartitionKeys))
		if err != nil {
			return err
		}

		client := catalog.NewClient(serverURL())
		defer client.Close()

		return client.CreateTable(cmd.Context(), t)
	},
}

var tableDescribeCmd = &cobra.Command{
	Use:   "describe DATABASE NAME",
	Short: "Print a table definition as JSON",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := catalog.NewClient(serverURL())
		defer client.Close()

		t, err := client.GetTable(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		buf, err := json.MarshalIndent(t, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(buf))
		return nil
	},
}

var tableDropCmd = &cobra.Command{
	Use:   "drop DATABASE NAME",
	Short: "Drop a table and its partitions",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := catalog.NewClient(serverURL())
		defer client.Close()

		return client.DropTable(cmd.Context(), args[0], args[1])
	},
}

func init() {
	rootCmd.AddCommand(tableCmd)
	tableCmd.AddCommand(tableListCmd, tableCreateCmd, tableDescribeCmd, tableDropCmd)

	tableCreateCmd.Flags().StringSliceVar(&tableColumns, "columns", []string{"id:int", "name:string"}, "Column declarations, name:type")
	tableCreateCmd.Flags().StringSliceVar(&tablePartitionKeys, "partition-keys", nil, "Partition key declarations, name:type")
}
