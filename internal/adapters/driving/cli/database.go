package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var databaseCmd = &cobra.Command{
	Use:     "db",
	Aliases: []string{"database"},
	Short:   "Manage databases",
}

var databaseListCmd = &cobra.Command{
	Use:   "list",
	Short: "List databases",
	Args:  cobra.NoArgs,
	RunE:  runDatabaseList,
}

var databaseInfoCmd = &cobra.Command{
	Use:   "info [database]",
	Short: "Show database metadata",
	Args:  cobra.ExactArgs(1),
	RunE:  runDatabaseInfo,
}

var databaseCreateCmd = &cobra.Command{
	Use:   "create [database]",
	Short: "Create a database",
	Args:  cobra.ExactArgs(1),
	RunE:  runDatabaseCreate,
}

var databaseDeleteCmd = &cobra.Command{
	Use:   "delete [database]",
	Short: "Delete a database and everything in it",
	Args:  cobra.ExactArgs(1),
	RunE:  runDatabaseDelete,
}

var databaseCompactCmd = &cobra.Command{
	Use:   "compact [database]",
	Short: "Start compaction of a database",
	Args:  cobra.ExactArgs(1),
	RunE:  runDatabaseCompact,
}

var databaseReplicateCmd = &cobra.Command{
	Use:   "replicate [source] [target]",
	Short: "Replicate one database into another",
	Long: `Replicate source into target. Either may be a local database name or
a full URL. With --continuous the server keeps the replication running.`,
	Args: cobra.ExactArgs(2),
	RunE: runDatabaseReplicate,
}

var replicateContinuous bool

func init() {
	databaseReplicateCmd.Flags().BoolVar(&replicateContinuous, "continuous", false, "keep replicating new changes")

	databaseCmd.AddCommand(databaseListCmd)
	databaseCmd.AddCommand(databaseInfoCmd)
	databaseCmd.AddCommand(databaseCreateCmd)
	databaseCmd.AddCommand(databaseDeleteCmd)
	databaseCmd.AddCommand(databaseCompactCmd)
	databaseCmd.AddCommand(databaseReplicateCmd)
	rootCmd.AddCommand(databaseCmd)
}

func runDatabaseList(cmd *cobra.Command, _ []string) error {
	dbs, err := requireDatabases()
	if err != nil {
		return err
	}

	names, err := dbs.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list databases: %w", err)
	}

	if len(names) == 0 {
		cmd.Println("No databases.")
		return nil
	}
	for _, name := range names {
		cmd.Println(name)
	}
	return nil
}

func runDatabaseInfo(cmd *cobra.Command, args []string) error {
	dbs, err := requireDatabases()
	if err != nil {
		return err
	}

	info, err := dbs.Info(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get database info: %w", err)
	}

	cmd.Printf("Database: %s\n\n", info.Name)
	cmd.Printf("  Documents:   %d\n", info.DocCount)
	cmd.Printf("  Deleted:     %d\n", info.DocDelCount)
	cmd.Printf("  Update seq:  %d\n", info.UpdateSequence)
	cmd.Printf("  Disk size:   %d bytes\n", info.DiskSize)
	if info.CompactRunning {
		cmd.Println("  Compaction:  running")
	}
	return nil
}

func runDatabaseCreate(cmd *cobra.Command, args []string) error {
	dbs, err := requireDatabases()
	if err != nil {
		return err
	}

	if err := dbs.Create(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}

	cmd.Printf("Database %s created.\n", args[0])
	return nil
}

func runDatabaseDelete(cmd *cobra.Command, args []string) error {
	dbs, err := requireDatabases()
	if err != nil {
		return err
	}

	if err := dbs.Delete(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to delete database: %w", err)
	}

	cmd.Printf("Database %s deleted.\n", args[0])
	return nil
}

func runDatabaseCompact(cmd *cobra.Command, args []string) error {
	dbs, err := requireDatabases()
	if err != nil {
		return err
	}

	if err := dbs.Compact(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to compact database: %w", err)
	}

	cmd.Printf("Compaction of %s started.\n", args[0])
	return nil
}

func runDatabaseReplicate(cmd *cobra.Command, args []string) error {
	dbs, err := requireDatabases()
	if err != nil {
		return err
	}

	source, target := args[0], args[1]
	if err := dbs.Replicate(cmd.Context(), source, target, replicateContinuous); err != nil {
		return fmt.Errorf("failed to replicate: %w", err)
	}

	if replicateContinuous {
		cmd.Printf("Continuous replication %s -> %s started.\n", source, target)
	} else {
		cmd.Printf("Replicated %s -> %s.\n", source, target)
	}
	return nil
}
