package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"ledger/internal/cli"
	"ledger/internal/storage"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations and print the schema version",
	Long: `Bring the SQLite database at SQLITE_DB_PATH up to the latest schema and
report the applied version. The server and worker migrate on start-up;
this command does it ahead of a deploy.

Example:
  ledgerctl migrate`,
	Args: cobra.NoArgs,
	Run:  runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) {
	cfg, err := cli.LoadAndValidateConfig(cfgFile)
	exitOnError(err, "invalid configuration")
	if cfg.DataBackend != "sqlite" {
		exitOnError(fmt.Errorf("DATA_BACKEND is %q", cfg.DataBackend), "migrations need the sqlite backend")
	}

	version, dirty, err := migrateDatabase(cfg.SQLiteDBPath)
	exitOnError(err, "migration failed")

	state := "clean"
	if dirty {
		state = "dirty"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: schema version %d (%s)\n", cfg.SQLiteDBPath, version, state)
}

func migrateDatabase(path string) (uint, bool, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, false, fmt.Errorf("create db directory: %w", err)
	}
	if err := storage.RunMigrations(path); err != nil {
		return 0, false, err
	}
	return storage.SchemaVersion(path)
}
