package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/iplan/cellact/internal/db"
	"github.com/iplan/cellact/internal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations (dev: DROP & CREATE tables)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}

		ctx := context.Background()
		sqlDB, err := db.OpenMySQL(ctx, cfg.MySQL)
		if err != nil {
			return fmt.Errorf("open db: %w", err)
		}
		defer sqlDB.Close()

		sqlPath := filepath.Join("migrations", "001_init.sql")
		sqlBytes, err := os.ReadFile(sqlPath)
		if err != nil {
			return fmt.Errorf("read migration file %s: %w", sqlPath, err)
		}

		stmts := splitStatements(string(sqlBytes))
		for i, stmt := range stmts {
			if _, err := sqlDB.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("exec migration statement %d: %w", i+1, err)
			}
		}

		logger.Log.Info("migration complete", zap.String("file", sqlPath), zap.Int("statements", len(stmts)))
		return nil
	},
}

// splitStatements cuts a script on ';' so the DSN does not need multiStatements.
func splitStatements(script string) []string {
	var out []string
	for _, s := range strings.Split(script, ";") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
