package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/phonebook/pkg/types"
)

func newInitCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize phonebook storage",
		Long:  "Write a default config.yaml if none exists, then open the store so its schema is created.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(cmd, flags)
			if err != nil {
				return err
			}
			if err := sess.close(nil); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "config: %s\n", filepath.Join(sess.settings.configDir, configFileExt))
			fmt.Fprintf(out, "backend: %s\n", sess.settings.store.Backend)
			if sess.settings.store.EffectiveDialect() == types.DialectSQLite {
				fmt.Fprintf(out, "database: %s\n", sess.settings.store.DSN)
			}
			fmt.Fprintln(out, "Phonebook initialized successfully")
			return nil
		},
	}
}
