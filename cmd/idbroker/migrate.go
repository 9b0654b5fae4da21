package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/idbroker/internal/store/migrate"
)

func newMigrateCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate up|down",
		Short:     "Aplicar o revertir el schema PostgreSQL",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(migrate.Up), string(migrate.Down)},
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := migrate.ParseDirection(args[0])
			if err != nil {
				return err
			}
			cfg, err := load()
			if err != nil {
				return err
			}
			if err := migrate.Run(cfg.Storage.DSN, dir); err != nil {
				return err
			}
			v, dirty, err := migrate.Version(cfg.Storage.DSN)
			if err != nil {
				return err
			}
			fmt.Printf("schema version=%d dirty=%t\n", v, dirty)
			return nil
		},
	}
}
