package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/idbroker/internal/config"
	"github.com/dropDatabas3/idbroker/internal/observability/logger"

	// Registra los adapters de storage vía init().
	_ "github.com/dropDatabas3/idbroker/internal/store/adapters/dal"
)

var version = "dev"

func main() {
	var configPath = envOr("IDBROKER_CONFIG", "")

	root := &cobra.Command{
		Use:           "idbroker",
		Short:         "Broker de identidades multi-tenant",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", configPath, "Archivo de config YAML (env IDBROKER_CONFIG)")

	load := func() (*config.Config, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		logger.Init(logger.Config{
			Env:         cfg.App.Env,
			Level:       cfg.App.LogLevel,
			ServiceName: "idbroker",
			Version:     version,
		})
		return cfg, nil
	}

	root.AddCommand(newServeCmd(load))
	root.AddCommand(newProvidersCmd(load))
	root.AddCommand(newMigrateCmd(load))

	err := root.Execute()
	_ = logger.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

type loader func() (*config.Config, error)

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
