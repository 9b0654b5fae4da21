package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dropDatabas3/idbroker/internal/app"
	"github.com/dropDatabas3/idbroker/internal/bootstrap"
	"github.com/dropDatabas3/idbroker/internal/provider"
)

func newProvidersCmd(load loader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "providers",
		Short: "Administrar configs de proveedores",
	}

	// providers register -f
	var file string
	registerCmd := &cobra.Command{
		Use:   "register",
		Short: "Registrar (o actualizar) los proveedores de un archivo YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				return fmt.Errorf("--file es requerido")
			}
			cfg, err := load()
			if err != nil {
				return err
			}
			c, err := app.New(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer c.Close()

			out, err := bootstrap.ImportProviders(cmd.Context(), c.Authorities, file)
			if printErr := printYAML(out); printErr != nil && err == nil {
				err = printErr
			}
			return err
		},
	}
	registerCmd.Flags().StringVarP(&file, "file", "f", "", "Archivo YAML con la lista providers:")

	// providers list
	var listAuthority, listRealm string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Listar proveedores de un realm",
		RunE: func(cmd *cobra.Command, args []string) error {
			if listRealm == "" {
				return fmt.Errorf("--realm es requerido")
			}
			cfg, err := load()
			if err != nil {
				return err
			}
			c, err := app.New(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer c.Close()

			ids := c.Authorities.IDs()
			if listAuthority != "" {
				ids = []string{listAuthority}
			}
			var out []provider.Configurable
			for _, id := range ids {
				a, err := c.Authorities.Get(id)
				if err != nil {
					return err
				}
				list, err := a.ListProviders(cmd.Context(), listRealm)
				if err != nil {
					return err
				}
				out = append(out, list...)
			}
			return printYAML(out)
		},
	}
	listCmd.Flags().StringVar(&listAuthority, "authority", "", "Filtrar por authority (internal|oidc)")
	listCmd.Flags().StringVar(&listRealm, "realm", "", "Realm a listar")

	// providers unregister
	var unAuthority, unID string
	unregisterCmd := &cobra.Command{
		Use:   "unregister",
		Short: "Eliminar la config de un proveedor",
		RunE: func(cmd *cobra.Command, args []string) error {
			if unAuthority == "" || unID == "" {
				return fmt.Errorf("--authority y --id son requeridos")
			}
			cfg, err := load()
			if err != nil {
				return err
			}
			c, err := app.New(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer c.Close()

			a, err := c.Authorities.Get(unAuthority)
			if err != nil {
				return err
			}
			if err := a.UnregisterProvider(cmd.Context(), unID); err != nil {
				return err
			}
			fmt.Println("ok")
			return nil
		},
	}
	unregisterCmd.Flags().StringVar(&unAuthority, "authority", "", "Authority del proveedor")
	unregisterCmd.Flags().StringVar(&unID, "id", "", "Id del proveedor")

	cmd.AddCommand(registerCmd, listCmd, unregisterCmd)
	return cmd
}

func printYAML(v any) error {
	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(v)
}
