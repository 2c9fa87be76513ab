package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/fsrviagens/leads-api/internal/infra/database"
	"github.com/fsrviagens/leads-api/internal/usecase"
)

type dbFlags struct {
	driver string
	url    string
}

func (f *dbFlags) open() (*sqlx.DB, error) {
	if f.url == "" {
		return nil, fmt.Errorf("database url required: use --database-url or DATABASE_URL")
	}
	return database.Open(database.Config{
		Driver:       f.driver,
		URL:          f.url,
		MaxIdleConns: 1,
		MaxOpenConns: 1,
	})
}

func envOr(keys []string, fallback string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return fallback
}

func newRootCmd() *cobra.Command {
	flags := &dbFlags{}

	root := &cobra.Command{
		Use:           "leadctl",
		Short:         "Operational tasks for the FSR Viagens lead API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flags.driver, "driver",
		envOr([]string{"LEADS_DB_DRIVER"}, database.DriverPostgres), "database driver: postgres or sqlite")
	root.PersistentFlags().StringVar(&flags.url, "database-url",
		envOr([]string{"LEADS_DB_URL", "DATABASE_URL"}, ""), "database connection url")

	root.AddCommand(newMigrateCmd(flags))
	root.AddCommand(newLeadsCmd(flags))
	return root
}

func newMigrateCmd(flags *dbFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := flags.open()
			if err != nil {
				return err
			}
			defer db.Close()

			if err := database.Migrate(cmd.Context(), db); err != nil {
				return fmt.Errorf("migrating: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			return nil
		},
	}
}

func newLeadsCmd(flags *dbFlags) *cobra.Command {
	leads := &cobra.Command{
		Use:   "leads",
		Short: "Inspect captured leads",
	}

	var (
		limit  int
		asJSON bool
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List the most recent leads",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := flags.open()
			if err != nil {
				return err
			}
			defer db.Close()

			uc := usecase.NewListLeadsUseCase(database.NewLeadRepository(db))
			result, err := uc.Execute(cmd.Context(), usecase.ListLeadsInput{Limit: limit})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CREATED\tNAME\tEMAIL\tWHATSAPP\tDESTINATION\tORIGIN")
			for _, l := range result {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
					l.CreatedAt.Format("2006-01-02 15:04"), l.Name, l.Email, l.WhatsApp, l.Destination, l.Origin)
			}
			return tw.Flush()
		},
	}
	list.Flags().IntVar(&limit, "limit", usecase.DefaultListLimit, "number of leads to show")
	list.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")

	leads.AddCommand(list)
	return leads
}
