package cmd

import (
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"covid-report/adapters/storage"
	"covid-report/core/ui"
	"covid-report/internal/config"
	"covid-report/internal/errors"
)

var runsDB string

// runsCmd lists runs exported with report --db
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List runs stored in a SQLite export",
	Long: `List the runs saved by "covid-report report --db", newest first.

Examples:
  covid-report runs --db runs.db
  covid-report runs show 3f2a... --db runs.db`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openRuns(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		runs, err := store.List(cmd.Context())
		if err != nil {
			return err
		}

		w := ui.NewWriter(cmd.OutOrStdout(), config.Get().Report.NoColor)
		if len(runs) == 0 {
			w.Warning("no runs stored")
			return nil
		}
		t := w.NewTable("id", "created", "states").AlignRight(2)
		for _, r := range runs {
			t.AddRow(r.ID, r.CreatedAt.Local().Format(time.DateTime), strconv.Itoa(r.Regions))
		}
		t.Render()
		return nil
	},
}

// runsShowCmd prints one stored run
var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show the model and inputs of a stored run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openRuns(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		run, err := store.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		w := ui.NewWriter(cmd.OutOrStdout(), config.Get().Report.NoColor)
		w.Header("Run " + run.ID)
		w.Info("created %s", run.CreatedAt.Local().Format(time.DateTime))

		w.SubHeader("Inputs")
		in := w.NewTable("name", "sha256", "bytes").AlignRight(2)
		for _, d := range run.Inputs {
			in.AddRow(d.Name, d.SHA256, strconv.FormatInt(d.Size, 10))
		}
		in.Render()

		w.SubHeader("Model")
		if run.Model == nil {
			w.Warning("no model stored")
		} else {
			w.Line(run.Model.String())
		}
		w.Info("%d state rows, %d country rows, %d daily state rows",
			len(run.StateSummary), len(run.CountrySummary), len(run.StateDaily))
		return nil
	},
}

func init() {
	runsCmd.PersistentFlags().StringVar(&runsDB, "db", "", "SQLite file written by report --db (default is report.database)")
	runsCmd.AddCommand(runsShowCmd)
}

func openRuns(cmd *cobra.Command) (*storage.SQLStore, error) {
	dsn := config.Get().Report.Database
	if cmd.Flags().Changed("db") {
		dsn = runsDB
	}
	if dsn == "" {
		return nil, errors.Config("no database given; pass --db or set report.database")
	}
	return storage.Open(dsn)
}
