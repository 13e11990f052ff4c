package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"StockTracker/internal/config"
	"StockTracker/internal/logging"
	"StockTracker/internal/model"
	"StockTracker/internal/notifier"
	"StockTracker/internal/scheduler"
	"StockTracker/internal/server"
	"StockTracker/internal/view"
)

// Version is stamped at build time.
var Version = "dev"

// NewRootCmd creates the root command. Dependencies are built in the pre-run
// hook, after flags are parsed.
func NewRootCmd() *cobra.Command {
	var (
		cfgPath string
		debug   bool
		app     *App
	)

	rootCmd := &cobra.Command{
		Use:           "tracker",
		Short:         "Stock and options recommendation tracker",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			if debug {
				cfg.Log.Level = "debug"
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("config validation: %w", err)
			}
			logging.Setup(logging.Config{Level: cfg.Log.Level, File: cfg.Log.File})
			app, err = Build(cfg)
			return err
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if app == nil {
				return nil
			}
			return app.Close()
		},
	}
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", config.Path(), "config file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	get := func() *App { return app }
	rootCmd.AddCommand(
		newServeCmd(get),
		newImportCmd(get),
		newListCmd(get),
		newAddCmd(get),
		newExitCmd(get),
		newDeleteCmd(get),
		newQuoteCmd(get),
		newRefreshCmd(get),
	)
	// cobra skips post-run hooks after a failed RunE.
	for _, c := range rootCmd.Commands() {
		runE := c.RunE
		if runE == nil {
			continue
		}
		c.RunE = func(cmd *cobra.Command, args []string) error {
			err := runE(cmd, args)
			if err != nil && app != nil {
				app.Close()
			}
			return err
		}
	}
	return rootCmd
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func newServeCmd(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, the snapshot scheduler and the chat bot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			ctx, cancel := signalContext()
			defer cancel()

			sched := scheduler.NewScheduler(ctx, a.Service)
			if err := sched.RegisterAll(a.Config.Schedule.SnapshotCron); err != nil {
				return err
			}
			sched.Start()
			defer sched.Stop()

			if a.Telegram != nil {
				cmds := &notifier.Commands{Source: a.Service.Store}
				go a.Telegram.StartPolling(ctx, cmds.Handle)
			}

			srv := server.New(ctx, a.Service, a.Refresher, server.Options{
				StaticDir:      a.Config.Server.StaticDir,
				MaxUploadBytes: a.Config.Server.MaxUploadMB << 20,
			})
			return srv.ListenAndServe(ctx, a.Config.Server.Addr)
		},
	}
}

func newImportCmd(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Replace all records with the rows of a spreadsheet (.xlsx or .csv)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			res, err := a.Service.Upload(a.Context(cmd.Context()), f, f.Name())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Successfully uploaded %d stocks and options from %d sheet(s)\n", res.Total, res.Sheets)
			return nil
		},
	}
}

func newListCmd(app func() *App) *cobra.Command {
	var (
		f      view.Filter
		window string
		sortBy string
		dir    string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show the filtered and sorted record table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			w, err := view.ParseWindow(window)
			if err != nil {
				return err
			}
			f.Window = w
			srt, err := view.ParseSort(sortBy, dir)
			if err != nil {
				return err
			}
			recs, err := a.Service.List(cmd.Context(), f, srt)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(recs)
			}
			return writeTable(cmd.OutOrStdout(), recs)
		},
	}
	cmd.Flags().StringVar(&f.Type, "type", "", "Stock or Option")
	cmd.Flags().StringVar(&f.Status, "status", "", "Open or Closed")
	cmd.Flags().StringVarP(&f.Search, "search", "q", "", "substring of ticker or name")
	cmd.Flags().StringVar(&f.SuggestedBy, "suggested-by", "", "suggester name")
	cmd.Flags().StringVar(&window, "window", "", "24h, 7d, 30d, 6m, 1y or all")
	cmd.Flags().StringVar(&sortBy, "sort", "", "column to sort by (default addedDate)")
	cmd.Flags().StringVar(&dir, "dir", "", "asc or desc (default desc)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newAddCmd(app func() *App) *cobra.Command {
	var entry, current, target, typ, suggestedBy, notes string
	cmd := &cobra.Command{
		Use:   "add TICKER",
		Short: "Track a new stock or option",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			in := model.StockInput{Ticker: model.FlexString(args[0])}
			in.Entry = model.Str(entry)
			in.CurrentPrice = model.Str(current)
			in.PriceTarget = model.Str(target)
			in.Type = model.Str(typ)
			in.SuggestedBy = model.Str(suggestedBy)
			in.ExitNotes = model.Str(notes)
			rec, err := a.Service.Add(a.Context(cmd.Context()), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s)\n", rec.Ticker, rec.Type)
			return nil
		},
	}
	cmd.Flags().StringVar(&entry, "entry", "", "entry price")
	cmd.Flags().StringVar(&current, "current", "", "current price")
	cmd.Flags().StringVar(&target, "target", "", "price target")
	cmd.Flags().StringVar(&typ, "type", "", "Stock or Option")
	cmd.Flags().StringVar(&suggestedBy, "suggested-by", "", "suggester name")
	cmd.Flags().StringVar(&notes, "notes", "", "notes")
	return cmd
}

func newExitCmd(app func() *App) *cobra.Command {
	var notes string
	cmd := &cobra.Command{
		Use:   "exit TICKER VALUE",
		Short: "Record the exit of a position and compute its return",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			rec, err := a.Service.Exit(a.Context(cmd.Context()), args[0], args[1], notes)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s closed at %s, return %s\n",
				rec.Ticker, formatPrice(rec.ExitValue), formatPercent(rec.ReturnPercent))
			return nil
		},
	}
	cmd.Flags().StringVar(&notes, "notes", "", "exit notes")
	return cmd
}

func newDeleteCmd(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete TICKER",
		Short: "Stop tracking a ticker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			if err := a.Service.Delete(a.Context(cmd.Context()), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", upper(args[0]))
			return nil
		},
	}
}

func newQuoteCmd(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "quote TICKER",
		Short: "Look up the latest price (cached for a day)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			ctx, cancel := context.WithTimeout(cmd.Context(), a.Config.Quotes.Timeout)
			defer cancel()
			q, err := a.Service.Quote(ctx, args[0])
			if err != nil {
				return err
			}
			name := q.Name
			if name == "" {
				name = q.Ticker
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %.2f %s  (%s)\n",
				q.Ticker, name, q.Price, q.Currency, q.Timestamp.Local().Format(time.DateTime))
			return nil
		},
	}
}

func newRefreshCmd(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Update current prices of open stocks from the quote source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			ctx, cancel := signalContext()
			defer cancel()
			res, err := a.Refresher.Run(a.Context(ctx))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated %d, failed %d, skipped %d\n", res.Updated, res.Failed, res.Skipped)
			return nil
		},
	}
}
