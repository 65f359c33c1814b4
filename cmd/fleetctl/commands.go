package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/ukydev/fleet-lifecycle/internal/aggregate"
	"github.com/ukydev/fleet-lifecycle/internal/app"
	"github.com/ukydev/fleet-lifecycle/internal/lifecycle"
	"github.com/ukydev/fleet-lifecycle/internal/models"
)

// opener connects the services a command needs.
type opener func(ctx context.Context) (*app.App, error)

func newRootCmd(open opener) *cobra.Command {
	root := &cobra.Command{
		Use:   "fleetctl",
		Short: "Operate fleet document and insurance statuses",
		Long: `fleetctl refreshes stored lifecycle statuses and prints fleet reports.

Configuration is read from the environment and an optional .env file
(MONGO_URI, MONGO_DB, STATUS_POLICY_FILE, MQTT_BROKER, JWT_SECRET, ...).

Examples:
  fleetctl refresh documents --category license
  fleetctl refresh insurance --active-only
  fleetctl sweep --interval 30m
  fleetctl report costs --from 2026-01-01 --to 2026-03-31`,
		SilenceUsage: true,
	}
	root.AddCommand(newRefreshCmd(open), newSweepCmd(open), newReportCmd(open), newTokenCmd(open))
	return root
}

// run opens the app, hands it to fn and closes it.
func run(cmd *cobra.Command, open opener, fn func(ctx context.Context, a *app.App) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := open(ctx)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.Close(closeCtx); err != nil {
			log.WithError(err).Warn("Failed to close connections")
		}
	}()
	return fn(ctx, a)
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type refreshFlags struct {
	vehicle    string
	driver     string
	categories []string
	activeOnly bool
}

func (f *refreshFlags) scope() lifecycle.Scope {
	return lifecycle.Scope{
		VehicleID:          f.vehicle,
		DriverID:           f.driver,
		Categories:         f.categories,
		ActiveVehiclesOnly: f.activeOnly,
	}
}

func newRefreshCmd(open opener) *cobra.Command {
	flags := &refreshFlags{}
	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Rewrite stored statuses that drifted from their derived value",
		Long: `Rewrite stored statuses that drifted from their derived value.

The summary of each run is printed as JSON. The command fails when any
record could not be updated; the other records are still written.`,
	}
	cmd.PersistentFlags().StringVar(&flags.vehicle, "vehicle", "", "Only records of this vehicle id")
	cmd.PersistentFlags().StringVar(&flags.driver, "driver", "", "Only documents of this driver id")
	cmd.PersistentFlags().StringSliceVar(&flags.categories, "category", nil, "Only documents of these categories")
	cmd.PersistentFlags().BoolVar(&flags.activeOnly, "active-only", false, "Skip records of retired vehicles")

	one := func(kind models.Kind) *cobra.Command {
		return &cobra.Command{
			Use:   string(kind) + "s",
			Short: fmt.Sprintf("Refresh %s statuses", kind),
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return run(cmd, open, func(ctx context.Context, a *app.App) error {
					summary, err := a.Refresher.RefreshStatuses(ctx, kind, flags.scope())
					if err != nil {
						return err
					}
					if err := printJSON(cmd, summary); err != nil {
						return err
					}
					return summary.Err()
				})
			},
		}
	}
	documents := one(models.KindDocument)
	insurance := one(models.KindInsurance)
	insurance.Use = "insurance"

	all := &cobra.Command{
		Use:   "all",
		Short: "Refresh documents then insurance policies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, open, func(ctx context.Context, a *app.App) error {
				summaries, err := a.Refresher.RefreshAll(ctx, flags.scope())
				if err != nil {
					return err
				}
				if err := printJSON(cmd, summaries); err != nil {
					return err
				}
				var errs []error
				for _, s := range summaries {
					errs = append(errs, s.Err())
				}
				return errors.Join(errs...)
			})
		},
	}
	cmd.AddCommand(documents, insurance, all)
	return cmd
}

func newSweepCmd(open opener) *cobra.Command {
	var (
		interval time.Duration
		flags    refreshFlags
	)
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Refresh all statuses on a schedule until interrupted",
		Long: `Refresh documents and insurance policies immediately and then on every
interval until interrupted. The interval defaults to REFRESH_INTERVAL.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, open, func(ctx context.Context, a *app.App) error {
				every := interval
				if every <= 0 {
					every = a.Config.RefreshInterval
				}
				log.WithField("interval", every).Info("Starting status sweep")
				return a.Refresher.Sweep(ctx, every, flags.scope())
			})
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 0, "Time between runs (default REFRESH_INTERVAL)")
	cmd.Flags().StringVar(&flags.vehicle, "vehicle", "", "Only records of this vehicle id")
	cmd.Flags().BoolVar(&flags.activeOnly, "active-only", false, "Skip records of retired vehicles")
	return cmd
}

func newReportCmd(open opener) *cobra.Command {
	var from, to, vehicle, driver string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print a report as JSON",
		Long: `Print a report as JSON.

Dates accept RFC3339 or YYYY-MM-DD. A date-only --to covers the whole day.`,
	}
	cmd.PersistentFlags().StringVar(&from, "from", "", "Start of the date range")
	cmd.PersistentFlags().StringVar(&to, "to", "", "End of the date range")

	dashboard := &cobra.Command{
		Use:   "dashboard",
		Short: "Fleet counts, expiring items and month-to-date costs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, open, func(ctx context.Context, a *app.App) error {
				d, err := a.Reports.DashboardStats(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd, d)
			})
		},
	}
	vehicles := &cobra.Command{
		Use:   "vehicles",
		Short: "Per-vehicle activity and costs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rng, err := aggregate.ParseRange(from, to)
			if err != nil {
				return err
			}
			return run(cmd, open, func(ctx context.Context, a *app.App) error {
				rows, err := a.Reports.VehicleReport(ctx, rng)
				if err != nil {
					return err
				}
				return printJSON(cmd, rows)
			})
		},
	}
	drivers := &cobra.Command{
		Use:   "drivers",
		Short: "Per-driver trips, infractions and training",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, open, func(ctx context.Context, a *app.App) error {
				rows, err := a.Reports.DriverReport(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd, rows)
			})
		},
	}
	costs := &cobra.Command{
		Use:   "costs",
		Short: "Cost breakdown for the fleet, a vehicle or a driver",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rng, err := aggregate.ParseRange(from, to)
			if err != nil {
				return err
			}
			return run(cmd, open, func(ctx context.Context, a *app.App) error {
				c, err := a.Reports.CostAnalysis(ctx, aggregate.Scope{VehicleID: vehicle, DriverID: driver, Range: rng})
				if err != nil {
					return err
				}
				return printJSON(cmd, c)
			})
		},
	}
	costs.Flags().StringVar(&vehicle, "vehicle", "", "Only this vehicle id")
	costs.Flags().StringVar(&driver, "driver", "", "Only this driver id")

	cmd.AddCommand(dashboard, vehicles, drivers, costs)
	return cmd
}

func newTokenCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "token <user-id>",
		Short: "Mint an API token for an active user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, open, func(ctx context.Context, a *app.App) error {
				if a.Auth == nil {
					return errors.New("JWT_SECRET is not set")
				}
				user, err := a.Store.Users.FindUserByID(ctx, args[0])
				if err != nil {
					return err
				}
				if !user.IsActive {
					return fmt.Errorf("user %s is inactive", user.Username)
				}
				token, err := a.Auth.GenerateToken(user)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
				return err
			})
		},
	}
}
