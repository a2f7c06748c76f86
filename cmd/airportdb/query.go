package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jobrunner/airportdb/internal/app"
	"github.com/jobrunner/airportdb/internal/application"
	"github.com/jobrunner/airportdb/internal/config"
	"github.com/jobrunner/airportdb/internal/domain"
	"github.com/jobrunner/airportdb/internal/ports/input"
)

const defaultLimit = 20

// queryFunc runs one command against an open airport service.
type queryFunc func(ctx context.Context, q input.AirportQueries, w io.Writer) error

// withQueries loads the configuration, runs fn and closes the connection
// whatever the outcome. With --remote the database is fetched into memory
// the way the browser build loads it.
func (c *cli) withQueries(cmd *cobra.Command, fn queryFunc) error {
	cfg, err := config.Load(c.cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Logs go to stderr so that they never mix with query output.
	logging := cfg.Logging
	if !cmd.Flags().Changed("log-level") {
		logging.Level = "warn"
	}
	logger := setupLogger(logging, cmd.ErrOrStderr())

	if remote, _ := cmd.Flags().GetBool("remote"); remote {
		db, airports := app.NewBrowserQueries(nil, logger)
		defer func() { _ = db.Close() }()
		if err := db.Initialize(cmd.Context(), app.BrowserOptions(cfg)); err != nil {
			return err
		}
		return fn(cmd.Context(), airports, cmd.OutOrStdout())
	}

	_, db, airports := app.NewQueries(cfg, nil, logger)
	defer func() { _ = db.Close() }()

	return fn(cmd.Context(), airports, cmd.OutOrStdout())
}

func (c *cli) runRoot(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	icao, _ := flags.GetString("icao")
	iata, _ := flags.GetString("iata")
	faa, _ := flags.GetString("faa")
	stats, _ := flags.GetBool("stats")

	switch {
	case icao != "":
		return c.withQueries(cmd, lookup("ICAO", icao, input.AirportQueries.GetAirportByICAO))
	case iata != "":
		return c.withQueries(cmd, lookup("IATA", iata, input.AirportQueries.GetAirportByIATA))
	case faa != "":
		return c.withQueries(cmd, lookup("FAA", faa, input.AirportQueries.GetAirportByFAA))
	case stats:
		return c.withQueries(cmd, showStats)
	default:
		return cmd.Help()
	}
}

type finder func(q input.AirportQueries, ctx context.Context, code string) (domain.Airport, bool, error)

// lookup upper-cases code, prints the airport or a not-found note.
func lookup(system, code string, find finder) queryFunc {
	return func(ctx context.Context, q input.AirportQueries, w io.Writer) error {
		airport, found, err := find(q, ctx, strings.ToUpper(code))
		if err != nil {
			return err
		}
		if !found {
			fmt.Fprintf(w, "No airport found with %s code: %s\n", system, code)
			return nil
		}
		printAirport(w, &airport)
		return nil
	}
}

func showStats(ctx context.Context, q input.AirportQueries, w io.Writer) error {
	total, err := q.CountAirports(ctx)
	if err != nil {
		return err
	}
	printStats(w, total)
	return nil
}

func (c *cli) lookupCmd(name, system string) *cobra.Command {
	finders := map[string]finder{
		"icao": input.AirportQueries.GetAirportByICAO,
		"iata": input.AirportQueries.GetAirportByIATA,
		"faa":  input.AirportQueries.GetAirportByFAA,
	}
	return &cobra.Command{
		Use:   name + " <code>",
		Short: "Get airport by " + system + " code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withQueries(cmd, lookup(system, args[0], finders[name]))
		},
	}
}

func (c *cli) statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show database statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withQueries(cmd, showStats)
		},
	}
}

// listCmd builds a listing command with a --limit flag.
func (c *cli) listCmd(use, short string, args cobra.PositionalArgs, run func(args []string, limit int) queryFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
	}
	cmd.Flags().IntP("limit", "l", defaultLimit, "limit results")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		if limit < 0 {
			return errors.New("limit must not be negative")
		}
		return c.withQueries(cmd, run(args, limit))
	}
	return cmd
}

func (c *cli) countryCmd() *cobra.Command {
	return c.listCmd("country <code>", "Get all airports in a country by ISO code", cobra.ExactArgs(1),
		func(args []string, limit int) queryFunc {
			code := strings.ToUpper(args[0])
			return func(ctx context.Context, q input.AirportQueries, w io.Writer) error {
				airports, err := q.GetAirportsByCountry(ctx, code)
				if err != nil {
					return err
				}
				printList(w, fmt.Sprintf("Found %d airports in %s", len(airports), code), airports, limit, true, typeAndLocation)
				return nil
			}
		})
}

func (c *cli) stateCmd() *cobra.Command {
	return c.listCmd("state <state> [countryCode]", "Get airports by state/province", cobra.RangeArgs(1, 2),
		func(args []string, limit int) queryFunc {
			state, country := args[0], ""
			if len(args) == 2 {
				country = strings.ToUpper(args[1])
			}
			return func(ctx context.Context, q input.AirportQueries, w io.Writer) error {
				airports, err := q.GetAirportsByState(ctx, state, country)
				if err != nil {
					return err
				}
				header := fmt.Sprintf("Found %d airports in %s", len(airports), state)
				if country != "" {
					header += " (" + country + ")"
				}
				printList(w, header, airports, limit, false, cityLine)
				return nil
			}
		})
}

func (c *cli) cityCmd() *cobra.Command {
	return c.listCmd("city <city>", "Get airports in a city", cobra.ExactArgs(1),
		func(args []string, limit int) queryFunc {
			city := args[0]
			return func(ctx context.Context, q input.AirportQueries, w io.Writer) error {
				airports, err := q.GetAirportsByCity(ctx, city)
				if err != nil {
					return err
				}
				printList(w, fmt.Sprintf("Found %d airports in %s", len(airports), city), airports, limit, false, countryLine)
				return nil
			}
		})
}

func (c *cli) typeCmd() *cobra.Command {
	return c.listCmd("type <type>", "Get airports by type (e.g., large_airport, small_airport)", cobra.ExactArgs(1),
		func(args []string, limit int) queryFunc {
			raw := args[0]
			return func(ctx context.Context, q input.AirportQueries, w io.Writer) error {
				t, err := domain.ParseAirportType(raw)
				if err != nil {
					return err
				}
				airports, err := q.GetAirportsByType(ctx, t)
				if err != nil {
					return err
				}
				printList(w, fmt.Sprintf("Found %d %s airports", len(airports), t), airports, limit, false, countryLine)
				return nil
			}
		})
}

func (c *cli) towersCmd() *cobra.Command {
	return c.listCmd("towers", "Get all airports with control towers", cobra.NoArgs,
		func(_ []string, limit int) queryFunc {
			return func(ctx context.Context, q input.AirportQueries, w io.Writer) error {
				airports, err := q.GetAirportsWithTowers(ctx)
				if err != nil {
					return err
				}
				printList(w, fmt.Sprintf("Found %d airports with towers", len(airports)), airports, limit, false, countryLine)
				return nil
			}
		})
}

func (c *cli) searchCmd() *cobra.Command {
	cmd := c.listCmd("search", "Advanced search with multiple criteria", cobra.NoArgs, nil)
	flags := cmd.Flags()
	flags.StringP("icao", "i", "", "ICAO code")
	flags.StringP("iata", "a", "", "IATA code")
	flags.StringP("name", "n", "", "airport name (partial match)")
	flags.StringP("country", "c", "", "country (partial match)")
	flags.String("country-code", "", "ISO country code")
	flags.StringP("state", "s", "", "state/province")
	flags.StringP("city", "y", "", "city")
	flags.StringP("type", "t", "", "airport type")
	flags.BoolP("towers", "T", false, "only airports with towers (--towers=false for none)")
	flags.Int64("min-runway", 0, "minimum runway length in feet")
	flags.Int64("max-runway", 0, "maximum runway length in feet")
	flags.String("surface", "", "runway surface")

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		if limit < 0 {
			return errors.New("limit must not be negative")
		}
		opts, err := searchOptions(cmd)
		if err != nil {
			return err
		}
		return c.withQueries(cmd, func(ctx context.Context, q input.AirportQueries, w io.Writer) error {
			airports, err := q.SearchAirports(ctx, opts)
			if err != nil {
				return err
			}
			printList(w, fmt.Sprintf("Found %d matching airports", len(airports)), airports, limit, true, typeAndLocation)
			return nil
		})
	}
	return cmd
}

// searchOptions maps the flags that were set onto search options.
func searchOptions(cmd *cobra.Command) (domain.SearchOptions, error) {
	flags := cmd.Flags()
	var opts domain.SearchOptions

	str := func(name string) *string {
		if !flags.Changed(name) {
			return nil
		}
		v, _ := flags.GetString(name)
		return &v
	}
	opts.ICAO = str("icao")
	opts.IATA = str("iata")
	opts.Name = str("name")
	opts.Country = str("country")
	opts.CountryCode = str("country-code")
	opts.State = str("state")
	opts.City = str("city")

	if v := str("type"); v != nil {
		t, err := domain.ParseAirportType(*v)
		if err != nil {
			return opts, err
		}
		opts.Type = &t
	}
	if v := str("surface"); v != nil {
		s := domain.RunwaySurface(strings.ToLower(*v))
		opts.Surface = &s
	}
	if flags.Changed("towers") {
		b, _ := flags.GetBool("towers")
		opts.HasTower = &b
	}
	if flags.Changed("min-runway") {
		n, _ := flags.GetInt64("min-runway")
		opts.MinRunwayFt = &n
	}
	if flags.Changed("max-runway") {
		n, _ := flags.GetInt64("max-runway")
		opts.MaxRunwayFt = &n
	}

	return opts, opts.Validate()
}

func (c *cli) syncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Download the database from the configured storage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(c.cfgFile)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			if !cfg.Storage.Enabled() {
				return errors.New("no storage configured (set storage.type)")
			}
			logger := setupLogger(cfg.Logging, cmd.ErrOrStderr())

			store, err := app.InitStorage(cmd.Context(), cfg.Storage)
			if err != nil {
				return fmt.Errorf("initializing storage: %w", err)
			}

			resolver, db, _ := app.NewQueries(cfg, nil, logger)
			defer func() { _ = db.Close() }()

			svc := application.NewSyncService(store, db, application.SyncConfig{
				Key:  cfg.Database.Key,
				Dest: app.SyncDestination(cfg, resolver),
			}, logger)

			result, err := svc.Sync(cmd.Context())
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if result.Updated {
				fmt.Fprintf(w, "Downloaded %s (%d bytes) to %s\n", result.Key, result.Size, app.SyncDestination(cfg, resolver))
			} else {
				fmt.Fprintf(w, "%s is up to date\n", result.Key)
			}
			return nil
		},
	}
}
