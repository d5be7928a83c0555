package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/c360studio/semkb/classifier"
	"github.com/c360studio/semkb/export"
	"github.com/c360studio/semkb/format"
	"github.com/c360studio/semkb/instance"
	"github.com/c360studio/semkb/metadata"
	"github.com/c360studio/semkb/source"
)

// withApp loads config, builds the app and runs fn. connect controls whether
// NATS collaborators are started.
func withApp(cmd *cobra.Command, flags *globalFlags, connect bool, fn func(ctx context.Context, app *App) error) error {
	cfg, logger, err := loadConfig(flags, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	app, err := NewApp(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if connect {
		if err := app.Start(ctx); err != nil {
			return err
		}
		defer app.Close(context.Background())
	}
	return fn(ctx, app)
}

// inspect loads every source and returns an extractor over the accumulation.
// Load errors abort; rejected documents are reported on stderr.
func inspect(ctx context.Context, cmd *cobra.Command, app *App, sources []string, token string) (*metadata.Extractor, error) {
	outcomes, err := app.LoadAll(ctx, sources, token)
	if err != nil {
		return nil, err
	}
	for _, o := range outcomes {
		if o.Err != nil {
			return nil, o.Err
		}
		if !o.Result.Valid {
			fmt.Fprintln(cmd.ErrOrStderr(), o.String())
		}
	}
	return metadata.NewExtractor(app.store.Current()), nil
}

func printSorted(w io.Writer, set mapset.Set[string]) {
	items := set.ToSlice()
	sort.Strings(items)
	for _, s := range items {
		fmt.Fprintln(w, s)
	}
}

func classifyCmd(flags *globalFlags) *cobra.Command {
	var token string
	cmd := &cobra.Command{
		Use:   "classify <source>...",
		Short: "Report whether each document is schema or instance data",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, false, func(ctx context.Context, app *App) error {
				refs, err := source.ExpandPaths(args)
				if err != nil {
					return err
				}
				c := classifier.New(app.engine, app.logger)
				for _, ref := range refs {
					doc, err := app.fetcher.Fetch(ctx, ref, token)
					if err != nil {
						return err
					}
					kind, err := c.Classify(ctx, doc.Content, doc.Token)
					if err != nil {
						return err
					}
					if len(refs) == 1 {
						fmt.Fprintln(cmd.OutOrStdout(), kind)
					} else {
						fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", kind, ref)
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&token, "format", "f", "", "Format token overriding the extension (e.g. .ttl)")
	return cmd
}

func classesCmd(flags *globalFlags) *cobra.Command {
	var token string
	cmd := &cobra.Command{
		Use:   "classes <source>...",
		Short: "List the named classes of the loaded documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, false, func(ctx context.Context, app *App) error {
				ex, err := inspect(ctx, cmd, app, args, token)
				if err != nil {
					return err
				}
				printSorted(cmd.OutOrStdout(), ex.ListClasses())
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&token, "format", "f", "", "Format token overriding the extension")
	return cmd
}

func propertiesCmd(flags *globalFlags) *cobra.Command {
	var token string
	cmd := &cobra.Command{
		Use:   "properties <source>...",
		Short: "List the named properties of the loaded documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, false, func(ctx context.Context, app *App) error {
				ex, err := inspect(ctx, cmd, app, args, token)
				if err != nil {
					return err
				}
				printSorted(cmd.OutOrStdout(), ex.ListProperties())
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&token, "format", "f", "", "Format token overriding the extension")
	return cmd
}

func rangeCmd(flags *globalFlags) *cobra.Command {
	var token string
	cmd := &cobra.Command{
		Use:   "range <class-uri> <source>...",
		Short: "List the properties whose declared range is the class",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, false, func(ctx context.Context, app *App) error {
				ex, err := inspect(ctx, cmd, app, args[1:], token)
				if err != nil {
					return err
				}
				printSorted(cmd.OutOrStdout(), ex.ListPropertiesWithRange(args[0]))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&token, "format", "f", "", "Format token overriding the extension")
	return cmd
}

func domainsCmd(flags *globalFlags) *cobra.Command {
	var token string
	cmd := &cobra.Command{
		Use:   "domains <class-uri> <source>...",
		Short: "List the domains of every property ranging into the class",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, false, func(ctx context.Context, app *App) error {
				ex, err := inspect(ctx, cmd, app, args[1:], token)
				if err != nil {
					return err
				}
				printSorted(cmd.OutOrStdout(), ex.ListClassesThatCanBeRangeOfClass(args[0]))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&token, "format", "f", "", "Format token overriding the extension")
	return cmd
}

func relationsCmd(flags *globalFlags) *cobra.Command {
	var token string
	cmd := &cobra.Command{
		Use:   "relations <source>...",
		Short: "List property, domain and range for every ranged property",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, false, func(ctx context.Context, app *App) error {
				ex, err := inspect(ctx, cmd, app, args, token)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "PROPERTY\tDOMAIN\tRANGE")
				for _, r := range ex.Relations() {
					domain := r.Domain
					if domain == "" {
						domain = "-"
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Property, domain, r.Range)
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().StringVarP(&token, "format", "f", "", "Format token overriding the extension")
	return cmd
}

func instancesCmd(flags *globalFlags) *cobra.Command {
	var (
		token string
		class string
	)
	cmd := &cobra.Command{
		Use:   "instances <source>...",
		Short: "List individuals, optionally of one class",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, false, func(ctx context.Context, app *App) error {
				if _, err := inspect(ctx, cmd, app, args, token); err != nil {
					return err
				}
				f := instance.NewFetcher(app.store.Current())
				out := cmd.OutOrStdout()

				if class != "" {
					for _, rec := range f.ListInstanceURIs(class) {
						fmt.Fprintf(out, "%s\t%s\n", rec.URI, rec.Label)
					}
					return nil
				}

				byClass := f.ListClassesAndInstances()
				classes := make([]string, 0, len(byClass))
				for c := range byClass {
					classes = append(classes, c)
				}
				sort.Strings(classes)
				for _, c := range classes {
					fmt.Fprintln(out, c)
					for _, rec := range byClass[c] {
						fmt.Fprintf(out, "  %s\t%s\n", rec.URI, rec.Label)
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&token, "format", "f", "", "Format token overriding the extension")
	cmd.Flags().StringVar(&class, "class", "", "Only list individuals of this class URI")
	return cmd
}

func prefixesCmd(flags *globalFlags) *cobra.Command {
	var token string
	cmd := &cobra.Command{
		Use:   "prefixes <source>...",
		Short: "List the namespace prefixes declared by the documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, false, func(ctx context.Context, app *App) error {
				ex, err := inspect(ctx, cmd, app, args, token)
				if err != nil {
					return err
				}
				prefixes := ex.NamespacePrefixes()
				names := make([]string, 0, len(prefixes))
				for p := range prefixes {
					names = append(names, p)
				}
				sort.Strings(names)
				for _, p := range names {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", p, prefixes[p])
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&token, "format", "f", "", "Format token overriding the extension")
	return cmd
}

func loadCmd(flags *globalFlags) *cobra.Command {
	var (
		token   string
		toNeo4j bool
	)
	cmd := &cobra.Command{
		Use:   "load <source>...",
		Short: "Accumulate documents and print the outcome of each load",
		Long: `Load expands globs (including **) and loads every source in order into
one knowledge base. A document that contradicts itself is rejected and
leaves the accumulation unchanged. When NATS is configured every attempt
is recorded in the catalog and accepted graphs are published.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, true, func(ctx context.Context, app *App) error {
				outcomes, err := app.LoadAll(ctx, args, token)
				if err != nil {
					return err
				}
				failed := 0
				for _, o := range outcomes {
					fmt.Fprintln(cmd.OutOrStdout(), o.String())
					if o.Err != nil {
						failed++
					}
				}
				current := app.store.Current()
				fmt.Fprintf(cmd.OutOrStdout(), "knowledge base: %d triples, depth %d\n", current.Len(), current.Depth())

				if toNeo4j {
					n, err := app.Project(ctx)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "neo4j: %d statements\n", n)
				}
				if failed > 0 {
					return fmt.Errorf("%d of %d sources failed to load", failed, len(outcomes))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&token, "format", "f", "", "Format token overriding the extension")
	cmd.Flags().BoolVar(&toNeo4j, "neo4j", false, "Project the accumulation into Neo4j after loading")
	return cmd
}

func exportCmd(flags *globalFlags) *cobra.Command {
	var (
		token   string
		to      string
		profile string
		output  string
	)
	cmd := &cobra.Command{
		Use:   "export <source>...",
		Short: "Load documents and re-serialise the accumulation",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := format.ResolveFormat(to)
			if err != nil {
				return err
			}
			p, err := export.ParseProfile(profile)
			if err != nil {
				return err
			}
			return withApp(cmd, flags, false, func(ctx context.Context, app *App) error {
				if _, err := inspect(ctx, cmd, app, args, token); err != nil {
					return err
				}

				w := cmd.OutOrStdout()
				if output != "" {
					f, err := os.Create(output)
					if err != nil {
						return fmt.Errorf("create output file: %w", err)
					}
					defer f.Close()
					w = f
				}
				return export.NewExporter(p).Export(w, app.store.Current(), target)
			})
		},
	}
	cmd.Flags().StringVarP(&token, "format", "f", "", "Input format token overriding the extension")
	cmd.Flags().StringVarP(&to, "to", "t", ".ttl", "Output format token (.ttl, .nt, .nq, .jsonld, .rt)")
	cmd.Flags().StringVarP(&profile, "profile", "p", "full", "Export profile (full, schema, instances)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")
	return cmd
}

func watchCmd(flags *globalFlags) *cobra.Command {
	var metricsAddr string
	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Load a directory and keep loading files as they change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, true, func(ctx context.Context, app *App) error {
				addr := metricsAddr
				if addr == "" {
					addr = app.cfg.Watch.MetricsAddr
				}
				if addr != "" {
					srv := serveMetrics(addr, app)
					defer func() {
						shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
						defer cancel()
						_ = srv.Shutdown(shutdownCtx)
					}()
				}
				return watch(ctx, cmd.OutOrStdout(), app, args[0])
			})
		},
	}
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
	return cmd
}

func serveMetrics(addr string, app *App) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(app.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.logger.Error("Metrics server failed", "addr", addr, "error", err)
		}
	}()
	app.logger.Info("Serving metrics", "addr", addr)
	return srv
}

// watch loads the files already in dir, then every created or modified file,
// until ctx is cancelled.
func watch(ctx context.Context, out io.Writer, app *App, dir string) error {
	w, err := source.NewWatcher(app.cfg.Watch.Source(dir), app.logger)
	if err != nil {
		return err
	}

	existing, err := w.Existing()
	if err != nil {
		return err
	}
	for _, path := range existing {
		res, err := app.store.LoadURI(ctx, path, "")
		fmt.Fprintln(out, loadOutcome{Source: path, Result: res, Err: err}.String())
	}

	if err := w.Start(ctx); err != nil {
		return err
	}
	defer w.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events():
			if !ok {
				return nil
			}
			if ev.Operation == source.WatchOpDelete {
				app.logger.Info("Source removed; accumulated statements are kept", "path", ev.Path)
				continue
			}
			res, err := app.store.LoadURI(ctx, ev.AbsPath, "")
			fmt.Fprintln(out, loadOutcome{Source: ev.Path, Result: res, Err: err}.String())
		}
	}
}

func formatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List the supported serialisation formats",
		RunE: func(cmd *cobra.Command, args []string) error {
			exportable := make(map[format.Format]bool)
			for _, f := range export.Formats {
				exportable[f] = true
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "FORMAT\tEXTENSIONS\tMIME TYPE\tEXPORT")
			for _, f := range format.Formats() {
				info, _ := format.Lookup(f)
				exp := "no"
				if exportable[f] {
					exp = "yes"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", f, strings.Join(info.Extensions, " "), info.MIMEType, exp)
			}
			return tw.Flush()
		},
	}
}
