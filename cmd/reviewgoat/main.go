package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/IshaanNene/ReviewGoat/internal/api"
	"github.com/IshaanNene/ReviewGoat/internal/app"
	"github.com/IshaanNene/ReviewGoat/internal/config"
	"github.com/IshaanNene/ReviewGoat/internal/observability"
	"github.com/IshaanNene/ReviewGoat/internal/storage"
)

var (
	cfgFile     string
	verbose     bool
	concurrency int
	maxPages    int
	addr        string
	format      string
	asJSON      bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "reviewgoat",
		Short: "ReviewGoat: product review scraper for Ceneo",
		Long: `ReviewGoat scrapes every customer review of a product listed on a
price-comparison site, stores the reviews with a statistical summary and
exports them as JSON, CSV, XLSX or YAML, with recommendation and rating charts.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(scrapeCmd())
	rootCmd.AddCommand(productsCmd())
	rootCmd.AddCommand(showCmd())
	rootCmd.AddCommand(chartsCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig loads and validates the configuration and builds the logger.
func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if concurrency > 0 {
		cfg.Scraper.Concurrency = concurrency
	}
	if maxPages > 0 {
		cfg.Scraper.MaxPages = maxPages
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}
	if err := config.Validate(cfg); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, observability.NewLogger(os.Stderr, cfg.Logging, verbose), nil
}

// env is what every service-backed command runs with.
type env struct {
	cfg     *config.Config
	svc     *app.Service
	metrics *observability.Metrics
	logger  *slog.Logger
}

// withService runs fn with a ready Service and a context canceled on
// SIGINT/SIGTERM.
func withService(fn func(ctx context.Context, e env) error) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		metrics = observability.NewMetrics()
	}

	svc, err := app.New(ctx, cfg, metrics, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.Error("service close error", "error", err)
		}
	}()

	return fn(ctx, env{cfg: cfg, svc: svc, metrics: metrics, logger: logger})
}

// userError turns a service error into the message printed for the user.
func userError(err error) error {
	if verbose {
		return err
	}
	return errors.New(app.UserMessage(err))
}

// scrapeCmd creates the "scrape" subcommand.
func scrapeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape <product-id>...",
		Short: "Scrape and store all reviews of one or more products",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(func(ctx context.Context, e env) error {
				e.logger.Info("starting scrape", "products", args, "concurrency", e.cfg.Scraper.Concurrency)

				start := time.Now()
				results := e.svc.ExtractMany(ctx, args)

				failed := 0
				for _, r := range results {
					if r.Err != nil {
						failed++
						e.logger.Debug("product failed", "product_id", r.ProductID, "error", r.Err)
						fmt.Printf("✗ %s: %s\n", r.ProductID, app.UserMessage(r.Err))
						continue
					}
					fmt.Printf("✓ %s %q: %d reviews, average %s\n",
						r.ProductID, r.Product.Name, r.Product.Stats.OpinionsCount, formatAverage(r.Product.Stats.AverageStars))
				}
				fmt.Printf("\nDone in %s (storage: %s)\n", time.Since(start).Round(time.Millisecond), e.svc.StoreName())

				if failed > 0 {
					return fmt.Errorf("%d of %d products failed", failed, len(results))
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&concurrency, "concurrency", "n", 0, "products scraped at once (default from config)")
	cmd.Flags().IntVar(&maxPages, "max-pages", 0, "maximum review pages per product (0 = config default)")
	return cmd
}

// productsCmd creates the "products" subcommand.
func productsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "products",
		Short: "List stored products",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(func(ctx context.Context, e env) error {
				products, err := e.svc.Products(ctx)
				if err != nil {
					return userError(err)
				}
				if asJSON {
					return printJSON(products)
				}

				tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tNAME\tREVIEWS\tPROS\tCONS\tAVERAGE")
				for _, p := range products {
					fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%s\n",
						p.ID, p.Name, p.Stats.OpinionsCount, p.Stats.ProsCount, p.Stats.ConsCount, formatAverage(p.Stats.AverageStars))
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

// showCmd creates the "show" subcommand.
func showCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <product-id>",
		Short: "Show a stored product and its reviews",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(func(ctx context.Context, e env) error {
				product, reviews, err := e.svc.Product(ctx, args[0])
				if err != nil {
					return userError(err)
				}
				if asJSON {
					return printJSON(map[string]any{"product": product, "opinions": reviews})
				}

				s := product.Stats
				fmt.Printf("%s  %s\n\n", product.ID, product.Name)
				fmt.Printf("  Reviews:          %d\n", s.OpinionsCount)
				fmt.Printf("  With pros:        %d\n", s.ProsCount)
				fmt.Printf("  With cons:        %d\n", s.ConsCount)
				fmt.Printf("  With both:        %d\n", s.ProsConsCount)
				fmt.Printf("  Average stars:    %s\n", formatAverage(s.AverageStars))
				fmt.Printf("  Recommendations:  %d recommend, %d do not, %d unset\n",
					s.Recommendations.Recommends, s.Recommendations.DoesNotRecommend, s.Recommendations.Unset)
				printTop("Top pros", s.Pros)
				printTop("Top cons", s.Cons)

				fmt.Println()
				tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tAUTHOR\tSTARS\tRECOMMENDATION\tUSEFUL\tPOSTED")
				for _, r := range reviews {
					fmt.Fprintf(tw, "%s\t%s\t%g\t%s\t%d/%d\t%s\n",
						r.ID, r.Author, r.Stars, r.Recommendation, r.Useful, r.Unuseful, r.PostDate)
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

// chartsCmd creates the "charts" subcommand.
func chartsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "charts <product-id>",
		Short: "Render recommendation and rating charts of a stored product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(func(ctx context.Context, e env) error {
				paths, err := e.svc.Charts(ctx, args[0])
				if err != nil {
					return userError(err)
				}
				fmt.Printf("Pie chart: %s\nBar chart: %s\n", paths.Pie, paths.Bar)
				return nil
			})
		},
	}
}

// exportCmd creates the "export" subcommand.
func exportCmd() *cobra.Command {
	names := make([]string, len(storage.Formats))
	for i, f := range storage.Formats {
		names[i] = string(f)
	}

	cmd := &cobra.Command{
		Use:   "export <product-id>",
		Short: "Export the stored reviews of a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := storage.ParseFormat(format)
			if err != nil {
				return userError(err)
			}
			return withService(func(ctx context.Context, e env) error {
				path, err := e.svc.Export(ctx, args[0], f)
				if err != nil {
					return userError(err)
				}
				fmt.Println(path)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "csv", "export format: "+strings.Join(names, ", "))
	return cmd
}

// serveCmd creates the "serve" subcommand.
func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(func(ctx context.Context, e env) error {
				srv := api.NewServer(e.cfg.Server, e.svc, e.metrics, e.cfg.Metrics.Path, e.logger)
				return srv.ListenAndServe(ctx)
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}

// configCmd creates the "config" subcommand for inspecting configuration.
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(os.Stdout)
			enc.SetIndent(2)
			if err := enc.Encode(cfg); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("ReviewGoat %s\n", config.Version)
		},
	}
}
