package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"churnlens/internal"
	"churnlens/internal/api"
	"churnlens/internal/config"
	apperrors "churnlens/internal/errors"
	"churnlens/internal/ingest"
	"churnlens/internal/pipeline"
	"churnlens/internal/testkit"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

// Exit codes by error category
const (
	exitFailure = iota + 1
	exitConfig
	exitSchema
	exitDomain
	exitComputation
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	rootCmd := &cobra.Command{
		Use:           "churnlens",
		Short:         "Bank customer churn segmentation and risk scoring",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newRunCmd(),
		newValidateCmd(),
		newServeCmd(),
		newGenerateCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	switch apperrors.GetCode(err) {
	case apperrors.CodeConfigInvalid:
		return exitConfig
	case apperrors.CodeSchemaError:
		return exitSchema
	case apperrors.CodeDomainError:
		return exitDomain
	case apperrors.CodeComputationError:
		return exitComputation
	}
	return exitFailure
}

// runFlags are shared by run and validate; each overrides its env variable
type runFlags struct {
	input      string
	outputDir  string
	configFile string
	policy     string
	workers    int
	noWorkbook bool
}

func (f *runFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.input, "input", "i", "", "Customer table (.csv or .xlsx); overrides CHURN_INPUT")
	cmd.Flags().StringVarP(&f.outputDir, "out", "o", "", "Output directory; overrides CHURN_OUTPUT_DIR")
	cmd.Flags().StringVarP(&f.configFile, "config", "c", "", "YAML thresholds file; overrides CHURN_CONFIG")
	cmd.Flags().StringVar(&f.policy, "domain-policy", "", "reject or drop rows with out-of-domain values")
	cmd.Flags().IntVar(&f.workers, "workers", 0, "Aggregation workers (0 = all CPUs)")
	cmd.Flags().BoolVar(&f.noWorkbook, "no-workbook", false, "Skip churn_summary.xlsx")
}

// load resolves env config and layers the flags on top
func (f *runFlags) load() (*config.Config, error) {
	cfg, err := config.LoadWithFile(f.configFile)
	if err != nil {
		return nil, err
	}
	if f.input != "" {
		cfg.Paths.Input = f.input
	}
	if f.outputDir != "" {
		cfg.Paths.OutputDir = f.outputDir
	}
	if f.policy != "" {
		policy, err := ingest.ParseDomainPolicy(f.policy)
		if err != nil {
			return nil, apperrors.ConfigInvalid(err.Error())
		}
		cfg.Pipeline.DomainPolicy = policy
	}
	if f.workers > 0 {
		cfg.Pipeline.Workers = f.workers
	}
	if f.noWorkbook {
		cfg.Pipeline.Workbook = false
	}
	return cfg, cfg.Validate()
}

// barProgress advances a terminal progress bar once per pipeline stage
type barProgress struct {
	bar *progressbar.ProgressBar
}

func (b barProgress) StageDone(stage string) {
	b.bar.Describe(stage)
	_ = b.bar.Add(1)
}

func newRunCmd() *cobra.Command {
	var flags runFlags
	var quiet bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Segment, score and summarise a customer table",
		Long: `Run the full pipeline: load and validate the customer table, assign
segments, score churn risk, aggregate per dimension, and write every output
table to the output directory.

Example: churnlens run -i Customer-Churn-Records.csv -o out/`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			logger := internal.NewDefaultLogger()
			p, err := pipeline.New(cfg, logger)
			if err != nil {
				return err
			}
			if !quiet {
				p.WithProgress(barProgress{bar: progressbar.Default(int64(len(pipeline.Stages)), "read")})
			}

			res, err := p.Run(cmd.Context())
			if err != nil {
				return err
			}

			k := res.Report.KPI
			fmt.Fprintf(cmd.OutOrStdout(), "\nrun %s\n", res.Manifest.RunID)
			fmt.Fprintf(cmd.OutOrStdout(), "customers: %d  churned: %d  churn rate: %.2f%%  balance at risk: %s\n",
				k.TotalCustomers, k.ChurnedCustomers, 100*k.ChurnRate, k.BalanceAtRisk)
			if n := len(res.Errors); n > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "scoring errors: %d (see scoring_errors.csv)\n", n)
			}
			for _, ins := range res.Report.Insights {
				if ins.Rank > 3 {
					break
				}
				fmt.Fprintf(cmd.OutOrStdout(), "top segment %d: %s=%s churn %.2f%% (lift %.2f, n=%d)\n",
					ins.Rank, ins.Dimension, ins.Group, 100*ins.ChurnRate, ins.Lift, ins.Count)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d files written to %s\n", len(res.Manifest.Outputs), cfg.Paths.OutputDir)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Hide the progress bar")
	return cmd
}

func newValidateCmd() *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a customer table against the schema and value domains",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			p, err := pipeline.New(cfg, internal.NewDefaultLogger())
			if err != nil {
				return err
			}
			table, report, err := p.Validate(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d of %d rows valid", cfg.Paths.Input, report.RowsAccepted, report.RowsRead)
			if len(report.Dropped) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), ", %d values out of domain", len(report.Dropped))
			}
			fmt.Fprintf(cmd.OutOrStdout(), " (card type: %t, points: %t)\n", table.HasCardType, table.HasPoints)
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

func newServeCmd() *cobra.Command {
	var outputDir string
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the tables of the last run as a read-only JSON feed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if outputDir != "" {
				cfg.Paths.OutputDir = outputDir
			}
			if port != "" {
				cfg.Server.Port = port
			}
			gin.SetMode(cfg.Server.GinMode)

			logger := internal.NewDefaultLogger()
			return api.Serve(cmd.Context(), ":"+cfg.Server.Port, api.NewFeedHandler(cfg.Paths.OutputDir, logger), logger)
		},
	}

	cmd.Flags().StringVarP(&outputDir, "out", "o", "", "Output directory of a finished run; overrides CHURN_OUTPUT_DIR")
	cmd.Flags().StringVarP(&port, "port", "p", "", "Listen port; overrides CHURN_SERVE_PORT")
	return cmd
}

func newGenerateCmd() *cobra.Command {
	cfg := testkit.DefaultCustomerConfig()
	var output string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a reproducible synthetic customer table for trials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.CustomerCount < 1 {
				return apperrors.InvalidInput("count must be positive")
			}
			f, err := os.Create(output)
			if err != nil {
				return apperrors.Wrapf(err, "create %s", output)
			}
			if err := testkit.NewCustomerGenerator(cfg).WriteCSV(f); err != nil {
				f.Close()
				return apperrors.Wrapf(err, "write %s", output)
			}
			if err := f.Close(); err != nil {
				return apperrors.Wrapf(err, "close %s", output)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d customers written to %s\n", cfg.CustomerCount, output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "out", "o", "customers.csv", "Output CSV path")
	cmd.Flags().IntVarP(&cfg.CustomerCount, "count", "n", cfg.CustomerCount, "Number of customers")
	cmd.Flags().Int64Var(&cfg.Seed, "seed", cfg.Seed, "Random seed for deterministic generation")
	cmd.Flags().Float64Var(&cfg.ComplaintRate, "complaint-rate", cfg.ComplaintRate, "Share of customers with a complaint")
	cmd.Flags().Float64Var(&cfg.MissingSignalRate, "missing-rate", cfg.MissingSignalRate, "Share of rows with a blank complaint or satisfaction cell")
	cmd.Flags().BoolVar(&cfg.WithCardType, "card-type", cfg.WithCardType, "Include Card Type and Point Earned columns")
	return cmd
}
