package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"gtheory/adapters/file"
	"gtheory/domain/gtheory"
	"gtheory/internal"
	"gtheory/internal/config"
	"gtheory/internal/design"
	"gtheory/internal/engine"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	internal.DefaultLogger = internal.NewLogger(internal.ParseLogLevel(cfg.LogLevel))

	rootCmd := &cobra.Command{
		Use:   "gtheory",
		Short: "Generalizability theory variance component and reliability analysis",
	}

	rootCmd.AddCommand(
		newAnovaCmd(cfg),
		newGCoeffsCmd(cfg),
		newDStudyCmd(cfg),
		newIntervalsCmd(cfg),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// buildSession parses the design, loads the data file and prepares an
// analysis session. Shared by every subcommand.
func buildSession(dataFile, designStr, responseCol string) (*engine.Session, error) {
	if dataFile == "" {
		return nil, fmt.Errorf("a data file is required (argument or DATA_FILE)")
	}
	if designStr == "" {
		return nil, fmt.Errorf("a design string is required (--design or DESIGN)")
	}

	algebra, facets, err := design.Parse(designStr)
	if err != nil {
		return nil, err
	}

	reader := file.NewDataReader(dataFile, internal.DefaultLogger)
	result, err := reader.Read(facets, responseCol)
	if err != nil {
		return nil, err
	}

	return engine.NewSession(result.Table, algebra, internal.DefaultLogger)
}

func dataFileArg(args []string, cfg *config.Config) string {
	if len(args) > 0 {
		return args[0]
	}
	return cfg.Data.File
}

func newAnovaCmd(cfg *config.Config) *cobra.Command {
	var designStr, responseCol string

	cmd := &cobra.Command{
		Use:   "anova [data-file]",
		Short: "Estimate variance components from an observation file",
		Long: `Estimate one variance component per design effect using Henderson's Method 1.

Example: gtheory anova scores.csv --design "person x item"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := buildSession(dataFileArg(args, cfg), designStr, responseCol)
			if err != nil {
				return err
			}
			if _, err := session.CalculateAnova(); err != nil {
				return err
			}
			return session.WriteAnovaSummary(os.Stdout)
		},
	}

	cmd.Flags().StringVar(&designStr, "design", cfg.Analysis.Design, "Design string, e.g. \"person x item\" or \"i:p\"")
	cmd.Flags().StringVar(&responseCol, "response", cfg.Data.ResponseColumn, "Response column name")

	return cmd
}

func newGCoeffsCmd(cfg *config.Config) *cobra.Command {
	var designStr, responseCol string
	var fixedFacets []string

	cmd := &cobra.Command{
		Use:   "gcoeffs [data-file]",
		Short: "Compute generalizability coefficients",
		Long: `Compute relative and absolute generalizability coefficients for every
facet of differentiation.

Example: gtheory gcoeffs scores.csv --design "person x item" --fixed item`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := buildSession(dataFileArg(args, cfg), designStr, responseCol)
			if err != nil {
				return err
			}
			if _, err := session.CalculateAnova(); err != nil {
				return err
			}
			req := &gtheory.GCoefficientRequest{FixedFacets: fixedFacets}
			if _, err := session.GCoefficients(req); err != nil {
				return err
			}
			if err := session.WriteVarianceSummary(os.Stdout); err != nil {
				return err
			}
			return session.WriteGCoefficientSummary(os.Stdout)
		},
	}

	cmd.Flags().StringVar(&designStr, "design", cfg.Analysis.Design, "Design string, e.g. \"person x item\" or \"i:p\"")
	cmd.Flags().StringVar(&responseCol, "response", cfg.Data.ResponseColumn, "Response column name")
	cmd.Flags().StringSliceVar(&fixedFacets, "fixed", nil, "Facets to treat as fixed rather than random")

	return cmd
}

func newDStudyCmd(cfg *config.Config) *cobra.Command {
	var designStr, responseCol string
	var fixedFacets, levelSpecs []string

	cmd := &cobra.Command{
		Use:   "dstudy [data-file]",
		Short: "Run a decision study over candidate facet sizes",
		Long: `Evaluate generalizability coefficients under hypothetical facet sizes.
Each --levels flag gives one facet and its candidate counts; the Cartesian
product of all candidates defines the scenarios.

Example: gtheory dstudy scores.csv --design "person x item" --levels person=10 --levels item=5,10,15,20`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			levels, err := parseLevelSpecs(levelSpecs)
			if err != nil {
				return err
			}
			session, err := buildSession(dataFileArg(args, cfg), designStr, responseCol)
			if err != nil {
				return err
			}
			if _, err := session.CalculateAnova(); err != nil {
				return err
			}
			req := &gtheory.DStudyRequest{Levels: levels, FixedFacets: fixedFacets}
			if _, err := session.DStudy(req); err != nil {
				return err
			}
			return session.WriteDStudySummary(os.Stdout)
		},
	}

	cmd.Flags().StringVar(&designStr, "design", cfg.Analysis.Design, "Design string, e.g. \"person x item\" or \"i:p\"")
	cmd.Flags().StringVar(&responseCol, "response", cfg.Data.ResponseColumn, "Response column name")
	cmd.Flags().StringSliceVar(&fixedFacets, "fixed", nil, "Facets to treat as fixed rather than random")
	cmd.Flags().StringArrayVar(&levelSpecs, "levels", nil, "Candidate sizes per facet, e.g. item=5,10,15")

	return cmd
}

func newIntervalsCmd(cfg *config.Config) *cobra.Command {
	var designStr, responseCol string
	var alpha float64

	cmd := &cobra.Command{
		Use:   "intervals [data-file]",
		Short: "Compute confidence intervals for facet level means",
		Long: `Compute normal-approximation confidence intervals around the observed mean
of every main-effect facet level.

Example: gtheory intervals scores.csv --design "person x item" --alpha 0.01`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := buildSession(dataFileArg(args, cfg), designStr, responseCol)
			if err != nil {
				return err
			}
			if _, err := session.CalculateAnova(); err != nil {
				return err
			}
			req := &gtheory.IntervalRequest{Alpha: alpha}
			if _, err := session.ConfidenceIntervals(req); err != nil {
				return err
			}
			return session.WriteIntervalSummary(os.Stdout)
		},
	}

	cmd.Flags().StringVar(&designStr, "design", cfg.Analysis.Design, "Design string, e.g. \"person x item\" or \"i:p\"")
	cmd.Flags().StringVar(&responseCol, "response", cfg.Data.ResponseColumn, "Response column name")
	cmd.Flags().Float64Var(&alpha, "alpha", cfg.Analysis.Alpha, "Two-sided significance level")

	return cmd
}

// parseLevelSpecs turns "item=5,10,15" flags into the candidate level map
func parseLevelSpecs(specs []string) (map[string][]int, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("at least one --levels flag is required")
	}
	levels := make(map[string][]int, len(specs))
	for _, spec := range specs {
		parts := strings.SplitN(spec, "=", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return nil, fmt.Errorf("invalid --levels value %q, expected facet=n1,n2,...", spec)
		}
		facet := strings.TrimSpace(strings.ToLower(parts[0]))
		for _, raw := range strings.Split(parts[1], ",") {
			n, err := strconv.Atoi(strings.TrimSpace(raw))
			if err != nil {
				return nil, fmt.Errorf("invalid level count %q for facet %s", raw, facet)
			}
			levels[facet] = append(levels[facet], n)
		}
	}
	return levels, nil
}
