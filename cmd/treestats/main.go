// Package main provides the treestats CLI.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"github.com/TrevorS/treestats"
)

var rootCmd = &cobra.Command{
	Use:               "treestats",
	Short:             "Population-genetic statistics over tree sequences",
	Long:              `treestats reads a tree sequence stored as YAML tables and computes windowed diversity statistics and pairwise linkage disequilibrium.`,
	SilenceUsage:      true,
	PersistentPreRunE: setupLogging,
}

var ldCmd = &cobra.Command{
	Use:   "ld <tables.yaml>",
	Short: "Print r² between a focal site and its neighbours",
	Args:  cobra.ExactArgs(1),
	RunE:  runLD,
}

var matrixCmd = &cobra.Command{
	Use:   "r2-matrix <tables.yaml>",
	Short: "Print the full site × site r² matrix",
	Args:  cobra.ExactArgs(1),
	RunE:  runMatrix,
}

var diversityCmd = &cobra.Command{
	Use:   "diversity <tables.yaml>",
	Short: "Print windowed nucleotide diversity per sample set",
	Args:  cobra.ExactArgs(1),
	RunE:  runDiversity,
}

var (
	logLevel string

	focal       int
	direction   string
	maxSites    int
	maxDistance float64

	workers int

	mode          string
	windows       []float64
	spanNormalise bool
	polarised     bool
	sampleSets    []string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level: debug, info, warn or error")

	ldCmd.Flags().IntVar(&focal, "focal", 0, "Focal site index")
	ldCmd.Flags().StringVar(&direction, "direction", "forward", "Sweep direction: forward or reverse")
	ldCmd.Flags().IntVar(&maxSites, "max-sites", 100, "Maximum number of sites to compare")
	ldCmd.Flags().Float64Var(&maxDistance, "max-distance", -1, "Maximum distance from the focal site (negative means unlimited)")

	matrixCmd.Flags().IntVar(&workers, "workers", 0, "Number of workers (0 means one per CPU)")

	diversityCmd.Flags().StringVar(&mode, "mode", string(treestats.ModeSite), "Evaluation mode: site or branch")
	diversityCmd.Flags().Float64SliceVar(&windows, "windows", nil, "Window boundaries from 0 to the sequence length")
	diversityCmd.Flags().BoolVar(&spanNormalise, "span-normalise", false, "Divide each window by its width")
	diversityCmd.Flags().BoolVar(&polarised, "polarised", false, "Count only the derived side of each split")
	diversityCmd.Flags().StringArrayVar(&sampleSets, "set", nil, "Comma-separated sample node IDs (repeatable; default all samples)")

	rootCmd.AddCommand(ldCmd)
	rootCmd.AddCommand(matrixCmd)
	rootCmd.AddCommand(diversityCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setupLogging(cmd *cobra.Command, args []string) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		return fmt.Errorf("invalid --log-level %q: %w", logLevel, err)
	}
	treestats.SetLogger(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
	return nil
}

func loadTreeSequence(path string) (*treestats.TreeSequence, error) {
	tables, err := treestats.LoadTables(path)
	if err != nil {
		return nil, err
	}
	return treestats.NewTreeSequence(tables)
}

func parseDirection(s string) (treestats.Direction, error) {
	switch strings.ToLower(s) {
	case "forward":
		return treestats.Forward, nil
	case "reverse":
		return treestats.Reverse, nil
	default:
		return 0, fmt.Errorf("invalid --direction %q: want forward or reverse", s)
	}
}

func runLD(cmd *cobra.Command, args []string) error {
	dir, err := parseDirection(direction)
	if err != nil {
		return err
	}
	ts, err := loadTreeSequence(args[0])
	if err != nil {
		return err
	}
	calc, err := treestats.NewLDCalculator(ts)
	if err != nil {
		return err
	}
	defer calc.Close()

	limit := maxDistance
	if limit < 0 {
		limit = treestats.NoMaxDistance
	}
	values, err := calc.R2Array(focal, dir, maxSites, limit)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for k, v := range values {
		site := focal + (k+1)*int(dir)
		fmt.Fprintf(out, "%d\t%d\t%s\n", focal, site, formatFloat(v))
	}
	return nil
}

func runMatrix(cmd *cobra.Command, args []string) error {
	ts, err := loadTreeSequence(args[0])
	if err != nil {
		return err
	}
	m, err := treestats.R2Matrix(ts, workers)
	if err != nil {
		return err
	}
	return writeMatrix(cmd.OutOrStdout(), m)
}

func runDiversity(cmd *cobra.Command, args []string) error {
	ts, err := loadTreeSequence(args[0])
	if err != nil {
		return err
	}
	sets, err := parseSampleSets(sampleSets, ts)
	if err != nil {
		return err
	}
	cfg := treestats.DefaultStatConfig()
	cfg.Mode = treestats.Mode(mode)
	cfg.Windows = windows
	cfg.SpanNormalise = spanNormalise
	if polarised {
		cfg.Polarisation = treestats.Polarised
	}
	sigma, err := treestats.Diversity(ts, sets, cfg)
	if err != nil {
		return err
	}
	return writeMatrix(cmd.OutOrStdout(), sigma)
}

func parseSampleSets(values []string, ts *treestats.TreeSequence) ([][]treestats.NodeID, error) {
	if len(values) == 0 {
		return [][]treestats.NodeID{append([]treestats.NodeID(nil), ts.Samples()...)}, nil
	}
	sets := make([][]treestats.NodeID, 0, len(values))
	for _, value := range values {
		var set []treestats.NodeID
		for _, field := range strings.Split(value, ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(field), 10, 32)
			if err != nil {
				return nil, fmt.Errorf("invalid sample ID %q in --set %q: %w", field, value, err)
			}
			set = append(set, treestats.NodeID(id))
		}
		sets = append(sets, set)
	}
	return sets, nil
}

func writeMatrix(w io.Writer, m *mat.Dense) error {
	if m.IsEmpty() {
		return nil
	}
	rows, cols := m.Dims()
	for i := 0; i < rows; i++ {
		fields := make([]string, cols)
		for j := 0; j < cols; j++ {
			fields[j] = formatFloat(m.At(i, j))
		}
		if _, err := fmt.Fprintln(w, strings.Join(fields, "\t")); err != nil {
			return err
		}
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}
