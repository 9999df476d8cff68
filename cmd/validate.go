// =============================================================================
// Contas Publicas - Validate Command
// =============================================================================
//
// COMMAND USAGE:
//   contas validate [files...]
//
// Without arguments the current export and every history export are checked.
// For each file the command reports:
//   - the header resolved for every canonical field, and the missing ones
//   - the decimal convention detected for every numeric column
//   - the month derived from the file name (history files only)
//
// Nothing is written. The command fails when any file cannot be read.
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/contas-publicas/internal/aggregate"
	"github.com/ginjaninja78/contas-publicas/internal/columns"
	"github.com/ginjaninja78/contas-publicas/internal/csvparser"
	"github.com/ginjaninja78/contas-publicas/internal/numeric"
	"github.com/ginjaninja78/contas-publicas/pkg/utils"
)

var validateCmd = &cobra.Command{
	Use:   "validate [files...]",
	Short: "Check export headers, decimal convention and file names",
	RunE:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	cfg := mainConfig

	type target struct {
		path    string
		history bool
	}
	var targets []target
	if len(args) > 0 {
		for _, a := range args {
			targets = append(targets, target{path: a, history: true})
		}
	} else {
		targets = append(targets, target{path: cfg.CurrentFile})
		paths, err := utils.DiscoverFiles(cfg.HistoryDir, cfg.HistoryGlob)
		if err != nil {
			return err
		}
		for _, p := range paths {
			targets = append(targets, target{path: p, history: true})
		}
	}

	var failures int
	for _, t := range targets {
		if err := validateFile(out, t.path, t.history); err != nil {
			failures++
			fmt.Fprintf(out, "  ✗ %v\n\n", err)
			logger.Warn("validation failed", "file", t.path, "error", err)
		}
	}

	fmt.Fprintf(out, "%d arquivo(s) verificado(s), %d com erro\n", len(targets), failures)
	if failures > 0 {
		return fmt.Errorf("%d file(s) could not be validated", failures)
	}
	return nil
}

func validateFile(w io.Writer, path string, history bool) error {
	fmt.Fprintf(w, "=== %s ===\n", path)

	if history {
		period, recognized, err := aggregate.PeriodFromFilename(path)
		switch {
		case err != nil:
			return err
		case !recognized:
			fmt.Fprintf(w, "  Mês: %s (prefixo não reconhecido, usando janeiro)\n", period.Label())
		default:
			fmt.Fprintf(w, "  Mês: %s\n", period.Label())
		}
	}

	ds, err := csvparser.Parse(path, mainConfig.CSVSettings)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "  Linhas: %d\n", ds.RowCount)

	fm := columns.BuildFieldMap(ds.Headers)
	numericFields := columns.NumericFields()
	for _, f := range fm.Fields() {
		h, ok := fm.Lookup(f)
		if !ok {
			continue
		}
		line := fmt.Sprintf("  %-30s <- %q", f, h)
		if slices.Contains(numericFields, f) {
			col := numeric.Parse(ds.Column(h))
			convention := "ponto decimal"
			if col.CommaDecimal {
				convention = "vírgula decimal"
			}
			line += fmt.Sprintf(" [%s, %d inválido(s)]", convention, col.Defaulted)
		}
		fmt.Fprintln(w, line)
	}

	if missing := fm.Missing(); len(missing) > 0 {
		fmt.Fprintln(w, "  Campos ausentes:")
		for _, f := range missing {
			fmt.Fprintf(w, "    - %s\n", f)
		}
	}

	if _, ok := columns.Resolve(ds.Headers, mainConfig.TargetField); !ok {
		fmt.Fprintf(w, "  ! coluna alvo %q ausente em %s\n", mainConfig.TargetField, filepath.Base(path))
	}
	fmt.Fprintln(w)
	return nil
}
