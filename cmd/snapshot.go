// =============================================================================
// Contas Publicas - Snapshot Command
// =============================================================================
//
// COMMAND USAGE:
//   contas snapshot [flags]
//
// FLAGS:
//   --file       : Export to read (default: current_file from config)
//   --funcao     : Filter by função ("Todas" = no filter)
//   --subfuncao  : Filter by subfunção, applied after --funcao
//   --categoria  : Filter by categoria econômica, applied after --subfuncao
//   --metric     : Breakdown metric: pago, liquidado or empenhado até o mês
//
// A missing current export stops the command with an error.
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/contas-publicas/internal/columns"
	"github.com/ginjaninja78/contas-publicas/internal/numeric"
	"github.com/ginjaninja78/contas-publicas/internal/pipeline"
	"github.com/ginjaninja78/contas-publicas/internal/snapshot"
)

var (
	snapshotFile string
	snapQuery    snapshot.Query
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Summarize the current month export",
	Long: `Reads the current export and prints the eight monetary totals, the budget
execution percentage (pago até o mês / orçado atualizado), the top funções and
the subfunção and categoria breakdowns of the selected metric.`,
	RunE: runSnapshot,
}

func init() {
	rootCmd.AddCommand(snapshotCmd)

	snapshotCmd.Flags().StringVar(&snapshotFile, "file", "", "Export to read (default: current_file from config)")
	snapshotCmd.Flags().StringVar(&snapQuery.Funcao, "funcao", snapshot.All, "Filter by função")
	snapshotCmd.Flags().StringVar(&snapQuery.Subfuncao, "subfuncao", snapshot.All, "Filter by subfunção")
	snapshotCmd.Flags().StringVar(&snapQuery.Categoria, "categoria", snapshot.All, "Filter by categoria econômica")
	snapshotCmd.Flags().StringVar(&snapQuery.Metric, "metric", "pago", "Breakdown metric: pago, liquidado or empenhado")
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	cfg := *mainConfig
	if snapshotFile != "" {
		cfg.CurrentFile = snapshotFile
	}

	p := pipeline.New(&cfg, logger, nil)
	ds, err := p.LoadCurrent(cmd.Context())
	if err != nil {
		return err
	}

	q := snapQuery
	q.Metric = metricField(q.Metric)

	snap, err := snapshot.Build(ds, q)
	if err != nil {
		return err
	}
	for _, w := range snap.Warnings {
		logger.Warn("snapshot warning", "warning", w)
	}

	printSnapshot(cmd.OutOrStdout(), snap)
	return nil
}

// metricField accepts the short names used on the command line.
func metricField(m string) string {
	switch strings.ToLower(m) {
	case "", "pago":
		return columns.FieldPagoAteOMes
	case "liquidado":
		return columns.FieldLiquidadoAteOMes
	case "empenhado":
		return columns.FieldEmpenhadoAteOMes
	default:
		return m
	}
}

func printSnapshot(w io.Writer, s *snapshot.Snapshot) {
	fmt.Fprintf(w, "=== Contas Publicas - %s ===\n", s.Source)
	fmt.Fprintf(w, "Linhas: %d (filtradas: %d)\n", s.Rows, s.FilteredRows)
	fmt.Fprintf(w, "Filtros: função=%s | subfunção=%s | categoria=%s\n\n",
		s.Query.Funcao, s.Query.Subfuncao, s.Query.Categoria)

	fmt.Fprintln(w, "Totais:")
	for _, t := range s.Totals {
		value := numeric.FormatBRL(t.Value)
		if !t.Available {
			value += " (coluna ausente)"
		}
		fmt.Fprintf(w, "  %-22s %s\n", t.Label+":", value)
	}

	if s.ExecutionAvailable {
		fmt.Fprintf(w, "\nExecução orçamentária: %s%%\n", strings.Replace(fmt.Sprintf("%.2f", s.Execution), ".", ",", 1))
	} else {
		fmt.Fprintln(w, "\nExecução orçamentária: não disponível")
	}

	if len(s.TopFuncoes) > 0 {
		fmt.Fprintln(w, "\nFunções com maior gasto:")
		for i, r := range s.TopFuncoes {
			fmt.Fprintf(w, "  %d. %s: %s\n", i+1, r.Name, numeric.FormatBRL(r.Total))
		}
	}

	label := snapshot.Labels[s.Query.Metric]
	printShares(w, fmt.Sprintf("%s por subfunção", label), s.BySubfuncao)
	printShares(w, fmt.Sprintf("%s por categoria econômica", label), s.ByCategoria)

	if len(s.FuncaoOptions) > 0 {
		fmt.Fprintf(w, "\nFunções disponíveis: %s\n", strings.Join(s.FuncaoOptions, ", "))
	}
}

func printShares(w io.Writer, title string, shares []snapshot.Share) {
	if len(shares) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s:\n", title)
	for _, sh := range shares {
		fmt.Fprintf(w, "  %-40s %s\n", sh.Name, numeric.FormatBRL(sh.Value))
	}
}
