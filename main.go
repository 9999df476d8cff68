// =============================================================================
// Contas Publicas - Main Entry Point
// =============================================================================
//
// USAGE:
//   contas snapshot   - Summarize the current month export
//   contas forecast   - Forecast spending from the history directory
//   contas validate   - Check export headers, locale and file names
//   contas version    - Display the application version
//
// LAYOUT:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/      : Parsing, aggregation, forecasting, reports, storage
//   - pkg/utils      : File discovery, naming and run logs
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/contas-publicas/cmd"
)

func main() {
	cmd.Execute()
}
