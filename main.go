// =============================================================================
// Scorecard Import - Main Entry Point
// =============================================================================
//
// USAGE:
//   scorecard parse <file...>  - Parse workbooks and print the result as JSON
//   scorecard process          - Process all workbooks in the input directory
//   scorecard template         - Write the blank import template
//   scorecard version          - Display the application version
//
// ARCHITECTURE:
//   - cmd/       : CLI command definitions (Cobra)
//   - internal/  : Parsing, scoring, validation and payload logic
//   - pkg/       : File handling utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/scorecard-import/cmd"
)

func main() {
	cmd.Execute()
}
