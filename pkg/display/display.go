// Package display holds the small amount of terminal output the CLI does:
// a progress spinner for long waits and a table for build status.
package display

import (
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/olekukonko/tablewriter"

	"github.com/bacalhau-project/imagesmith/pkg/logger"
)

// NewSpinner creates a new spinner to alert the user about the progress
func NewSpinner(message string) *spinner.Spinner {
	l := logger.Get()
	l.Debugf("Creating spinner: %s", message)

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Prefix = message + " "
	s.Color("green")
	s.Start()

	return s
}

// StatusTable renders field/value pairs for one build.
type StatusTable struct {
	table *tablewriter.Table
}

func NewStatusTable(w io.Writer) *StatusTable {
	if w == nil {
		w = os.Stdout
	}
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Field", "Value"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	table.SetNoWhiteSpace(true)

	return &StatusTable{table: table}
}

func (st *StatusTable) AddRow(field, value string) {
	st.table.Append([]string{field, value})
}

func (st *StatusTable) Render() {
	st.table.Render()
}
