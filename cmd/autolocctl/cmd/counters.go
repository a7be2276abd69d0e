package cmd

import (
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/gfz-potsdam/autoloc/autoloc/stats"
)

func init() {
	RootCmd.AddCommand(countersCmd)
}

var countersCmd = &cobra.Command{
	Use:   "counters",
	Short: "Dump the decision counters of a running autolocd",
	Run: func(_ *cobra.Command, _ []string) {
		ConfigureVerbosity()
		if err := runCounters(rootServerFlag); err != nil {
			log.Fatal(err)
		}
	},
}

func runCounters(server string) error {
	counters, err := stats.FetchCounters(server)
	if err != nil {
		return fmt.Errorf("fetching counters from %s: %w", server, err)
	}

	names := make([]string, 0, len(counters))
	for name := range counters {
		names = append(names, name)
	}
	sort.Strings(names)

	table := tablewriter.NewWriter(os.Stdout)
	table.SetColWidth(20)
	table.SetHeader([]string{"Counter", "Value"})
	for _, name := range names {
		table.Append([]string{name, strconv.FormatInt(counters[name], 10)})
	}
	table.Render()
	return nil
}
