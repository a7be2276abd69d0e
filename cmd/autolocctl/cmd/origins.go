package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/gfz-potsdam/autoloc/autoloc/stats"
)

func init() {
	RootCmd.AddCommand(originsCmd)
}

var originsCmd = &cobra.Command{
	Use:   "origins",
	Short: "Dump the origins currently live on a running autolocd",
	Run: func(_ *cobra.Command, _ []string) {
		ConfigureVerbosity()
		if err := runOrigins(rootServerFlag); err != nil {
			log.Fatal(err)
		}
	},
}

func runOrigins(server string) error {
	origins, err := fetchOrigins(server)
	if err != nil {
		return fmt.Errorf("fetching origins from %s: %w", server, err)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetColWidth(20)
	table.SetHeader([]string{"ID", "Lat", "Lon", "Depth", "Score", "Def.Phases", "AziGap"})
	for _, o := range origins {
		table.Append([]string{
			strconv.FormatUint(o.ID, 10),
			strconv.FormatFloat(o.Lat, 'f', 3, 64),
			strconv.FormatFloat(o.Lon, 'f', 3, 64),
			strconv.FormatFloat(o.Depth, 'f', 1, 64),
			strconv.FormatFloat(o.Score, 'f', 1, 64),
			strconv.Itoa(o.DefiningPhaseCount),
			strconv.FormatFloat(o.AzimuthalGap, 'f', 0, 64),
		})
	}
	table.Render()
	return nil
}

func fetchOrigins(server string) ([]stats.OriginSnapshot, error) {
	return fetchJSON[stats.OriginSnapshot](server + "/origins")
}
