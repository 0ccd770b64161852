package app

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/xxxsen/mediaidx/internal/model"
)

var (
	alertColor = color.New(color.FgRed, color.Bold)
	okColor    = color.New(color.FgGreen)
	failColor  = color.New(color.FgRed)
)

// printCollisions renders one alert block per collision, in merge order.
func printCollisions(w io.Writer, events []model.CollisionEvent) {
	for _, ev := range events {
		alertColor.Fprintf(w, "%s DUPLICATION ALERT %s\n", strings.Repeat("#", 20), strings.Repeat("#", 20))
		fmt.Fprintf(w, "         Object:\t%s\n", ev.Name)
		fmt.Fprintf(w, "  Existing item:\t%s\n", ev.ExistingOriginLabel)
		fmt.Fprintf(w, "   Current path:\t%s\n", ev.IncomingOriginLabel)
		fmt.Fprintf(w, "     Indexed as:\t%s\n", ev.AliasKey)
	}
}

func printWarnings(w io.Writer, warnings []error) {
	for _, err := range warnings {
		failColor.Fprintf(w, "warning: %v\n", err)
	}
}

func printSummary(w io.Writer, outputFile string, report *RunReport) {
	labels := make([]string, 0, len(report.Volumes))
	for _, v := range report.Volumes {
		labels = append(labels, v.Label)
	}
	fmt.Fprintf(w, "     Disk labels:\t%v\n", labels)
	fmt.Fprintf(w, "     Items found:\t%s\n", humanize.Comma(int64(report.Snapshot.Len())))
	fmt.Fprintf(w, "      Collisions:\t%s\n", humanize.Comma(int64(len(report.Collisions))))
	fmt.Fprintf(w, "      Index file:\t%s\n", outputFile)
	for _, o := range report.Outcomes {
		if o.Err != nil {
			failColor.Fprintf(w, "  %14s:\tFAILED (%v)\n", o.Sink, o.Err)
			continue
		}
		okColor.Fprintf(w, "  %14s:\tok\n", o.Sink)
	}
	fmt.Fprintf(w, "  Execution time:\t%s\n", report.Elapsed.Round(time.Millisecond))
}
