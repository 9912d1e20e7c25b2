package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dharmasatrya/flightsweep/internal/models"
	"github.com/dharmasatrya/flightsweep/pkg/currency"
)

const rule = "======================================================================"

// WriteConsole prints the top results, the details of the best one and the
// number of grid points that were skipped.
func WriteConsole(w io.Writer, r Report) error {
	p := &printer{w: w}

	p.line(titleStyle.Render("FLIGHT SWEEP " + r.routeLine()))
	p.line(subtleStyle.Render(r.scoringLine()))
	p.line(subtleStyle.Render(r.constraintsLine()))
	if res := r.Result; res != nil {
		p.linef("Run %s: %d grid points, %d scored, %d itineraries considered",
			res.RunID, res.GridPoints, res.Scored, res.Considered)
		if res.Skipped > 0 {
			p.line(warningStyle.Render(fmt.Sprintf("%d grid points skipped for missing data", res.Skipped)))
		}
	}

	its := r.itineraries()
	if len(its) == 0 {
		p.line("")
		p.line(warningStyle.Render("No itineraries found!"))
		return p.err
	}

	p.line("")
	p.line(rule)
	p.linef("TOP %d RESULTS BY TOTAL SCORE", min(ConsoleTop, len(its)))
	p.line(rule)
	if p.err != nil {
		return p.err
	}
	if err := writeTable(w, its[:min(ConsoleTop, len(its))]); err != nil {
		return err
	}

	best := its[0]
	p.line("")
	p.line(rule)
	p.line(bestStyle.Render("BEST OPTION DETAILS"))
	p.line(rule)
	p.linef("Strategy: %s", best.Strategy.Label())
	p.linef("Dates: %s to %s", best.Start, best.End)
	p.linef("Region A: %d nights | Region B: %d nights | Weekdays: %d",
		best.RegionANights, best.RegionBNights, best.Weekdays)
	p.linef("Flight cost: %s", currency.FormatUSD(best.Score.FlightTotal))
	p.linef("Absence cost: %s", currency.FormatUSD(best.Score.AbsenceCost))
	p.line(bestStyle.Render("TOTAL SCORE: " + currency.FormatUSD(best.Score.Total)))
	p.line("Legs:")
	for i, leg := range best.Legs {
		p.linef("  %d. %s->%s on %s", i+1, leg.Origin, leg.Destination, leg.Date)
		p.linef("     %s | %s | %.1fh | %d stops | [%s]",
			leg.Carrier, priceText(leg.Price), leg.Hours(), leg.Stops, leg.Source)
	}
	return p.err
}

func writeTable(w io.Writer, its []models.Itinerary) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	header := []string{"Rank", "Strategy", "Depart", "Return", "A", "B", "WD", "Flights", "Absence", "SCORE"}
	if _, err := fmt.Fprintln(tw, headerStyle.Render(strings.Join(header, "\t"))); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, it := range its {
		if _, err := fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%d\t%d\t%s\t%s\t%s\n",
			i+1,
			shortLabel(it.Strategy),
			it.Start,
			it.End,
			it.RegionANights,
			it.RegionBNights,
			it.Weekdays,
			currency.FormatUSD(it.Score.FlightTotal),
			currency.FormatUSD(it.Score.AbsenceCost),
			currency.FormatUSD(it.Score.Total)); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	return tw.Flush()
}

func shortLabel(s models.Strategy) string {
	switch s {
	case models.StrategySequential:
		return "3 OW"
	case models.StrategyRoundTrips:
		return "2 RT"
	}
	return string(s)
}

func priceText(p models.Price) string {
	if !p.Valid() {
		return "unpriced"
	}
	return currency.FormatUSD(p.Amount())
}

// printer keeps the first write error so the report body reads top-down.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) line(s string) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintln(p.w, s)
}

func (p *printer) linef(format string, args ...any) {
	p.line(fmt.Sprintf(format, args...))
}
