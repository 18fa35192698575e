// Package linecolors reads the LINE_COLORS file referenced by the
// environment (this repository's §6) and produces a route short-name
// -> display style mapping, overlaying the feed-declared route colour
// during loading. Accepts either a CSV (gocarina/gocsv, matching the
// loader's CSV stack) or an HTML table (PuerkitoBio/goquery +
// andybalholm/cascadia selectors), picked by the file extension.
package linecolors

import (
	"fmt"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/gocarina/gocsv"

	"transitradar.dev/radar/model"
)

// Style is the display treatment applied to a route.
type Style struct {
	Color       string
	StrokeStyle string
}

type colorRowCSV struct {
	ShortName   string `csv:"route_short_name"`
	Color       string `csv:"color"`
	StrokeStyle string `csv:"stroke_style"`
}

var rowSelector = cascadia.MustCompile("table tr")

// Load reads path and returns a route short-name -> Style map. An
// empty path means no enrichment file was configured; callers should
// treat that as "use the feed's own colours."
func Load(path string) (map[string]Style, error) {
	if path == "" {
		return map[string]Style{}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening line-colors file: %w", err)
	}
	defer f.Close()

	if strings.HasSuffix(strings.ToLower(path), ".csv") {
		return loadCSV(f)
	}
	return loadHTML(f)
}

func loadCSV(f *os.File) (map[string]Style, error) {
	rows := []*colorRowCSV{}
	if err := gocsv.Unmarshal(f, &rows); err != nil {
		return nil, fmt.Errorf("parsing line-colors csv: %w", err)
	}

	styles := make(map[string]Style, len(rows))
	for _, r := range rows {
		styles[r.ShortName] = Style{Color: r.Color, StrokeStyle: r.StrokeStyle}
	}
	return styles, nil
}

// loadHTML expects a table with one row per route: short name,
// colour, stroke style (header row allowed; rows with fewer than 2
// cells are skipped).
func loadHTML(f *os.File) (map[string]Style, error) {
	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("parsing line-colors html: %w", err)
	}

	styles := map[string]Style{}
	doc.FindMatcher(rowSelector).Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}

		shortName := strings.TrimSpace(cells.Eq(0).Text())
		if shortName == "" {
			return
		}
		color := strings.TrimSpace(cells.Eq(1).Text())

		strokeStyle := ""
		if cells.Length() >= 3 {
			strokeStyle = strings.TrimSpace(cells.Eq(2).Text())
		}

		styles[shortName] = Style{Color: color, StrokeStyle: strokeStyle}
	})

	return styles, nil
}

// Apply overlays styles onto routes in place, matched by short name;
// routes absent from styles are left with their feed-declared colour.
func Apply(routes []model.Route, styles map[string]Style) {
	for i := range routes {
		st, ok := styles[routes[i].ShortName]
		if !ok {
			continue
		}
		routes[i].Color = st.Color
		routes[i].StrokeStyle = st.StrokeStyle
	}
}
