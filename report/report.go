// Package report renders a reconciliation report for people to read.
package report

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/csmith/albumfinder/matcher"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
)

// DefaultTop is how many unrated albums are listed if Options.Top is zero
const DefaultTop = 20

// Options controls what Write includes in the report
type Options struct {
	// Top is the number of unrated albums to list. Negative lists all of them.
	Top int
	// ShowMatched also lists every album that was matched.
	ShowMatched bool
}

// Write renders the report to w. Boxed tables are used when w is a terminal,
// and plain ASCII tables otherwise.
func Write(w io.Writer, rep *matcher.Report, opts Options) error {
	style := table.StyleDefault
	if isTerminal(w) {
		style = table.StyleRounded
	}

	sections := []string{summary(rep)}

	if len(rep.Unmatched) > 0 {
		sections = append(sections, unratedTable(rep.Unmatched, opts.Top, style))
	}

	if opts.ShowMatched && len(rep.Matched) > 0 {
		sections = append(sections, matchedTable(rep.Matched, style))
	}

	for _, section := range sections {
		if _, err := fmt.Fprintf(w, "%s\n\n", section); err != nil {
			return err
		}
	}
	return nil
}

func summary(rep *matcher.Report) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)
	tw.Style().Options.DrawBorder = false
	tw.Style().Options.SeparateColumns = false

	tw.AppendRows([]table.Row{
		{"Albums considered", rep.Considered()},
		{"Rated", len(rep.Matched)},
		{"Unrated", len(rep.Unmatched)},
		{"Match rate", fmt.Sprintf("%.1f%%", rep.MatchRate())},
	})

	if len(rep.Blacklisted) > 0 {
		tw.AppendRow(table.Row{"Blacklisted", len(rep.Blacklisted)})
	}
	if len(rep.Excluded) > 0 {
		tw.AppendRow(table.Row{"Excluded by release type", len(rep.Excluded)})
	}

	return tw.Render()
}

func unratedTable(results []matcher.Result, top int, style table.Style) string {
	sorted := make([]matcher.Result, len(results))
	copy(sorted, results)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Query.PlayCount > sorted[j].Query.PlayCount
	})

	if top == 0 {
		top = DefaultTop
	}
	if top > 0 && top < len(sorted) {
		sorted = sorted[:top]
	}

	tw := newTable(style, fmt.Sprintf("Top %d unrated albums", len(sorted)))
	tw.AppendHeader(table.Row{"#", "Plays", "Artist", "Album", "Closest rated album", "Artist score", "Title score", "Combined score"})

	for i, result := range sorted {
		row := table.Row{i + 1, result.Query.PlayCount, result.Query.Artist, result.Query.Title}
		if result.Best == nil {
			row = append(row, "No potential matches found", "", "", "")
		} else {
			row = append(row,
				fmt.Sprintf("%s - %s", result.Best.Reference.Artist, result.Best.Reference.Title),
				score(result.Best.ArtistScore),
				score(result.Best.TitleScore),
				score(result.Best.CombinedScore),
			)
		}
		tw.AppendRow(row)
	}

	alignNumbers(tw, 1, 2, 6, 7, 8)
	return tw.Render()
}

func matchedTable(results []matcher.Result, style table.Style) string {
	sorted := make([]matcher.Result, len(results))
	copy(sorted, results)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Match.CombinedScore > sorted[j].Match.CombinedScore
	})

	tw := newTable(style, fmt.Sprintf("%d rated albums", len(sorted)))
	tw.AppendHeader(table.Row{"Plays", "Artist", "Album", "Rated as", "Rating", "Score"})

	for _, result := range sorted {
		tw.AppendRow(table.Row{
			result.Query.PlayCount,
			result.Query.Artist,
			result.Query.Title,
			fmt.Sprintf("%s - %s", result.Match.Reference.Artist, result.Match.Reference.Title),
			strconv.FormatFloat(result.Match.Reference.Rating, 'f', -1, 64),
			score(result.Match.CombinedScore),
		})
	}

	alignNumbers(tw, 1, 5, 6)
	return tw.Render()
}

func newTable(style table.Style, title string) table.Writer {
	tw := table.NewWriter()
	tw.SetStyle(style)
	tw.SetTitle(title)
	return tw
}

func alignNumbers(tw table.Writer, columns ...int) {
	configs := make([]table.ColumnConfig, 0, len(columns))
	for _, column := range columns {
		configs = append(configs, table.ColumnConfig{
			Number:      column,
			Align:       text.AlignRight,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)
}

func score(s float64) string {
	return fmt.Sprintf("%.1f", s)
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
