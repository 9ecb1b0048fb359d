package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rajavignesh573/shopmatch/internal/candidates"
	"github.com/rajavignesh573/shopmatch/internal/model"
)

// RenderCandidates prints a ranked candidate table for one product, followed
// by any sources that failed and were skipped.
func RenderCandidates(w io.Writer, product *model.Product, result *candidates.Result) {
	fmt.Fprintln(w, TitleStyle.Render(fmt.Sprintf("Candidates for %s", product.Title)))

	if len(result.Candidates) == 0 {
		fmt.Fprintln(w, SubtleStyle.Render("No candidates above the score threshold."))
	} else {
		header := fmt.Sprintf("%-5s %-8s %-14s %-40s %-7s %-8s %s",
			"#", "SOURCE", "KEY", "TITLE", "SCORE", "ΔPRICE", "WHY")
		fmt.Fprintln(w, TableHeaderStyle.Render(header))

		for i, c := range result.Candidates {
			score := ScoreStyle(c.Score).Render(fmt.Sprintf("%.3f", c.Score))
			delta := "-"
			if c.Price != nil {
				delta = fmt.Sprintf("%+.1f%%", c.PriceDeltaPct)
			}
			fmt.Fprintf(w, "%-5d %-8s %-14s %-40s %s %-8s %s\n",
				i+1, c.SourceCode, c.ExternalKey, truncate(c.Title, 40),
				score, delta, SubtleStyle.Render(strings.Join(c.Explanation, ", ")))
		}
	}

	for _, skipped := range result.Skipped {
		fmt.Fprintln(w, WarningStyle.Render(
			fmt.Sprintf("Skipped source %s: %v", skipped.Code, skipped.Err)))
	}
}

// RenderMatches prints match history rows, newest first.
func RenderMatches(w io.Writer, matches []model.ProductMatch) {
	if len(matches) == 0 {
		fmt.Fprintln(w, SubtleStyle.Render("No matches recorded."))
		return
	}

	header := fmt.Sprintf("%-38s %-12s %-8s %-14s %-12s %-7s %-3s %-10s %s",
		"ID", "PRODUCT", "SOURCE", "KEY", "STATUS", "SCORE", "VER", "REVIEWER", "UPDATED")
	fmt.Fprintln(w, TableHeaderStyle.Render(header))

	for _, m := range matches {
		status := statusStyle(m.Status).Render(fmt.Sprintf("%-12s", m.Status))
		fmt.Fprintf(w, "%-38s %-12s %-8s %-14s %s %-7.3f %-3d %-10s %s\n",
			m.ID, truncate(m.ProductID, 12), truncate(m.SourceID, 8), truncate(m.ExternalKey, 14),
			status, m.Score, m.Version, truncate(m.ReviewedBy, 10),
			m.UpdatedAt.Format("2006-01-02 15:04"))
	}
}

// RenderSources prints the source registry.
func RenderSources(w io.Writer, sources []model.ListingSource) {
	if len(sources) == 0 {
		fmt.Fprintln(w, SubtleStyle.Render("No sources registered."))
		return
	}

	header := fmt.Sprintf("%-8s %-24s %-8s %s", "CODE", "NAME", "ACTIVE", "CREATED")
	fmt.Fprintln(w, TableHeaderStyle.Render(header))

	for _, src := range sources {
		active := SuccessStyle.Render("yes")
		if !src.IsActive {
			active = SubtleStyle.Render("no ")
		}
		fmt.Fprintf(w, "%-8s %-24s %s      %s\n",
			src.Code, truncate(src.Name, 24), active, src.CreatedAt.Format("2006-01-02"))
	}
}

// RenderRules prints the rule catalog with the default marked.
func RenderRules(w io.Writer, rules []model.MatchingRule) {
	if len(rules) == 0 {
		fmt.Fprintln(w, SubtleStyle.Render("No rules stored; the built-in default applies."))
		return
	}

	header := fmt.Sprintf("%-18s %-16s %-13s %-22s %-6s %-9s %s",
		"ID", "NAME", "ALGORITHM", "WEIGHTS (N/B/G/P)", "BAND", "MINSCORE", "DEFAULT")
	fmt.Fprintln(w, TableHeaderStyle.Render(header))

	for _, r := range rules {
		weights := fmt.Sprintf("%.2f/%.2f/%.2f/%.2f",
			r.WeightName, r.WeightBrand, r.WeightGTIN, r.WeightPrice)
		def := ""
		if r.IsDefault {
			def = SuccessStyle.Render("*")
		}
		fmt.Fprintf(w, "%-18s %-16s %-13s %-22s %-6.0f %-9.2f %s\n",
			truncate(r.ID, 18), truncate(r.Name, 16), r.Algorithm, weights,
			r.PriceBandPct, r.MinScore, def)
	}
}

func statusStyle(status model.MatchStatus) lipgloss.Style {
	switch status {
	case model.StatusMatched:
		return SuccessStyle
	case model.StatusNotMatched:
		return WarningStyle
	default:
		return SubtleStyle
	}
}

// truncate shortens to max runes; byte slicing would split multibyte titles.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
