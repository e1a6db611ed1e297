package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/servies/internal/domain"
	"github.com/mmcdole/servies/internal/notify"
	"github.com/mmcdole/servies/internal/rollup"
	"github.com/mmcdole/servies/internal/tui/components"
	"github.com/mmcdole/servies/internal/tui/styles"
)

// ChromeHeight is the number of lines used by header, banner and footer
const ChromeHeight = 5

// RenderServieItem renders one catalog row
func RenderServieItem(item domain.MediaItem, busy, selected bool, width int) string {
	style := styles.NormalItemStyle
	if selected {
		style = styles.SelectedItemStyle
	}

	indicator := styles.RenderWatched(item.Completed)
	liked := " "
	if item.Liked {
		liked = styles.LikedHeart
	}

	title := item.Title
	if y := item.Year(); y > 0 {
		title = fmt.Sprintf("%s (%d)", item.Title, y)
	}

	var badges []string
	if p := item.Progress(); p != "" {
		badges = append(badges, p)
	}
	if item.Rating > 0 {
		badges = append(badges, fmt.Sprintf("★ %g", item.Rating))
	}
	if busy {
		badges = append(badges, "…")
	}
	badge := styles.DimStyle.Render(strings.Join(badges, "  "))

	kind := "M"
	if item.ChildType == domain.ChildTypeSeries {
		kind = "S"
	}

	title = styles.Truncate(title, width-lipgloss.Width(badge)-10)
	return style.Width(width).Render(
		fmt.Sprintf("%s %s %s %s %s", indicator, liked, styles.DimStyle.Render(kind), title, badge),
	)
}

// RenderSeasonItem renders a season row with its progress
func RenderSeasonItem(season domain.Season, expanded, selected bool, width int) string {
	style := styles.NormalItemStyle
	if selected {
		style = styles.SelectedItemStyle
	}

	arrow := "▸"
	if expanded {
		arrow = "▾"
	}

	progress := fmt.Sprintf("%d/%d", season.EpisodesWatched, season.EpisodeCount)
	if season.TotalRuntime > 0 {
		progress += "  " + domain.FormatRuntime(season.TotalWatchedRuntime) + " / " + domain.FormatRuntime(season.TotalRuntime)
	}
	badge := styles.DimStyle.Render(progress)

	bar := styles.RenderProgressBar(rollup.Percent(season.EpisodesWatched, season.EpisodeCount), 10)
	title := styles.Truncate(season.DisplayTitle(), width-lipgloss.Width(badge)-20)

	return style.Width(width).Render(
		fmt.Sprintf("%s %s %s %s %s", arrow, styles.RenderWatched(season.Watched), title, bar, badge),
	)
}

// RenderEpisodeItem renders an episode row
func RenderEpisodeItem(seasonNo int, ep domain.Episode, selected bool, width int) string {
	style := styles.NormalItemStyle
	if selected {
		style = styles.SelectedItemStyle
	}

	code := styles.AccentStyle.Render(fmt.Sprintf("S%02dE%02d", seasonNo, ep.EpisodeNo))
	runtime := ""
	if ep.Runtime > 0 {
		runtime = styles.DimStyle.Render(domain.FormatRuntime(ep.Runtime))
	}
	title := styles.Truncate(ep.Name, width-24)

	return style.Width(width).Render(
		fmt.Sprintf("    %s %s %s %s", styles.RenderWatched(ep.Watched), code, title, runtime),
	)
}

// View renders the model
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var content string
	if m.screen == ScreenSeries && m.series != nil {
		content = m.renderSeries()
	} else {
		content = m.renderCatalog()
	}

	view := lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		lipgloss.NewStyle().Height(m.height-ChromeHeight).Render(content),
		m.renderBanner(),
		m.renderFooter(),
	)

	// Overlay the open modal
	var modal string
	switch {
	case m.ratingModal.IsVisible():
		modal = m.ratingModal.View()
	case m.filterModal.IsVisible():
		modal = m.filterModal.View()
	case m.sortModal.IsVisible():
		modal = m.sortModal.View()
	case m.listModal.IsVisible():
		modal = m.listModal.View()
	}
	if modal != "" {
		view = lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal)
	}

	return view
}

func (m Model) renderHeader() string {
	title := styles.AccentStyle.Bold(true).Render("servies")

	var crumb string
	switch {
	case m.screen == ScreenSeries && m.series != nil:
		crumb = "Catalog › " + m.series.title
	case m.searchQuery != "":
		crumb = fmt.Sprintf("Search › %q", m.searchQuery)
	default:
		crumb = "Catalog › " + describeFilter(m.filter)
	}

	line := title + "  " + styles.SubtitleStyle.Render(styles.Truncate(crumb, max(0, m.width-12)))
	if m.searching || m.searchInput.Value() != "" {
		line += "\n" + m.searchInput.View()
	} else {
		line += "\n"
	}
	return line
}

// describeFilter summarizes the active filters for the header
func describeFilter(f domain.FilterState) string {
	parts := []string{"All"}
	switch f.Type {
	case domain.ChildTypeMovie:
		parts[0] = "Movies"
	case domain.ChildTypeSeries:
		parts[0] = "Series"
	}
	arrow := "↑"
	if f.SortDir == domain.SortDesc {
		arrow = "↓"
	}
	parts = append(parts, components.SortLabel(f.SortBy)+" "+arrow)

	if n := len(f.TickedGenres) + len(f.CrossedGenres); n > 0 {
		parts = append(parts, fmt.Sprintf("%d genres", n))
	}
	if n := len(f.Languages); n > 0 {
		parts = append(parts, fmt.Sprintf("%d languages", n))
	}
	if n := len(f.Statuses); n > 0 {
		parts = append(parts, fmt.Sprintf("%d statuses", n))
	}
	return strings.Join(parts, " · ")
}

func (m Model) renderCatalog() string {
	switch {
	case m.loading && m.items.Len() == 0:
		return styles.DimStyle.Render("  Loading...")
	case m.loadErr != nil:
		return styles.DimStyle.Render("  Nothing to show. ") +
			styles.ErrorStyle.Render(m.loadErr.Error()) +
			styles.DimStyle.Render("  (r to retry)")
	case m.items.Len() == 0:
		return styles.DimStyle.Render("  Nothing matches the current filters")
	}

	items := m.items.Items()
	end := min(len(items), m.offset+m.listHeight())
	lines := make([]string, 0, end-m.offset)
	for i := m.offset; i < end; i++ {
		item := items[i]
		busy := m.items.InFlight(item.Key().String())
		lines = append(lines, RenderServieItem(item, busy, i == m.cursor, m.width))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderSeries() string {
	v := m.series
	switch {
	case v.loading:
		return styles.DimStyle.Render("  Loading seasons...")
	case v.err != nil:
		return styles.DimStyle.Render("  Nothing to show. ") + styles.ErrorStyle.Render(v.err.Error())
	}

	show := v.show()
	agg := show.Series()
	summary := fmt.Sprintf("  %d/%d episodes  %s watched  ",
		agg.WatchedEpisodes, agg.TotalEpisodes, domain.FormatRuntime(agg.WatchedRuntime))
	header := styles.TitleStyle.Render("  "+v.title) + "\n" +
		styles.SubtitleStyle.Render(summary) + styles.RenderProgressBar(agg.Percent(), 20) +
		styles.DimStyle.Render(fmt.Sprintf(" %d%%", agg.Percent()))
	if v.tracker.Busy() {
		header += styles.DimStyle.Render("  saving…")
	}

	rows := v.rows()
	height := max(1, m.listHeight()-3)
	start := 0
	if v.cursor >= height {
		start = v.cursor - height + 1
	}
	end := min(len(rows), start+height)

	lines := []string{header, ""}
	for i := start; i < end; i++ {
		r := rows[i]
		selected := i == v.cursor
		season, _ := show.Season(r.seasonNo)
		if r.episodeNo == 0 {
			line := RenderSeasonItem(season, v.expanded[r.seasonNo], selected, m.width)
			switch {
			case v.fetching[r.seasonNo]:
				line += "\n" + styles.DimStyle.Render("    Loading episodes...")
			case v.failed[r.seasonNo] != nil:
				line += "\n" + styles.ErrorStyle.Render("    "+v.failed[r.seasonNo].Error())
			}
			lines = append(lines, line)
			continue
		}
		eps, _ := show.Episodes(r.seasonNo)
		for _, ep := range eps {
			if ep.EpisodeNo == r.episodeNo {
				lines = append(lines, RenderEpisodeItem(r.seasonNo, ep, selected, m.width))
				break
			}
		}
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderBanner() string {
	n, ok := m.banner.Current()
	if !ok {
		return ""
	}
	style := styles.BannerInfoStyle
	switch n.Kind {
	case notify.KindSuccess:
		style = styles.BannerSuccessStyle
	case notify.KindFailure:
		style = styles.BannerErrorStyle
	}
	return style.Render(styles.Truncate(n.Message, max(0, m.width-2)))
}

// renderFooter renders the pager and key help
func (m Model) renderFooter() string {
	left := ""
	if m.screen == ScreenCatalog && m.searchQuery == "" {
		left = styles.DimStyle.Render("Page ") + m.pager.View() + "  "
	}
	return left + m.help.View(Keys)
}
