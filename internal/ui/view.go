package ui

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"

	"github.com/couchcryptid/quakewatch/internal/domain"
	"github.com/couchcryptid/quakewatch/internal/render/charts"
	"github.com/couchcryptid/quakewatch/internal/render/mapview"
	"github.com/couchcryptid/quakewatch/internal/store"
)

const pieRadius = 3

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	theme := ThemeFor(m.config.Theme)
	_, mapHeight := m.mapSize()

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		m.mapView.Render(theme.Map),
		m.renderSidebar(theme, mapHeight),
	)
	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(theme),
		m.renderSearchBar(theme),
		body,
		m.renderStatus(theme),
	)
}

func (m Model) renderHeader(theme Theme) string {
	title := lipgloss.NewStyle().Bold(true).Foreground(theme.Accent).Render("quakewatch")
	muted := lipgloss.NewStyle().Foreground(theme.Muted)

	var state string
	switch m.snap.State {
	case store.StateLoading:
		state = m.spinner.View() + " loading"
	case store.StateErrorStale:
		state = lipgloss.NewStyle().Foreground(theme.Warning).Render("⚠ feed error, showing last good data")
	default:
		state = lipgloss.NewStyle().Foreground(theme.Success).Render("● live")
	}

	parts := []string{title}
	if t := m.snap.Collection.Title; t != "" {
		parts = append(parts, t)
	} else if m.snap.Selector.Mode != "" {
		parts = append(parts, m.snap.Selector.String())
	}
	parts = append(parts, humanize.Comma(int64(m.stats.Count))+" events", state)
	if m.snap.HasData {
		parts = append(parts, muted.Render("updated "+humanize.RelTime(m.snap.UpdatedAt, m.clock.Now(), "ago", "from now")))
	}
	return ansi.Truncate(" "+strings.Join(parts, muted.Render(" │ ")), m.width, "…")
}

func (m Model) renderSearchBar(theme Theme) string {
	label := lipgloss.NewStyle().Foreground(theme.Muted)
	field := func(i int) string {
		style := lipgloss.NewStyle().Foreground(theme.Text)
		if m.editing == i {
			style = style.Underline(true)
		}
		return "[" + style.Render(m.fields[i].View()) + "]"
	}

	sel := m.config.Selector
	var search string
	switch sel.Mode {
	case domain.ModeDays:
		search = label.Render("Last ") + field(fieldDays) + label.Render(" days")
	case domain.ModeRange:
		search = label.Render("From ") + field(fieldStart) + label.Render(" to ") + field(fieldEnd)
	default:
		search = label.Render("Feed ") + sel.String()
	}

	boundaries := "off"
	if m.config.ShowBoundaries {
		boundaries = "on"
	}
	parts := []string{
		search,
		label.Render("min ") + "M " + domain.FormatMagnitude(m.config.Threshold),
		label.Render("layer ") + m.config.TileLayer,
		label.Render("plates ") + boundaries,
	}
	return ansi.Truncate(" "+strings.Join(parts, label.Render("  ·  ")), m.width, "…")
}

func (m Model) renderStatus(theme Theme) string {
	if m.status == "" {
		return ansi.Truncate(m.help.ShortHelpView(m.keys.ShortHelp()), m.width, "…")
	}
	color := theme.Text
	switch {
	case m.statusLevel >= slog.LevelError:
		color = theme.Error
	case m.statusLevel >= slog.LevelWarn:
		color = theme.Warning
	}
	return ansi.Truncate(lipgloss.NewStyle().Foreground(color).Render(m.status), m.width, "…")
}

func (m Model) renderSidebar(theme Theme, height int) string {
	inner := sidebarWidth - 2
	heading := lipgloss.NewStyle().Bold(true).Foreground(theme.Accent)
	muted := lipgloss.NewStyle().Foreground(theme.Muted)

	var lines []string
	add := func(s ...string) { lines = append(lines, s...) }

	if m.help.ShowAll {
		add(heading.Render("Keys"))
		for _, group := range m.keys.FullHelp() {
			for _, b := range group {
				h := b.Help()
				add(fmt.Sprintf("%-6s %s", h.Key, muted.Render(h.Desc)))
			}
		}
		return m.sidebarBox(theme, height, lines, inner)
	}

	add(heading.Render("Stats"))
	add(
		row("Total", humanize.Comma(int64(m.stats.Count))),
		row("Max", m.stats.MaxLabel()),
		row("Average", m.stats.AverageLabel()),
		row("On map", fmt.Sprintf("%s (M ≥ %s)", humanize.Comma(int64(m.shown)), domain.FormatMagnitude(m.config.Threshold))),
	)

	add("", heading.Render("Selected"))
	if m.selected == nil {
		add(muted.Render("click a marker or press n"))
	} else {
		f := *m.selected
		add(lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(domain.MarkerColor(f))).Render(selectedHeadline(f)))
		if f.Place != "" {
			add(f.Place)
		}
		if !f.Time.IsZero() {
			add(muted.Render(f.Time.UTC().Format("2006-01-02 15:04 UTC") + " · " + humanize.RelTime(f.Time, m.clock.Now(), "ago", "from now")))
		}
		add(muted.Render(mapview.FormatCoordinates(f.Lat(), f.Lon())))
	}

	add("", heading.Render("Strongest"))
	switch {
	case m.snap.State == store.StateLoading && !m.snap.HasData:
		add(muted.Render("fetching earthquakes…"))
	case len(m.stats.Top) == 0:
		add(muted.Render("no measured events"))
	default:
		for i, f := range m.stats.Top {
			add(fmt.Sprintf("%d. M %-4s %s", i+1, domain.MagnitudeLabel(f), f.Place))
		}
	}

	add("", heading.Render("Magnitude distribution"))
	add(strings.Split(charts.Bars(m.buckets, inner), "\n")...)
	add("")
	add(strings.Split(charts.Pie(m.buckets, pieRadius), "\n")...)

	return m.sidebarBox(theme, height, lines, inner)
}

func (m Model) sidebarBox(theme Theme, height int, lines []string, inner int) string {
	for i, l := range lines {
		lines[i] = ansi.Truncate(l, inner, "…")
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	return lipgloss.NewStyle().
		Width(sidebarWidth-1).
		Height(height).
		MaxHeight(height).
		PaddingLeft(1).
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(theme.Border).
		Foreground(theme.Text).
		Render(strings.Join(lines, "\n"))
}

func row(label, value string) string {
	return fmt.Sprintf("%-9s %s", label, value)
}

func selectedHeadline(f domain.Feature) string {
	s := "M " + domain.MagnitudeLabel(f)
	if f.MagType != "" {
		s += " " + f.MagType
	}
	return s
}
