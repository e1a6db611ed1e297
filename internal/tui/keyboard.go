package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/servies/internal/domain"
	"github.com/mmcdole/servies/internal/notify"
	"github.com/mmcdole/servies/internal/tui/components"
)

// handleKeyMsg routes a key press to the topmost focused element
func (m Model) handleKeyMsg(msg tea.KeyMsg) (Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	// Modals consume every key while open
	switch {
	case m.ratingModal.IsVisible():
		return m.handleRatingKey(msg)
	case m.filterModal.IsVisible():
		return m.handleFilterKey(msg)
	case m.sortModal.IsVisible():
		return m.handleSortKey(msg)
	case m.listModal.IsVisible():
		return m.handleListKey(msg)
	case m.searching:
		return m.handleSearchKey(msg)
	}

	if key.Matches(msg, Keys.Dismiss) {
		m.banner.Dismiss()
		return m, nil
	}
	if key.Matches(msg, Keys.Help) {
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}

	if m.screen == ScreenSeries {
		return m.handleSeriesKey(msg)
	}
	return m.handleCatalogKey(msg)
}

func (m Model) handleCatalogKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, Keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, Keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		m.clampCursor()
	case key.Matches(msg, Keys.Down):
		m.cursor++
		m.clampCursor()
	case key.Matches(msg, Keys.Home):
		m.cursor = 0
		m.clampCursor()
	case key.Matches(msg, Keys.End):
		m.cursor = m.items.Len() - 1
		m.clampCursor()

	case key.Matches(msg, Keys.NextPage):
		if m.searchQuery != "" || m.pager.OnLastPage() {
			return m, nil
		}
		m.pager.NextPage()
		m.cursor, m.offset = 0, 0
		return m, m.reload()
	case key.Matches(msg, Keys.PrevPage):
		if m.searchQuery != "" || m.pager.Page == 0 {
			return m, nil
		}
		m.pager.PrevPage()
		m.cursor, m.offset = 0, 0
		return m, m.reload()

	case key.Matches(msg, Keys.Back):
		if m.searchQuery != "" {
			// Leave search results for the filtered catalog
			m.searchInput.SetValue("")
			m.debouncer.Cancel()
			return m, m.reload()
		}

	case key.Matches(msg, Keys.Search):
		m.searching = true
		return m, m.searchInput.Focus()
	case key.Matches(msg, Keys.Filter):
		m.filterModal.Show(m.draft)
		return m, nil
	case key.Matches(msg, Keys.Sort):
		f := m.draft.State()
		m.sortModal.Show(f.SortBy, f.SortDir)
		return m, nil
	case key.Matches(msg, Keys.Refresh):
		m.search.Flush()
		return m, m.reload()

	case key.Matches(msg, Keys.Enter):
		item, ok := m.selected()
		if !ok || item.ChildType != domain.ChildTypeSeries {
			return m, nil
		}
		m.series = newSeriesView(item)
		m.screen = ScreenSeries
		return m, LoadSeriesCmd(m.catalog, item.Key(), m.timeout)

	case key.Matches(msg, Keys.ToggleWatched):
		if item, ok := m.selected(); ok {
			return m, m.begin(m.items.BeginToggleWatched(item.Key().String()))
		}
	case key.Matches(msg, Keys.ToggleLiked):
		if item, ok := m.selected(); ok {
			return m, m.begin(m.items.BeginToggleLiked(item.Key().String()))
		}
	case key.Matches(msg, Keys.Rate):
		if item, ok := m.selected(); ok {
			k := item.Key().String()
			m.ratingModal.Show(k, item.Title, m.items.Rating(k))
		}
	case key.Matches(msg, Keys.Lists):
		item, ok := m.selected()
		if !ok {
			return m, nil
		}
		if m.lists.Loaded() {
			m.listModal.Show(item, m.lists.Lists(), m.memberOf(item))
			return m, nil
		}
		m.listModal.ShowLoading(item)
		return m, LoadListsCmd(m.lists, false, m.timeout)
	}
	return m, nil
}

func (m Model) handleSeriesKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	v := m.series
	switch {
	case key.Matches(msg, Keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, Keys.Back):
		v.close()
		m.series = nil
		m.screen = ScreenCatalog
	case key.Matches(msg, Keys.Up):
		v.move(-1)
	case key.Matches(msg, Keys.Down):
		v.move(1)
	case key.Matches(msg, Keys.Home):
		v.cursor = 0
	case key.Matches(msg, Keys.End):
		v.move(len(v.rows()))
	case key.Matches(msg, Keys.Enter):
		return m, v.expand(m.catalog, m.timeout)
	case key.Matches(msg, Keys.ToggleWatched):
		return m, m.begin(v.beginToggle())
	}
	return m, nil
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.searching = false
		m.searchInput.Blur()
		m.searchInput.SetValue("")
		m.debouncer.Cancel()
		if m.searchQuery != "" {
			return m, m.reload()
		}
		return m, nil
	case "enter":
		// Keep the results; navigation resumes on the list
		m.searching = false
		m.searchInput.Blur()
		return m, nil
	}

	before := m.searchInput.Value()
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	query := m.searchInput.Value()
	if query == before {
		return m, cmd
	}
	token, wait := m.debouncer.Trigger()
	return m, tea.Batch(cmd, SearchTickCmd(token, query, wait))
}

func (m Model) handleFilterKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	_, action, cmd := m.filterModal.HandleKeyMsg(msg)
	switch action {
	case components.FilterSubmit:
		if err := m.draft.Submit(); err != nil {
			m.logger.Error("failed to save filters", "error", err)
			m.banner.Notify(notify.KindFailure, "Failed to save filters !!")
		}
	case components.FilterReset:
		if err := m.draft.Reset(); err != nil {
			m.logger.Error("failed to reset filters", "error", err)
			m.banner.Notify(notify.KindFailure, "Failed to reset filters !!")
		}
	}
	return m, tea.Batch(cmd, m.applyQuery())
}

func (m Model) handleSortKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	_, sel := m.sortModal.HandleKey(msg.String())
	if sel == nil {
		return m, nil
	}
	m.draft.SetSort(sel.Field, sel.Direction)
	if err := m.draft.Submit(); err != nil {
		m.logger.Error("failed to save sort order", "error", err)
		m.banner.Notify(notify.KindFailure, "Failed to save sort order !!")
	}
	return m, m.applyQuery()
}

func (m Model) handleListKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	_, change, refresh := m.listModal.HandleKeyMsg(msg)
	if refresh {
		return m, LoadListsCmd(m.lists, true, m.timeout)
	}
	if change == nil {
		return m, nil
	}
	var cmd tea.Cmd
	if change.Add {
		cmd = m.begin(m.lists.BeginAdd(change.ListID, change.Key))
	} else {
		cmd = m.begin(m.lists.BeginRemove(change.ListID, change.Key))
	}
	m.refreshListModal()
	return m, cmd
}

func (m Model) handleRatingKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	var submitted bool
	m.ratingModal, cmd, submitted = m.ratingModal.Update(msg)
	if !submitted {
		return m, cmd
	}
	rating, _ := m.ratingModal.Value()
	k := m.ratingModal.Key()
	m.ratingModal.Hide()
	return m, tea.Batch(cmd, m.begin(m.items.BeginRate(k, rating)))
}
