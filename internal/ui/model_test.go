package ui

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/jonboulle/clockwork"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/quakewatch/internal/boundary"
	"github.com/couchcryptid/quakewatch/internal/domain"
	"github.com/couchcryptid/quakewatch/internal/pipeline"
	"github.com/couchcryptid/quakewatch/internal/store"
)

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type triggerCall struct {
	trigger pipeline.Trigger
	sel     domain.Selector
}

type fakeRefresher struct {
	mu    sync.Mutex
	calls []triggerCall
	err   error
}

func (f *fakeRefresher) Trigger(_ context.Context, t pipeline.Trigger, sel domain.Selector) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, triggerCall{trigger: t, sel: sel})
	return f.err
}

func (f *fakeRefresher) Calls() []triggerCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]triggerCall(nil), f.calls...)
}

func testSnapshot() store.Snapshot {
	return store.Snapshot{
		State:    store.StateReady,
		Selector: domain.DefaultSelector(),
		Collection: domain.Collection{
			Title: "USGS All Earthquakes, Past Day",
			Features: []domain.Feature{
				{ID: "a", Magnitude: domain.Float(1.0), Place: "near Ridgecrest", Time: testNow.Add(-time.Hour), Point: orb.Point{0, 0}},
				{ID: "b", Magnitude: domain.Float(4.0), MagType: "mb", Place: "south of Honshu", Time: testNow.Add(-3 * time.Hour), Point: orb.Point{60, 30}},
				{ID: "c", Place: "pending review", Time: testNow.Add(-time.Minute), Point: orb.Point{-60, -30}},
			},
		},
		HasData:   true,
		UpdatedAt: testNow.Add(-2 * time.Minute),
		Cycle:     1,
	}
}

func newTestModel(t *testing.T, ref *fakeRefresher) Model {
	t.Helper()
	m := NewModel(Options{
		Refresher: ref,
		Clock:     clockwork.NewFakeClockAt(testNow),
		Overlay:   boundary.Default(),
	})
	return update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	updated, _ := m.Update(msg)
	return updated.(Model)
}

func press(t *testing.T, m Model, keys ...string) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		case "backspace":
			msg = tea.KeyMsg{Type: tea.KeyBackspace}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		var updated tea.Model
		updated, cmd = m.Update(msg)
		m = updated.(Model)
	}
	return m, cmd
}

func view(m Model) string {
	return ansi.Strip(m.View())
}

func TestModelViewBeforeSize(t *testing.T) {
	m := NewModel(Options{})
	assert.Equal(t, "Loading...", m.View())
}

func TestModelInitialState(t *testing.T) {
	m := newTestModel(t, &fakeRefresher{})

	cfg := m.Config()
	assert.Equal(t, ThemeDark, cfg.Theme)
	assert.Equal(t, "Light Map", cfg.TileLayer)
	assert.Equal(t, domain.DefaultSelector(), cfg.Selector)

	out := view(m)
	assert.Contains(t, out, "quakewatch")
	assert.Contains(t, out, "loading")
	assert.Contains(t, out, "fetching earthquakes…")
	assert.Contains(t, out, "Max       --")
}

func TestModelAppliesSnapshot(t *testing.T) {
	ch := make(chan store.Snapshot, 1)
	m := NewModel(Options{Snapshots: ch, Clock: clockwork.NewFakeClockAt(testNow)})
	m = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})

	updated, cmd := m.Update(snapshotMsg(testSnapshot()))
	m = updated.(Model)
	require.NotNil(t, cmd, "model should keep listening for snapshots")

	assert.Equal(t, 3, m.mapView.MarkerCount())
	out := view(m)
	assert.Contains(t, out, "USGS All Earthquakes, Past Day")
	assert.Contains(t, out, "3 events")
	assert.Contains(t, out, "● live")
	assert.Contains(t, out, "updated 2 minutes ago")
	assert.Contains(t, out, "Total     3")
	assert.Contains(t, out, "Max       4.0")
	assert.Contains(t, out, "Average   2.5")
	assert.Contains(t, out, "1. M 4.0  south of Honshu")
	assert.Contains(t, out, "2. M 1.0  near Ridgecrest")
}

func TestListenForSnapshot(t *testing.T) {
	assert.Nil(t, listenForSnapshot(nil))

	ch := make(chan store.Snapshot, 1)
	ch <- testSnapshot()
	msg := listenForSnapshot(ch)()
	snap, ok := msg.(snapshotMsg)
	require.True(t, ok)
	assert.Equal(t, store.StateReady, snap.State)

	close(ch)
	assert.Nil(t, listenForSnapshot(ch)())
}

func TestModelErrorStale(t *testing.T) {
	m := newTestModel(t, &fakeRefresher{})
	snap := testSnapshot()
	snap.State = store.StateErrorStale
	snap.Err = errors.New("feed returned 503")
	m = update(t, m, snapshotMsg(snap))

	out := view(m)
	assert.Contains(t, out, "feed error, showing last good data")
	assert.Contains(t, out, "Total     3", "stale data stays on screen")
}

func TestModelThresholdFiltersMarkers(t *testing.T) {
	m := newTestModel(t, &fakeRefresher{})
	m = update(t, m, snapshotMsg(testSnapshot()))

	m, _ = press(t, m, "]", "]", "]", "]")
	assert.InDelta(t, 2.0, m.Config().Threshold, 0)
	assert.Equal(t, 1, m.mapView.MarkerCount())
	assert.Contains(t, view(m), "On map    1 (M ≥ 2.0)")
	assert.Contains(t, view(m), "Total     3", "stats cover the whole collection")

	m, _ = press(t, m, "[", "[", "[", "[", "[")
	assert.InDelta(t, 0, m.Config().Threshold, 0)
	assert.Equal(t, 3, m.mapView.MarkerCount())
}

func TestModelIntervalTriggersFetch(t *testing.T) {
	ref := &fakeRefresher{}
	m := newTestModel(t, ref)

	m, cmd := press(t, m, "i")
	require.NotNil(t, cmd)
	assert.Nil(t, cmd())

	want := domain.Selector{Mode: domain.ModeInterval, Interval: domain.IntervalWeek, Level: domain.LevelAll}
	assert.Equal(t, want, m.Config().Selector)
	assert.Equal(t, []triggerCall{{trigger: pipeline.TriggerSelector, sel: want}}, ref.Calls())

	_, cmd = press(t, m, "v")
	require.NotNil(t, cmd)
	cmd()
	calls := ref.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, domain.Level10, calls[1].sel.Level)
}

func TestModelDaysSearch(t *testing.T) {
	ref := &fakeRefresher{}
	m := newTestModel(t, ref)

	m, _ = press(t, m, "m")
	assert.Equal(t, domain.ModeDays, m.Config().Selector.Mode)
	assert.Contains(t, view(m), "Last [7")

	m, cmd := press(t, m, "e", "backspace", "3", "enter")
	require.NotNil(t, cmd)
	cmd()

	assert.Equal(t, -1, m.editing)
	calls := ref.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, pipeline.TriggerSearch, calls[0].trigger)
	assert.Equal(t, domain.ModeDays, calls[0].sel.Mode)
	assert.Equal(t, 3, calls[0].sel.Days)
}

func TestModelDaysSearchRejectsOutOfRange(t *testing.T) {
	ref := &fakeRefresher{}
	m := newTestModel(t, ref)

	m, _ = press(t, m, "m", "e", "backspace", "4", "5", "enter")
	assert.Empty(t, ref.Calls())
	assert.Contains(t, m.status, "days must be between 1 and 30")
	assert.Contains(t, view(m), "days must be between 1 and 30")
}

func TestModelRangeSearchRejectsReversedDates(t *testing.T) {
	ref := &fakeRefresher{}
	m := newTestModel(t, ref)

	m, _ = press(t, m, "m", "m")
	require.Equal(t, domain.ModeRange, m.Config().Selector.Mode)

	m, _ = press(t, m, "e")
	for _, r := range "2024-02-01" {
		m, _ = press(t, m, string(r))
	}
	m, _ = press(t, m, "tab")
	require.Equal(t, fieldEnd, m.editing)
	for _, r := range "2024-01-01" {
		m, _ = press(t, m, string(r))
	}
	m, _ = press(t, m, "enter")

	assert.Empty(t, ref.Calls())
	assert.Contains(t, m.status, "start date is after end date")
	assert.Equal(t, "2024-02-01", m.Config().Selector.Start)
}

func TestModelEditCancelRestoresFields(t *testing.T) {
	m := newTestModel(t, &fakeRefresher{})
	m, _ = press(t, m, "m", "e", "backspace", "9", "esc")

	assert.Equal(t, -1, m.editing)
	assert.Equal(t, "7", m.fields[fieldDays].Value())
}

func TestModelEditInIntervalMode(t *testing.T) {
	m := newTestModel(t, &fakeRefresher{})
	m, _ = press(t, m, "e")
	assert.Equal(t, -1, m.editing)
	assert.Contains(t, m.status, "press m")
}

func TestModelRefreshUsesDisplayedSelector(t *testing.T) {
	ref := &fakeRefresher{}
	m := newTestModel(t, ref)
	snap := testSnapshot()
	snap.Selector = domain.Selector{Mode: domain.ModeDays, Days: 5}
	m = update(t, m, snapshotMsg(snap))

	_, cmd := press(t, m, "r")
	require.NotNil(t, cmd)
	cmd()
	assert.Equal(t, []triggerCall{{trigger: pipeline.TriggerSearch, sel: snap.Selector}}, ref.Calls())
}

func TestModelTriggerErrors(t *testing.T) {
	m := newTestModel(t, &fakeRefresher{err: errors.New("queue full")})

	_, cmd := press(t, m, "enter")
	require.NotNil(t, cmd)
	msg := cmd()
	require.IsType(t, triggerErrMsg{}, msg)

	m = update(t, m, msg)
	assert.Contains(t, m.status, "queue full")

	m = update(t, m, triggerErrMsg{err: context.Canceled})
	assert.Contains(t, m.status, "queue full", "cancellation is not reported")
}

func TestModelQuit(t *testing.T) {
	m := newTestModel(t, &fakeRefresher{})
	_, cmd := press(t, m, "q")
	require.NotNil(t, cmd)
	_, isQuit := cmd().(tea.QuitMsg)
	assert.True(t, isQuit)
}

func TestModelMouseClickSelectsMarker(t *testing.T) {
	m := newTestModel(t, &fakeRefresher{})
	m = update(t, m, snapshotMsg(testSnapshot()))

	col, row, ok := m.mapView.Viewport().Project(60, 30)
	require.True(t, ok)
	m = update(t, m, tea.MouseMsg{X: col, Y: row + headerHeight, Button: tea.MouseButtonLeft, Action: tea.MouseActionPress})

	f, ok := m.Selected()
	require.True(t, ok)
	assert.Equal(t, "b", f.ID)
	out := view(m)
	assert.Contains(t, out, "M 4.0 mb")
	assert.Contains(t, out, "30.000°N 60.000°E")
}

func TestModelMouseOutsideMapIgnored(t *testing.T) {
	m := newTestModel(t, &fakeRefresher{})
	m = update(t, m, snapshotMsg(testSnapshot()))

	m = update(t, m, tea.MouseMsg{X: 100, Y: 10, Button: tea.MouseButtonLeft, Action: tea.MouseActionPress})
	_, ok := m.Selected()
	assert.False(t, ok)
}

func TestModelCycleSelection(t *testing.T) {
	m := newTestModel(t, &fakeRefresher{})
	m = update(t, m, snapshotMsg(testSnapshot()))

	m, _ = press(t, m, "n")
	f, ok := m.Selected()
	require.True(t, ok)
	assert.Equal(t, "a", f.ID)

	m, _ = press(t, m, "N")
	f, _ = m.Selected()
	assert.Equal(t, "c", f.ID)
	assert.Contains(t, view(m), "pending review")
}

func TestModelSelectionSurvivesRefresh(t *testing.T) {
	m := newTestModel(t, &fakeRefresher{})
	m = update(t, m, snapshotMsg(testSnapshot()))
	m, _ = press(t, m, "n")

	m = update(t, m, snapshotMsg(store.Snapshot{State: store.StateReady, HasData: true}))
	f, ok := m.Selected()
	require.True(t, ok)
	assert.Equal(t, "a", f.ID)
}

func TestModelViewToggles(t *testing.T) {
	m := newTestModel(t, &fakeRefresher{})

	m, _ = press(t, m, "t")
	assert.Equal(t, ThemeLight, m.Config().Theme)

	m, _ = press(t, m, "l")
	assert.Equal(t, "Classic Map", m.Config().TileLayer)
	assert.Contains(t, view(m), "layer Classic Map")

	m, _ = press(t, m, "p")
	assert.True(t, m.Config().ShowBoundaries)
	assert.Contains(t, view(m), "plates on")

	m, _ = press(t, m, "?")
	assert.Contains(t, view(m), "Keys")
}

func TestModelMapNavigation(t *testing.T) {
	m := newTestModel(t, &fakeRefresher{})

	m, _ = press(t, m, "+")
	assert.Equal(t, 1, m.mapView.Viewport().Zoom)
	m, _ = press(t, m, "-", "-")
	assert.Equal(t, 0, m.mapView.Viewport().Zoom)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyRight})
	assert.Greater(t, m.mapView.Viewport().CenterLon, 0.0)
	m, _ = press(t, m, "0")
	assert.InDelta(t, 0, m.mapView.Viewport().CenterLon, 0)
}

func TestModelLogRecordFades(t *testing.T) {
	m := newTestModel(t, &fakeRefresher{})

	updated, cmd := m.Update(logRecordMsg{Summary: "refresh failed, keeping previous data", Level: slog.LevelWarn})
	m = updated.(Model)
	require.NotNil(t, cmd)
	assert.Contains(t, view(m), "refresh failed, keeping previous data")

	m = update(t, m, logRecordFadeMsg{seq: m.statusSeq - 1})
	assert.NotEmpty(t, m.status, "a stale fade does not clear a newer message")

	m = update(t, m, logRecordFadeMsg{seq: m.statusSeq})
	assert.Empty(t, m.status)
	assert.Contains(t, view(m), "q quit")
}
