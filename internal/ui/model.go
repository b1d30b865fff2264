// Package ui is the interactive terminal dashboard: a world map of
// earthquake markers beside stats, charts and the selected event.
package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/quakewatch/internal/boundary"
	"github.com/couchcryptid/quakewatch/internal/domain"
	"github.com/couchcryptid/quakewatch/internal/pipeline"
	"github.com/couchcryptid/quakewatch/internal/render/mapview"
	"github.com/couchcryptid/quakewatch/internal/store"
	"github.com/couchcryptid/quakewatch/internal/tilelayer"
)

// Refresher starts refresh cycles. *pipeline.Pipeline implements it.
type Refresher interface {
	Trigger(ctx context.Context, trigger pipeline.Trigger, sel domain.Selector) error
}

// Options wires a Model to the rest of the application. Zero values pick
// defaults; a nil Refresher makes searches no-ops.
type Options struct {
	Context   context.Context
	Refresher Refresher
	Snapshots <-chan store.Snapshot
	Catalog   *tilelayer.Catalog
	Overlay   *boundary.Overlay
	Config    ViewConfig
	Clock     clockwork.Clock
}

// snapshotMsg delivers a store snapshot from the pipeline subscription.
type snapshotMsg store.Snapshot

// triggerErrMsg reports that a refresh could not be queued.
type triggerErrMsg struct {
	err error
}

// Layout.
const (
	sidebarWidth = 40
	headerHeight = 2 // title bar and search bar
	statusHeight = 1
	panCols      = 4
	panRows      = 2
)

// Search form fields.
const (
	fieldDays = iota
	fieldStart
	fieldEnd
	fieldCount
)

// Model is the bubbletea model of the dashboard. The marker layer lives in
// mapView; everything shown is derived from snap and config.
type Model struct {
	ctx       context.Context
	refresher Refresher
	snapshots <-chan store.Snapshot
	catalog   *tilelayer.Catalog
	overlay   *boundary.Overlay
	clock     clockwork.Clock
	keys      KeyMap

	config   ViewConfig
	snap     store.Snapshot
	stats    domain.Stats
	buckets  []domain.Bucket
	shown    int
	mapView  *mapview.Map
	selected *domain.Feature

	spinner spinner.Model
	help    help.Model
	fields  [fieldCount]textinput.Model
	editing int // index into fields, or -1

	status      string
	statusLevel slog.Level
	statusSeq   int

	width, height int
	ready         bool
}

// NewModel creates the dashboard model in the loading state.
func NewModel(opts Options) Model {
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Catalog == nil {
		opts.Catalog = tilelayer.Default()
	}

	cfg := opts.Config
	if cfg.Theme != ThemeLight {
		cfg.Theme = ThemeDark
	}
	if cfg.Selector.Mode == "" {
		cfg.Selector = domain.DefaultSelector()
	}
	cfg.TileLayer = opts.Catalog.Resolve(cfg.TileLayer).Name
	cfg.Threshold = domain.ClampThreshold(cfg.Threshold)

	m := Model{
		ctx:       opts.Context,
		refresher: opts.Refresher,
		snapshots: opts.Snapshots,
		catalog:   opts.Catalog,
		overlay:   opts.Overlay,
		clock:     opts.Clock,
		keys:      DefaultKeyMap,
		config:    cfg,
		mapView:   mapview.New(0, 0),
		spinner:   spinner.New(spinner.WithSpinner(spinner.Dot)),
		help:      help.New(),
		editing:   -1,
	}
	m.fields[fieldDays] = newField("days", 2)
	m.fields[fieldStart] = newField("YYYY-MM-DD", 10)
	m.fields[fieldEnd] = newField("YYYY-MM-DD", 10)
	m.syncFields()

	m.mapView.SetLayer(m.catalog.Resolve(cfg.TileLayer))
	m.mapView.SetOverlay(m.overlay, cfg.ShowBoundaries)
	m.apply(store.Snapshot{State: store.StateLoading})
	return m
}

func newField(placeholder string, limit int) textinput.Model {
	f := textinput.New()
	f.Prompt = ""
	f.Placeholder = placeholder
	f.CharLimit = limit
	f.Width = limit
	return f
}

// Config returns the current view configuration.
func (m Model) Config() ViewConfig { return m.config }

// Selected returns the selected event, if any.
func (m Model) Selected() (domain.Feature, bool) {
	if m.selected == nil {
		return domain.Feature{}, false
	}
	return *m.selected, true
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, listenForSnapshot(m.snapshots))
}

// listenForSnapshot waits for the next pipeline snapshot.
func listenForSnapshot(ch <-chan store.Snapshot) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		snap, ok := <-ch
		if !ok {
			return nil
		}
		return snapshotMsg(snap)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.ready = true
		m.help.Width = msg.Width
		m.mapView.Resize(m.mapSize())
		return m, nil

	case snapshotMsg:
		m.apply(store.Snapshot(msg))
		return m, listenForSnapshot(m.snapshots)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case logRecordMsg:
		cmd := m.setStatus(msg.Summary, msg.Level)
		return m, cmd

	case logRecordFadeMsg:
		if msg.seq == m.statusSeq {
			m.status = ""
		}
		return m, nil

	case triggerErrMsg:
		if errors.Is(msg.err, context.Canceled) {
			return m, nil
		}
		cmd := m.setStatus("search not started: "+msg.err.Error(), slog.LevelError)
		return m, cmd

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.KeyMsg:
		if m.editing >= 0 {
			return m.handleEditKey(msg)
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.Theme):
		m.config = ToggleTheme(m.config)
	case key.Matches(msg, m.keys.TileLayer):
		m.config = NextTileLayer(m.config, m.catalog)
		m.mapView.SetLayer(m.catalog.Resolve(m.config.TileLayer))
	case key.Matches(msg, m.keys.Boundaries):
		m.config = ToggleBoundaries(m.config)
		m.mapView.SetOverlay(m.overlay, m.config.ShowBoundaries)
	case key.Matches(msg, m.keys.ThresholdUp):
		m.config = RaiseThreshold(m.config)
		m.refilter()
	case key.Matches(msg, m.keys.ThresholdDown):
		m.config = LowerThreshold(m.config)
		m.refilter()
	case key.Matches(msg, m.keys.Interval):
		m.config = NextInterval(m.config)
		cmd := m.trigger(pipeline.TriggerSelector, m.config.Selector)
		return m, cmd
	case key.Matches(msg, m.keys.Level):
		m.config = NextLevel(m.config)
		cmd := m.trigger(pipeline.TriggerSelector, m.config.Selector)
		return m, cmd
	case key.Matches(msg, m.keys.SearchMode):
		m.config = NextSearchMode(m.config)
		m.syncFields()
	case key.Matches(msg, m.keys.Edit):
		switch m.config.Selector.Mode {
		case domain.ModeDays:
			cmd := m.focus(fieldDays)
			return m, cmd
		case domain.ModeRange:
			cmd := m.focus(fieldStart)
			return m, cmd
		default:
			cmd := m.setStatus("the summary feed has no fields; press m for a days or range search", slog.LevelInfo)
			return m, cmd
		}
	case key.Matches(msg, m.keys.Submit):
		cmd := m.trigger(pipeline.TriggerSearch, m.config.Selector)
		return m, cmd
	case key.Matches(msg, m.keys.Refresh):
		sel := m.snap.Selector
		if sel.Mode == "" {
			sel = m.config.Selector
		}
		cmd := m.trigger(pipeline.TriggerSearch, sel)
		return m, cmd
	case key.Matches(msg, m.keys.NextMarker):
		m.cycleSelection(1)
	case key.Matches(msg, m.keys.PreviousMarker):
		m.cycleSelection(-1)
	case key.Matches(msg, m.keys.PanUp):
		m.mapView.Pan(0, -panRows)
	case key.Matches(msg, m.keys.PanDown):
		m.mapView.Pan(0, panRows)
	case key.Matches(msg, m.keys.PanLeft):
		m.mapView.Pan(-panCols, 0)
	case key.Matches(msg, m.keys.PanRight):
		m.mapView.Pan(panCols, 0)
	case key.Matches(msg, m.keys.ZoomIn):
		m.mapView.ZoomIn()
	case key.Matches(msg, m.keys.ZoomOut):
		m.mapView.ZoomOut()
	case key.Matches(msg, m.keys.Reset):
		m.mapView.Reset()
	}
	return m, nil
}

// handleEditKey routes keys to the focused search field.
func (m Model) handleEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC:
		return m, tea.Quit
	case key.Matches(msg, m.keys.Cancel):
		m.blur()
		m.syncFields()
		return m, nil
	case key.Matches(msg, m.keys.NextField):
		if m.config.Selector.Mode == domain.ModeRange {
			other := fieldStart
			if m.editing == fieldStart {
				other = fieldEnd
			}
			cmd := m.focus(other)
			return m, cmd
		}
		return m, nil
	case key.Matches(msg, m.keys.Submit):
		m.blur()
		if err := m.commitFields(); err != nil {
			cmd := m.setStatus(err.Error(), slog.LevelError)
			return m, cmd
		}
		cmd := m.trigger(pipeline.TriggerSearch, m.config.Selector)
		return m, cmd
	}
	var cmd tea.Cmd
	m.fields[m.editing], cmd = m.fields[m.editing].Update(msg)
	return m, cmd
}

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if msg.Action != tea.MouseActionPress {
		return m, nil
	}
	mapWidth, mapHeight := m.mapSize()
	col, row := msg.X, msg.Y-headerHeight
	// The last map row is the footer.
	if col < 0 || col >= mapWidth || row < 0 || row >= mapHeight-1 {
		return m, nil
	}
	switch msg.Button {
	case tea.MouseButtonLeft:
		if f, ok := m.mapView.SelectAt(col, row); ok {
			m.selected = &f
		}
	case tea.MouseButtonWheelUp:
		m.mapView.ZoomIn()
	case tea.MouseButtonWheelDown:
		m.mapView.ZoomOut()
	}
	return m, nil
}

// apply replaces the displayed snapshot. Stats, buckets and markers are all
// derived from snap here so they always agree.
func (m *Model) apply(snap store.Snapshot) {
	m.snap = snap
	m.stats = domain.ComputeStats(snap.Collection.Features)
	m.buckets = domain.Bucketize(snap.Collection.Features)
	m.refilter()
}

// refilter rebuilds the marker layer for the current threshold.
func (m *Model) refilter() {
	shown := domain.FilterByMagnitude(m.snap.Collection.Features, m.config.Threshold)
	m.shown = len(shown)
	m.mapView.SetFeatures(shown)
}

func (m *Model) cycleSelection(step int) {
	if f, ok := m.mapView.Cycle(step); ok {
		m.selected = &f
	}
}

// trigger validates sel and asks the pipeline to fetch it. The request is
// queued from a command so a busy pipeline never blocks the UI.
func (m *Model) trigger(t pipeline.Trigger, sel domain.Selector) tea.Cmd {
	if err := sel.Validate(); err != nil {
		return m.setStatus("invalid search: "+err.Error(), slog.LevelError)
	}
	if m.refresher == nil {
		return nil
	}
	ctx, refresher := m.ctx, m.refresher
	return func() tea.Msg {
		if err := refresher.Trigger(ctx, t, sel); err != nil {
			return triggerErrMsg{err: err}
		}
		return nil
	}
}

// setStatus shows a message in the status bar until it fades or is replaced.
func (m *Model) setStatus(text string, level slog.Level) tea.Cmd {
	m.statusSeq++
	m.status = text
	m.statusLevel = level
	seq := m.statusSeq
	return tea.Tick(logRecordFadeDelay, func(time.Time) tea.Msg {
		return logRecordFadeMsg{seq: seq}
	})
}

func (m *Model) focus(field int) tea.Cmd {
	m.blur()
	m.editing = field
	m.fields[field].CursorEnd()
	return m.fields[field].Focus()
}

func (m *Model) blur() {
	for i := range m.fields {
		m.fields[i].Blur()
	}
	m.editing = -1
}

// syncFields loads the search fields from the selector.
func (m *Model) syncFields() {
	days := ""
	if m.config.Selector.Days > 0 {
		days = strconv.Itoa(m.config.Selector.Days)
	}
	m.fields[fieldDays].SetValue(days)
	m.fields[fieldStart].SetValue(m.config.Selector.Start)
	m.fields[fieldEnd].SetValue(m.config.Selector.End)
}

// commitFields copies the search fields into the selector.
func (m *Model) commitFields() error {
	switch m.config.Selector.Mode {
	case domain.ModeDays:
		raw := strings.TrimSpace(m.fields[fieldDays].Value())
		days, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("days must be a whole number, got %q", raw)
		}
		m.config = WithDays(m.config, days)
	case domain.ModeRange:
		m.config = WithRange(m.config,
			strings.TrimSpace(m.fields[fieldStart].Value()),
			strings.TrimSpace(m.fields[fieldEnd].Value()))
	}
	return nil
}

// mapSize is the map area including its footer row.
func (m Model) mapSize() (int, int) {
	return max(m.width-sidebarWidth, 0), max(m.height-headerHeight-statusHeight, 0)
}
