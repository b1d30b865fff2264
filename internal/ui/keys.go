package ui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all key bindings for the dashboard.
type KeyMap struct {
	// View.
	Theme      key.Binding
	TileLayer  key.Binding
	Boundaries key.Binding

	// Feed and search.
	Interval   key.Binding // Cycle the summary feed window and fetch.
	Level      key.Binding // Cycle the summary feed level and fetch.
	SearchMode key.Binding
	Edit       key.Binding // Edit the days or date range fields.
	NextField  key.Binding
	Submit     key.Binding
	Cancel     key.Binding
	Refresh    key.Binding

	// Marker filter.
	ThresholdUp   key.Binding
	ThresholdDown key.Binding

	// Selection.
	NextMarker     key.Binding
	PreviousMarker key.Binding

	// Map navigation.
	PanUp    key.Binding
	PanDown  key.Binding
	PanLeft  key.Binding
	PanRight key.Binding
	ZoomIn   key.Binding
	ZoomOut  key.Binding
	Reset    key.Binding

	Help key.Binding
	Quit key.Binding
}

// DefaultKeyMap is the built-in key binding set.
var DefaultKeyMap = KeyMap{
	Theme: key.NewBinding(
		key.WithKeys("t"),
		key.WithHelp("t", "theme"),
	),
	TileLayer: key.NewBinding(
		key.WithKeys("l"),
		key.WithHelp("l", "tile layer"),
	),
	Boundaries: key.NewBinding(
		key.WithKeys("p"),
		key.WithHelp("p", "plates"),
	),
	Interval: key.NewBinding(
		key.WithKeys("i"),
		key.WithHelp("i", "interval"),
	),
	Level: key.NewBinding(
		key.WithKeys("v"),
		key.WithHelp("v", "feed level"),
	),
	SearchMode: key.NewBinding(
		key.WithKeys("m"),
		key.WithHelp("m", "search mode"),
	),
	Edit: key.NewBinding(
		key.WithKeys("e"),
		key.WithHelp("e", "edit search"),
	),
	NextField: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "next field"),
	),
	Submit: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "search"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "cancel"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh"),
	),
	ThresholdUp: key.NewBinding(
		key.WithKeys("]"),
		key.WithHelp("]", "min mag +"),
	),
	ThresholdDown: key.NewBinding(
		key.WithKeys("["),
		key.WithHelp("[", "min mag -"),
	),
	NextMarker: key.NewBinding(
		key.WithKeys("n"),
		key.WithHelp("n", "next quake"),
	),
	PreviousMarker: key.NewBinding(
		key.WithKeys("N"),
		key.WithHelp("N", "prev quake"),
	),
	PanUp: key.NewBinding(
		key.WithKeys("up"),
		key.WithHelp("↑", "pan up"),
	),
	PanDown: key.NewBinding(
		key.WithKeys("down"),
		key.WithHelp("↓", "pan down"),
	),
	PanLeft: key.NewBinding(
		key.WithKeys("left"),
		key.WithHelp("←", "pan left"),
	),
	PanRight: key.NewBinding(
		key.WithKeys("right"),
		key.WithHelp("→", "pan right"),
	),
	ZoomIn: key.NewBinding(
		key.WithKeys("+", "="),
		key.WithHelp("+", "zoom in"),
	),
	ZoomOut: key.NewBinding(
		key.WithKeys("-"),
		key.WithHelp("-", "zoom out"),
	),
	Reset: key.NewBinding(
		key.WithKeys("0"),
		key.WithHelp("0", "reset view"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Interval, k.SearchMode, k.Edit, k.ThresholdDown, k.ThresholdUp, k.NextMarker, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Interval, k.Level, k.SearchMode, k.Edit, k.Submit, k.Refresh},
		{k.ThresholdUp, k.ThresholdDown, k.NextMarker, k.PreviousMarker},
		{k.PanUp, k.PanDown, k.PanLeft, k.PanRight, k.ZoomIn, k.ZoomOut, k.Reset},
		{k.Theme, k.TileLayer, k.Boundaries, k.Help, k.Quit},
	}
}
