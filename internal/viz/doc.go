// Package viz renders simulation results in the terminal.
//
//   - [PositionPlot], [ErrorPlot], [ControlPlot], [ComparePlot]: asciigraph
//     charts of a trace
//   - [MembershipPlot], [SurfaceSlice]: the fuzzy controller's sets and
//     control surface
//   - [SummaryPanel], [ComparePanels]: lipgloss boxes with the run summary
//   - [ReplayModel]: a Bubble Tea program that plays a trace back on a
//     Braille [Canvas] dial
//
// # Replay keys
//
//	Space - Pause/Resume
//	←/→   - Step backwards/forwards
//	+/-   - Playback speed
//	R     - Restart
//	?     - Show help
package viz
