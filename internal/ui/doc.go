// Package ui implements a read-only status dashboard using bubbletea's Elm architecture.
//
// The dashboard polls the daemon's /api/status endpoint every two seconds and
// renders the schedule state plus the list of detected sessions. The [Model]
// implements bubbletea's standard Init/Update/View pattern; keyboard
// navigation uses vim-style bindings (j/k, r to refresh, q to quit).
package ui
