// Package output renders a run as it happens.
//
// The console formatter prints one colored line per case the moment it is
// recorded. The json and junit formatters buffer the run and write it on
// Flush. The tap formatter streams points and writes its plan on Flush.
package output
