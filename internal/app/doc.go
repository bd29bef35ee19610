// Package app wires the loader, the graph builder and the query engine
// into the command-line application: it owns the logger, the run lifecycle
// and the plain-text report rendering. The engine packages underneath stay
// free of I/O.
package app
