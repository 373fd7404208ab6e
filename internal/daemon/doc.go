// Package daemon wires the job store, pipeline manager, and HTTP API into a
// single long-running process. A flock-based lock file keeps a second daemon
// instance from starting against the same working directory.
package daemon
