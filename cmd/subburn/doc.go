// Package main hosts the subburn CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into HTTP
// calls against the daemon: uploading videos, steering jobs through the
// review pause, downloading rendered results, and configuration
// scaffolding. It centralizes configuration resolution and daemon address
// discovery so subcommands can focus on user experience instead of wiring.
package main
