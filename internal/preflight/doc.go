// Package preflight provides readiness checks for the external services,
// binaries, and filesystem paths the daemon depends on.
//
// The daemon entrypoint runs RunAll once at startup and logs every failed
// check so a misconfigured install fails loudly before the first job is
// accepted. Individual checks are also usable on their own.
package preflight
