// Package cmd implements the command-line interface of kvshim. It provides
// commands for running the server and for using a store as a client, either
// through a server or directly on the data directory.
//
// The package is organized into several subpackages:
//
//   - kv: Store operations (get, set, info) and the perf benchmark
//   - serve: Starting and configuring the kvshim server
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// Every flag can also be set through the environment as KVSHIM_<FLAG>, with
// dashes replaced by underscores (e.g. KVSHIM_DATA_DIR). .env and .env.local
// in the working directory are loaded first.
//
// See kvshim -help for a list of all commands.
package cmd
