// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for the faultline
// binaries.
//
// Configuration is loaded from a single file specified by either the
// FAULTLINE_CONFIG environment variable (via [Load]) or a --config
// flag (via [LoadFile]). There are no fallbacks, no ~/.config
// discovery, and no automatic file search. This ensures deterministic,
// auditable configuration with no hidden overrides.
//
// Defaults are complete: a config file only needs to state what it
// changes, and no file at all yields a runnable demo-capable setup.
//
// Variable expansion is performed on path fields after loading:
// ${HOME} and ${VAR:-default} patterns are expanded. No other
// environment variables override config values.
//
// Key exports:
//
//   - [Config] -- master struct with Profile, Log, Session, Demo, MQTT
//   - [Default] -- returns the complete default configuration
//   - [Load] and [LoadFile] -- the two entry points for loading
//
// This package depends on no other faultline packages.
package config
