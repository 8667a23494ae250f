// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data to the local filesystem.
//
// Adapters:
//   - Config: TOML-based configuration with typed sections
//   - Policy: config-backed required-field policy
package file
