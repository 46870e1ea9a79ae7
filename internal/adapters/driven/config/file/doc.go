// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data to the local filesystem.
//
// Adapters:
//   - ConfigStore: key/value access to the TOML or YAML settings file
//   - PromptStore: user-editable prompt templates
package file
