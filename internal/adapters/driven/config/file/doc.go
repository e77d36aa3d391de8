// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data under the docqa home directory (~/.docqa).
//
// Adapters:
//   - ConfigStore: TOML-based settings storage
//   - PromptStore: user-editable prompt templates with embedded defaults
package file
