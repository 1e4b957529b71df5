// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data under the zerosignal config directory.
//
// Adapters:
//   - ConfigStore: TOML-based settings storage (config.toml)
//   - PromptStore: User-editable summary prompts (prompts/*.txt)
package file
