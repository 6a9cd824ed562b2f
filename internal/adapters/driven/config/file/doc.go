// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data under ~/.testbrief.
//
// Adapters:
//   - ConfigStore: TOML configuration with dotted keys
//   - PromptStore: user-editable drafting prompts
package file
