// Package file provides file-based configuration adapters.
//
// Adapters:
//   - ConfigStore: TOML configuration with dot-notation keys
//   - TemplateStore: HTML notification templates read from a directory
//   - ScenarioStore: YAML or JSON scenario catalogue, reloaded on change
package file
