// Package memory provides in-memory implementations of driven port interfaces.
// They back tests and dry runs; nothing is persisted.
package memory
