// Package output renders command results for indy-cli.
//
// This package handles everything the operator sees on screen:
//
//   - result.go: Result and Section, the value handlers return
//   - printer.go: renders a Result or an error to the terminal
//   - table.go: bordered table rendering
//   - formatter.go, json.go, yaml.go: structured payload formatting
//   - style.go: semantic lipgloss styles (success, warning, error)
//   - spinner.go: progress animation for slow pool operations
package output
