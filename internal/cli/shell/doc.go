// Package shell is the indy-cli command interpreter.
//
// It owns the line grammar and everything between a raw input line and a
// handler call:
//
//   - registry.go: groups and commands, registered once at startup
//   - spec.go: CommandSpec and ParamSpec, the static command catalog model
//   - parser.go: tokenizes a line into bare and name=value tokens
//   - params.go: binds tokens to a spec and coerces values to typed Params
//   - executor.go: resolve, validate, check preconditions, invoke
//   - help.go, suggest.go: help screens and "did you mean" hints
//   - errors.go: the interpreter error taxonomy
//
// Handlers receive the single session context by pointer and never see raw
// strings for non-string parameters.
package shell
