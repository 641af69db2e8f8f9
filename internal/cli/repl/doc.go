// Package repl runs the command loop of indy-cli.
//
//   - repl.go: the Loop, which reads one line at a time and executes it
//   - source.go: the Batch source for scripts and pipes
//   - terminal.go: the interactive Terminal source and secret prompter
//   - completer.go: tab completion from the command registry
//   - history.go: persistent interactive history
//
// Interactive runs report failures and continue. Batch runs stop at the
// first failed line that is not prefixed with -.
package repl
