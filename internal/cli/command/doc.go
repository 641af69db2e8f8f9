// Package command wires indy-cli together.
//
// It defines the process entry (urfave/cli/v2 flags and exit codes) and
// the command catalog the interpreter dispatches to:
//
//   - root.go: process flags, startup, exit codes
//   - backend.go: the SDK capabilities handlers drive, registry assembly
//   - common.go: about, exit, prompt, show, init-logger, load-plugin
//   - wallet.go, pool.go, did.go: wallet, pool and identity groups
//   - ledger.go: ledger request commands
//   - transaction.go: signing, sending and rendering of ledger requests
//
// Handlers read typed params from the invocation and mutate the session
// only through its slot methods.
package command
