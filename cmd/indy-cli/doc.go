// Package main provides the entry point for indy-cli.
//
// indy-cli is the command line interpreter for Hyperledger Indy ledgers.
// Without arguments on a terminal it runs an interactive session; with a
// script path, or with stdin piped in, it executes the lines in batch mode
// and stops at the first failed line that is not prefixed with -.
//
// Exit codes: 0 on success, 1 when a batch run aborts, 2 on usage or
// startup errors.
package main
