// Package session holds the mutable state shared by the commands of one
// indy-cli run: the open pool, the open wallet, the active DID, the base
// prompt and the pending transaction.
//
// There is exactly one Context per process. Handlers get it by pointer;
// replacing a wallet or pool handle always releases the old one first.
package session
