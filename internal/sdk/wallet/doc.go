// Package wallet is the local wallet implementation behind sdk.Wallets.
//
// Each wallet lives in its own directory under the wallet root:
//
//	<root>/<name>/config.json   the sdk.WalletConfig
//	<root>/<name>/db/           badger record store
//
// Every record value is sealed with an AEAD keyed by the wallet key, using
// the record key as associated data so values cannot be swapped between
// records. A salt header and a sealed check value detect a wrong key.
//
// Export writes an sqlite backup whose records are sealed under a separate
// export key; Import builds a new wallet from such a file.
package wallet
