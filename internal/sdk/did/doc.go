// Package did derives Indy DIDs and verification keys from ed25519 keys.
//
// An Indy DID is the base58 form of the first 16 bytes of the public key;
// the verkey is the base58 form of the whole key. Fully qualified DIDs carry
// a did:<method>: prefix.
package did
