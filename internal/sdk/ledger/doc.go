// Package ledger builds, signs and reads Indy ledger requests.
//
// Requests are kept as decoded JSON objects so that transactions loaded
// from files or typed by hand keep every field they carry. Marshalling
// produces canonical JSON: object keys sorted, no insignificant space.
package ledger
