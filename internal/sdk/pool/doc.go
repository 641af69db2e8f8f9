// Package pool is the local pool implementation behind sdk.Pools.
//
// A pool is a named copy of a genesis transaction file:
//
//	<root>/<name>/<name>.txn     genesis transactions, one JSON object per line
//	<root>/<name>/config.json    {"genesis_txn": "<path of the copy>"}
//
// Nodes are reached with JSON over HTTP. A reply is accepted once f+1
// nodes agree on it, where f = (n-1)/3 is the number of faulty nodes an
// n node pool tolerates.
package pool
