// Package ens resolves Ethereum wallets to their primary ENS names.
//
// Resolution reads the reverse record (<addr>.addr.reverse) through the ENS
// registry, verifies it against the name's forward address record, and for
// .eth names reads the registration expiry from the base registrar. All
// calls are read-only eth_call requests issued through an
// [ethereum.ContractCaller], so any JSON-RPC endpoint works and tests can
// substitute an in-memory caller.
package ens
