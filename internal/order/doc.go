// Package order defines the domain model for a client order submission:
// order headers, order lines, outcome codes, the columnar wire parser,
// the legacy text codec, and the client-facing result encoding.
//
// The whole OrderHeader/OrderLine graph produced by ParseOrders is owned
// by a single reconciliation run. Downstream stages mutate it in place;
// nothing here is safe for concurrent use across submissions, and nothing
// needs to be.
package order
