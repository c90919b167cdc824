// Package store provides the durable SQLite storage for ordergate:
// the order history (headers, lines, competitor-price rows), the live
// price catalog and offer materialization, account settings, and the
// exchange log that bounds duplicate detection.
//
// SQLite runs in WAL mode with a single writer connection. Lock
// contention surfaces as SQLITE_BUSY/SQLITE_LOCKED and is treated as a
// retryable condition by RunInTx; callers never see it on success.
package store
