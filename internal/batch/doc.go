// Package batch implements the auto-order ("shortage batch") processor:
// it accepts an uploaded compressed shortage file, extracts and parses
// it into demand lines, sources candidate orders from the live offer
// snapshot under the account's sourcing rule, and serializes the result
// to flat delimited text files ready for archiving by an external
// collaborator.
//
// The parse-and-source step has the one bounded retry budget in the
// system: the transient "no eligible offers" condition is retried up to
// a fixed attempt count and wall-clock budget, whichever runs out first.
// Every other failure is wrapped once with context and reported
// immediately.
package batch
