// Package reorder implements the order reconciliation and submission
// engine: permission and weekly-limit gates, the minimum-requirement
// check, duplicate detection against recently stored orders, price
// reconciliation against the live offer snapshot, and orchestration of
// the transactional persist.
//
// One Submitter owns one submission end-to-end. It is not safe for
// concurrent use; concurrent submissions each get their own Submitter,
// and cross-submission correctness is delegated to the store's
// transactional semantics.
package reorder
