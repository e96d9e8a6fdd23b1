// Package txn builds, assembles and signs the transactions submitted by the
// prereq client: native transfers, full-balance drains and the prereq
// program's "complete" call.
//
// Nothing in this package talks to the network except through the small
// capability interfaces it declares (FeeQuoter), so every step can be tested
// against in-memory fakes.
package txn
