// Package export builds sealed, self-verifying ZIP packages from stored
// originals, derivatives, and ledger history for delivery outside the system.
package export
