// Package seize provides a client for the 6529 community API
// (api.6529.io).
//
// # Endpoints
//
// Three resources are used:
//
//   - /api/identities/{handle}: wallet, avatar reference and canonical handle
//   - /api/profile-logs with rating_matter=REP: paginated rating history
//   - /api/profile-logs with log_type=PROFILE_CREATED: profile creation date
//
// Responses are cached under the "seize" namespace.
//
// # Pagination
//
// [Client.FetchAllLogs] requests pages of [LogPageSize] entries starting at
// page 1 and stops on the first short page, on the first failed page, or
// after [MaxLogPages] pages. Partial histories are returned rather than
// discarded.
package seize
