// Package hooks implements the read-through cache used by the console
// screens.
//
// A Hook resolves one resource for one principal:
//
//  1. in demo mode it returns fixture data and touches nothing else;
//  2. otherwise a structurally valid cached value is returned as is (there
//     is no TTL, values live until invalidated);
//  3. on a miss every fetcher runs concurrently, the payloads are flattened,
//     normalized, filtered by the access policy and aggregated, and the
//     result is written back.
//
// Get never fails. Network and store errors are logged and the caller gets
// whatever could be assembled, possibly an empty list with zero stats.
package hooks
