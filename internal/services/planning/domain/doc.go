// Package domain defines the planning entities and the validation rules that
// guard their creation.
//
// A session is the sole authorization boundary: every story, user and vote
// belongs to exactly one session and references it by id. Ownership is
// re-checked on every mutating call instead of being assumed from the object
// graph, so stale or cross-session identities cannot act on foreign state.
package domain
