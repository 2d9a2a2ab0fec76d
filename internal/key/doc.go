// Package key derives entity keys and generates identity values.
//
// A Factory turns an entity into its entity.Key. Two strategies exist:
//
//   - identity: a single database-generated key field of integer or
//     uuid.UUID type. When the field holds its zero value the factory
//     assigns the next identity from the store's Context and writes it back
//     into the entity.
//   - composite: the key is the ordered tuple of the declared key fields'
//     current values; nothing is ever generated or assigned.
//
// NewFactory resolves the strategy through an ordered chain of fallible
// builders: identity first, composite as the always-available fallback.
// Resolution happens once per entity type, at store construction.
//
// The Context is the store's monotonic identity counter. It never hands out
// the same value twice within a store's lifetime, and seeding a store with
// pre-keyed entities advances it past every seeded integer identity.
package key
