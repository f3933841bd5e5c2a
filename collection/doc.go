// Package collection provides the small generic maps resources are built on.
//
// MetadataMap attaches lazily-defaulted per-key metadata; OrderedMap keeps
// keyed values in an explicit, reorderable sequence. Neither type is safe for
// concurrent use; owners guard them with their own locks.
package collection
