// Package key models resource keys.
//
// A Key addresses one or more entries of a resource. It is a sum type with
// three variants: a single key, an ordered list of keys, or a symbolic Alias
// that expands to concrete keys at resolution time. AliasAll expands to every
// key currently known to the resource.
package key
