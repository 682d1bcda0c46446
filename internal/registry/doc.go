// Package registry loads schema resources and keeps them cached.
//
// A resource is decoded according to its file extension (YAML or HCL), merged
// with the requested vendor extension sets, validated, and stored under its
// path and extension list. Later loads of the same key return the very same
// immutable *schema.Model, and concurrent first loads are collapsed into one.
package registry
