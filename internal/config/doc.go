// Package config defines the format-agnostic model of module definitions,
// along with the Loader interface that format-specific adapters implement.
//
// A `config.Model` is what the builder consumes. It contains references in
// unresolved form; resolving them against other modules, parameters and
// action ids is the builder's job. Concrete loaders for HCL and YAML live in
// separate packages.
package config
