// Package config defines the format-agnostic configuration model for the
// application, along with the Loader interface for reading it from
// configuration files.
//
// The `config.Model` is the single source of truth for the parse limits,
// the schema location and the runtime options of the app package. Concrete
// loaders, such as the HCL one, are provided in separate packages.
package config
