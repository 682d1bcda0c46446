// Package app contains the core application logic. It defines the main App
// struct, its configuration, and the parse lifecycle over a set of
// declaration files, decoupled from any specific entrypoint like a CLI.
package app
