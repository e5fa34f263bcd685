// Package app contains the core application logic. It defines the main App
// struct, its configuration, and the two execution lifecycles (one-shot and
// watch), decoupled from any specific entrypoint like a CLI.
package app
