// Package cli turns command-line arguments into an app.Config. It owns flag
// parsing, input validation, the usage text, and the exit-code taxonomy for
// rejected input.
package cli
