package testutil

// Manifest fixtures for the built-in actions. Tests put the ones their
// workflows use into the fixture tree; registry validation cross-checks them
// against the compiled handlers on every boot.

const CheckoutManifest = `
action "checkout" {
  lifecycle {
    on_run = "OnRunCheckout"
  }

  input "repo" {
    type = string
  }

  input "ref" {
    type    = string
    default = "HEAD"
  }

  output "dir" {
    type = string
  }

  output "commit" {
    type = string
  }
}
`

const PatchManifest = `
action "patch" {
  lifecycle {
    on_run = "OnRunPatch"
  }

  input "file" {
    type = string
  }

  input "line" {
    type    = number
    default = 0
  }

  input "match" {
    type    = string
    default = ""
  }

  output "file" {
    type = string
  }

  output "removed_line" {
    type = string
  }

  output "lines_before" {
    type = number
  }

  output "lines_after" {
    type = number
  }
}
`

const VerifyManifest = `
action "verify" {
  lifecycle {
    on_run = "OnRunVerify"
  }

  input "command" {
    type = string
  }

  input "args" {
    type    = list(string)
    default = []
  }

  input "codegen_only" {
    type    = bool
    default = true
  }

  input "dir" {
    type    = string
    default = ""
  }

  output "command" {
    type = string
  }

  output "exit_code" {
    type = number
  }
}
`

const PrintManifest = `
action "print" {
  lifecycle {
    on_run = "OnRunPrint"
  }

  input "input" {
    type    = map(string)
    default = {}
  }
}
`
