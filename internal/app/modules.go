package app

import (
	"github.com/verigate/verigate/actions/checkout"
	"github.com/verigate/verigate/actions/patch"
	"github.com/verigate/verigate/actions/print"
	"github.com/verigate/verigate/actions/verify"
	"github.com/verigate/verigate/internal/registry"
)

// coreModules is the definitive list of all action modules compiled into the
// verigate binary.
var coreModules = []registry.Module{
	&checkout.Module{},
	&patch.Module{},
	&verify.Module{},
	&print.Module{},
}
