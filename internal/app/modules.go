package app

import (
	"io"

	"github.com/specialistvlad/pulsegraph/internal/registry"
	"github.com/specialistvlad/pulsegraph/modules/buffer"
	"github.com/specialistvlad/pulsegraph/modules/clock"
	"github.com/specialistvlad/pulsegraph/modules/constant"
	"github.com/specialistvlad/pulsegraph/modules/present"
	"github.com/specialistvlad/pulsegraph/modules/print"
	"github.com/specialistvlad/pulsegraph/modules/repeat"
	"github.com/specialistvlad/pulsegraph/modules/sum"
)

// coreModules is the definitive list of all modules that are compiled into
// the pulsegraph binary. Sinks write to outW.
func coreModules(outW io.Writer) []registry.Module {
	return []registry.Module{
		&clock.Module{},
		&constant.Module{},
		&sum.Module{},
		&print.Module{Out: outW},
		&buffer.Module{},
		&repeat.Module{},
		&present.Module{},
	}
}
