package app

import (
	"io"

	"github.com/vk/blockflow/internal/registry"
	"github.com/vk/blockflow/modules/env_vars"
	"github.com/vk/blockflow/modules/http_request"
	"github.com/vk/blockflow/modules/print"
	"github.com/vk/blockflow/modules/s3"
	"github.com/vk/blockflow/modules/settings"
	"github.com/vk/blockflow/modules/socketio"
	"github.com/vk/blockflow/modules/timer"
	"github.com/vk/blockflow/modules/translate"
)

// coreModules is the definitive list of all modules that are compiled into
// the blockflow binary. Printers write to outW.
func coreModules(outW io.Writer) []registry.Module {
	return []registry.Module{
		&env_vars.Module{},
		&print.Module{Out: outW},
		&http_request.Module{},
		&s3.Module{},
		&socketio.Module{},
		&settings.Module{},
		&timer.Module{},
		&translate.Module{},
	}
}
