// Package autoload initializes the global logger from the LOG_* environment
// on import, so logging works before any explicit wiring.
//
//	import _ "github.com/wrenvoice/voice-scheduler/pkg/logger/autoload"
package autoload

import (
	configx "github.com/wrenvoice/voice-scheduler/pkg/config"
	logx "github.com/wrenvoice/voice-scheduler/pkg/logger"
)

func init() {
	logx.Init(*configx.MustNew[logx.Config]("log"))
}
