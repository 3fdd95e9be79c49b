// Package autoload initialises the global logger from LOG_* env on import.
package autoload

import (
	configx "github.com/tanpawarit/Community-Resource-Navigator/pkg/config"
	logx "github.com/tanpawarit/Community-Resource-Navigator/pkg/logger"
)

func init() {
	conf, err := configx.New[logx.Config]("LOG")
	if err != nil {
		logx.Init()
		return
	}
	logx.Init(*conf)
}
