/*
 * vndap
 *
 * Copyright 2020 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the MIT
 * License, If a copy of the MIT License was not distributed with this
 * file, You can obtain one at https://opensource.org/licenses/MIT.
 */

package util

import (
	"fmt"

	"github.com/rs/zerolog"
)

/*
ZerologLogger adapts a zerolog.Logger to the Logger interface used
throughout the debug engine.
*/
type ZerologLogger struct {
	logger zerolog.Logger
}

/*
NewZerologLogger returns a new zerolog-backed logger instance.
*/
func NewZerologLogger(logger zerolog.Logger) *ZerologLogger {
	return &ZerologLogger{logger}
}

/*
LogError adds a new error log message.
*/
func (zl *ZerologLogger) LogError(m ...interface{}) {
	zl.logger.Error().Msg(fmt.Sprint(m...))
}

/*
LogInfo adds a new info log message.
*/
func (zl *ZerologLogger) LogInfo(m ...interface{}) {
	zl.logger.Info().Msg(fmt.Sprint(m...))
}

/*
LogDebug adds a new debug log message.
*/
func (zl *ZerologLogger) LogDebug(m ...interface{}) {
	zl.logger.Debug().Msg(fmt.Sprint(m...))
}
