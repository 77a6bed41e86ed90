/*
 * This file is part of Go Schedbench.
 *
 * Go Schedbench is free software: you can redistribute it and/or modify it under
 * the terms of the GNU General Public License as published by the Free Software Foundation,
 * either version 2 of the License, or (at your option) any later version.
 * Go Schedbench is distributed in the hope that it will be useful, but WITHOUT ANY
 * WARRANTY; without even the implied warranty of MERCHANTABILITY or FITNESS FOR A
 * PARTICULAR PURPOSE. See the GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License along
 * with Go Schedbench. If not, see <https://www.gnu.org/licenses/>.
 */

package debug

import (
	"io"

	"github.com/sirupsen/logrus"
)

type DebugLevel int8

const (
	NoDebug DebugLevel = iota
	Debug
	Warn
	Error
)

func (level DebugLevel) ToString() string {
	switch level {
	case NoDebug:
		return "NoDebug"
	case Debug:
		return "Debug"
	case Warn:
		return "Warn"
	case Error:
		return "Error"
	}
	return "Unrecognized debug level"
}

// LogrusLevel maps a debug level onto the most verbose logrus level that it
// lets through. NoDebug is the default: progress, warnings and errors.
func (level DebugLevel) LogrusLevel() logrus.Level {
	switch level {
	case Debug:
		return logrus.DebugLevel
	case Warn:
		return logrus.WarnLevel
	case Error:
		return logrus.ErrorLevel
	}
	return logrus.InfoLevel
}

func IsDebug(level DebugLevel) bool {
	return level == Debug
}

func NewLogger(level DebugLevel, out io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetLevel(level.LogrusLevel())
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05.000",
	})
	return logger
}

type DebugWithPrefix struct {
	Level  DebugLevel
	Prefix string
	logger logrus.FieldLogger
}

func NewDebugWithPrefix(logger logrus.FieldLogger, level DebugLevel, prefix string) *DebugWithPrefix {
	return &DebugWithPrefix{
		Level:  level,
		Prefix: prefix,
		logger: logger.WithField("component", prefix),
	}
}

func (d *DebugWithPrefix) String() string {
	return d.Prefix
}

// Logger returns the logger that tags every entry with the prefix.
func (d *DebugWithPrefix) Logger() logrus.FieldLogger {
	return d.logger
}

// Extend derives a debugging configuration for a sub-component. The prefix
// of the result is "<prefix>/<suffix>".
func (d *DebugWithPrefix) Extend(suffix string) *DebugWithPrefix {
	prefix := d.Prefix + "/" + suffix
	return &DebugWithPrefix{
		Level:  d.Level,
		Prefix: prefix,
		logger: d.logger.WithField("component", prefix),
	}
}
