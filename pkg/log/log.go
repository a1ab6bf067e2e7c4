// Copyright (C) 2025  nagare authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package log provides the logging facility used by all nagare packages.
// It is a thin layer on top of logrus with formatters tailored for
// command line and daemon output.
package log

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Level is the severity of a log entry.
type Level = logrus.Level

const (
	FatalLevel Level = logrus.FatalLevel
	ErrorLevel Level = logrus.ErrorLevel
	WarnLevel  Level = logrus.WarnLevel
	InfoLevel  Level = logrus.InfoLevel
	DebugLevel Level = logrus.DebugLevel
	TraceLevel Level = logrus.TraceLevel
)

// std is the logger instance shared by the whole process.
var std = logrus.New()

// init modifies the global logger instance with the desired output (stdout)
// and customized formatter.
func init() {
	SetOutput(os.Stdout)
	SetFormatter(&CliFormatter{})
	std.SetLevel(logrus.InfoLevel)
}

// SetOutput sets the destination of logs.
func SetOutput(w io.Writer) {
	std.SetOutput(w)
}

// SetFormatter sets the log formatter.
func SetFormatter(f logrus.Formatter) {
	std.SetFormatter(f)
}

// SetLevel updates the minimum severity of printed logs. The input is case
// insensitive. An unrecognized level is ignored.
func SetLevel(level string) {
	switch strings.ToUpper(level) {
	case "FATAL":
		std.SetLevel(logrus.FatalLevel)
	case "ERROR":
		std.SetLevel(logrus.ErrorLevel)
	case "WARN", "WARNING":
		std.SetLevel(logrus.WarnLevel)
	case "INFO":
		std.SetLevel(logrus.InfoLevel)
	case "DEBUG":
		std.SetLevel(logrus.DebugLevel)
	case "TRACE":
		std.SetLevel(logrus.TraceLevel)
	}
}

// GetLevel returns the minimum severity of printed logs.
func GetLevel() Level {
	return std.GetLevel()
}

// IsLevelEnabled checks if the given log level will be printed.
func IsLevelEnabled(level Level) bool {
	return std.IsLevelEnabled(level)
}

func Tracef(format string, args ...any) {
	std.Tracef(format, args...)
}

func Debugf(format string, args ...any) {
	std.Debugf(format, args...)
}

func Infof(format string, args ...any) {
	std.Infof(format, args...)
}

func Warnf(format string, args ...any) {
	std.Warnf(format, args...)
}

func Errorf(format string, args ...any) {
	std.Errorf(format, args...)
}

func Fatalf(format string, args ...any) {
	std.Fatalf(format, args...)
}
