// Copyright (c) nano Authors. All Rights Reserved.
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// Package log wraps a process-wide zap.SugaredLogger behind the small
// Print/Printf/Fatal surface the rest of the tree calls, so call sites never
// import zap directly.
package log

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the interface that an overriding logger must satisfy.
type Logger interface {
	Print(v ...interface{})
	Printf(format string, v ...interface{})
	Warnf(format string, v ...interface{})
	Errorf(format string, v ...interface{})
	Fatal(v ...interface{})
	Fatalf(format string, v ...interface{})
}

var logger Logger = newDefault()

type zapLogger struct {
	l *zap.SugaredLogger
}

func newDefault() *zapLogger {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "ts"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(cfg), zapcore.AddSync(os.Stderr), zap.NewAtomicLevelAt(zapcore.InfoLevel))
	return &zapLogger{l: zap.New(core).Sugar()}
}

func (z *zapLogger) Print(v ...interface{})                  { z.l.Info(v...) }
func (z *zapLogger) Printf(format string, v ...interface{})  { z.l.Infof(format, v...) }
func (z *zapLogger) Warnf(format string, v ...interface{})   { z.l.Warnf(format, v...) }
func (z *zapLogger) Errorf(format string, v ...interface{})  { z.l.Errorf(format, v...) }
func (z *zapLogger) Fatal(v ...interface{})                  { z.l.Fatal(v...) }
func (z *zapLogger) Fatalf(format string, v ...interface{})  { z.l.Fatalf(format, v...) }

// SetLogger overrides the package-wide logger.
func SetLogger(l Logger) { logger = l }

// SetLevel adjusts the default zap logger's level; no-op if a custom Logger
// was installed via SetLogger.
func SetLevel(debug bool) {
	if z, ok := logger.(*zapLogger); ok {
		lvl := zapcore.InfoLevel
		if debug {
			lvl = zapcore.DebugLevel
		}
		cfg := zap.NewProductionEncoderConfig()
		cfg.TimeKey = "ts"
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		core := zapcore.NewCore(zapcore.NewConsoleEncoder(cfg), zapcore.AddSync(os.Stderr), zap.NewAtomicLevelAt(lvl))
		z.l = zap.New(core).Sugar()
	}
}

func Print(v ...interface{})                 { logger.Print(v...) }
func Printf(format string, v ...interface{}) { logger.Printf(format, v...) }
func Warnf(format string, v ...interface{})  { logger.Warnf(format, v...) }
func Errorf(format string, v ...interface{}) { logger.Errorf(format, v...) }
func Fatal(v ...interface{})                 { logger.Fatal(v...) }
func Fatalf(format string, v ...interface{}) { logger.Fatalf(format, v...) }
