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

// Package zenohremotebridge is the top-level entry point for embedders that
// want a running bridge without assembling cmd/zenoh-remote-bridge's CLI
// themselves. It wires a config and a fabric into a bridge.Bridge and blocks
// until a signal or an explicit Shutdown arrives.
package zenohremotebridge

import (
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/nano-kit/zenoh-remote-bridge/internal/admin"
	"github.com/nano-kit/zenoh-remote-bridge/internal/bridge"
	"github.com/nano-kit/zenoh-remote-bridge/internal/config"
	"github.com/nano-kit/zenoh-remote-bridge/internal/env"
	"github.com/nano-kit/zenoh-remote-bridge/internal/fabric"
	"github.com/nano-kit/zenoh-remote-bridge/internal/log"
	"github.com/nano-kit/zenoh-remote-bridge/internal/watchdog"
)

var running int32

// Listen starts the bridge's WebSocket listener and the scheduler watchdog,
// then blocks until the process receives SIGINT/SIGQUIT/SIGTERM, Shutdown is
// called, or the listener itself fails.
func Listen(cfg *config.Config, fab fabric.Fabric, opts ...bridge.Option) error {
	if atomic.AddInt32(&running, 1) != 1 {
		log.Print("zenoh-remote-bridge already running")
		return nil
	}
	defer atomic.StoreInt32(&running, 0)

	if wd, err := os.Getwd(); err == nil {
		env.Wd, _ = filepath.Abs(wd)
	}

	dir := admin.New(cfg.AsMap())
	b := bridge.New(cfg, fab, dir, opts...)

	watchdog.Start(cfg.WatchdogPeriod)

	serveErr := make(chan error, 1)
	go func() { serveErr <- b.ListenAndServe() }()

	log.Printf("zenoh-remote-bridge listening on %s (tls=%v)", cfg.WebsocketPort, cfg.TLSEnabled())

	sg := make(chan os.Signal, 1)
	signal.Notify(sg, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM)

	select {
	case <-env.Die:
		log.Print("zenoh-remote-bridge shutting down")
		return nil
	case s := <-sg:
		log.Printf("zenoh-remote-bridge got signal %v", s)
		return nil
	case err := <-serveErr:
		return err
	}
}

// Shutdown asks a running Listen to stop and blocks until it has.
func Shutdown() {
	close(env.Die)
	for atomic.LoadInt32(&running) != 0 {
		time.Sleep(10 * time.Millisecond)
	}
}
