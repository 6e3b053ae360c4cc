// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Command silod loads a preprocessed snapshot and serves it over
// HTTP. See SPEC_FULL.md §13.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GenSpectrum/silo-go/config"
	"github.com/GenSpectrum/silo-go/exec"
	"github.com/GenSpectrum/silo-go/server"
	"github.com/GenSpectrum/silo-go/siloerr"
	"github.com/GenSpectrum/silo-go/snapshot"
)

const shutdownGrace = 10 * time.Second

func main() {
	var (
		runtimePath = flag.String("runtime", "", "path to runtime config YAML (listenAddr, snapshotDir, workerPoolSize)")
		schemaPath  = flag.String("schema", "", "path to schema config YAML, optional; enables /info column listing")
		snapshotDir = flag.String("snapshot-dir", "", "snapshot directory, overrides runtime config's snapshotDir when set")
		listenAddr  = flag.String("listen", "", "HTTP listen address, overrides runtime config's listenAddr when set")
	)
	flag.Parse()

	logger := log.New(os.Stderr, "silod: ", log.LstdFlags)

	runtime := config.DefaultRuntime()
	if *runtimePath != "" {
		var err error
		runtime, err = config.LoadRuntime(*runtimePath)
		if err != nil {
			logger.Fatalf("loading runtime config: %v", err)
		}
	}
	if *snapshotDir != "" {
		runtime.SnapshotDir = *snapshotDir
	}
	if *listenAddr != "" {
		runtime.ListenAddr = *listenAddr
	}
	if runtime.SnapshotDir == "" {
		logger.Fatal("no snapshot directory given (set -snapshot-dir or runtime config's snapshotDir)")
	}

	var schema *config.Schema
	if *schemaPath != "" {
		var err error
		schema, err = config.LoadSchema(*schemaPath)
		if err != nil {
			logger.Fatalf("loading schema config: %v", err)
		}
	}

	src, err := snapshot.Load(runtime.SnapshotDir)
	if err != nil {
		if kind, ok := siloerr.KindOf(err); ok {
			logger.Fatalf("loading snapshot %s: [%s] %v", runtime.SnapshotDir, kind, err)
		}
		logger.Fatalf("loading snapshot %s: %v", runtime.SnapshotDir, err)
	}
	logger.Printf("loaded snapshot %s: %d partitions, buildId=%s", runtime.SnapshotDir, len(src.Partitions), src.BuildID)

	srv := &server.Server{
		Logger: logger,
		DB: &exec.Database{
			Partitions:  src.Partitions,
			LineageTree: src.LineageTree,
			Lineage:     src.Lineage,
		},
		Coordinator: exec.Coordinator{Parallel: runtime.WorkerPoolSize},
		Schema:      schema,
		BuildID:     src.BuildID,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Printf("listening on %s", runtime.ListenAddr)
		errCh <- srv.ListenAndServe(runtime.ListenAddr)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Fatalf("serving: %v", err)
		}
	case <-ctx.Done():
		stop()
		logger.Print("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Fatalf("shutdown: %v", err)
		}
	}
}
