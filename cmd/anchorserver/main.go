// Copyright 2025 Google LLC. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// anchorserver serves the EU LOTL trust anchors read-only over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eutl-dev/lotlanchors/internal/anchorfile"
	ihttp "github.com/eutl-dev/lotlanchors/internal/http"
	"github.com/eutl-dev/lotlanchors/lotl"
	"github.com/eutl-dev/lotlanchors/monitoring"
	"github.com/eutl-dev/lotlanchors/monitoring/prometheus"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"
)

var (
	addr        = flag.String("listen", ":8080", "Address to listen on")
	metricsAddr = flag.String("metrics_listen", ":8081", "Address to listen on for metrics")
	anchorsFile = flag.String("anchors_file", "", "Optional path to a YAML anchors file to serve instead of the embedded one")
	rateLimit   = flag.Float64("rate_limit", 0, "Maximum number of requests per second to serve, or zero to disable")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	defer klog.Flush()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if *metricsAddr == "" {
		klog.Info("No metrics_listen address provided so skipping prometheus setup")
		monitoring.SetMetricFactory(monitoring.InertMetricFactory{})
	} else {
		monitoring.SetMetricFactory(prometheus.MetricFactory{
			Prefix: "lotl_",
		})
	}

	cfg, err := anchorfile.Load(*anchorsFile)
	if err != nil {
		klog.Exitf("Failed to load anchors: %v", err)
	}
	klog.Infof("Serving %d anchors from publication %q for %s", cfg.Len(), cfg.PublicationID(), cfg.TrustedListURL())

	httpListener, err := net.Listen("tcp", *addr)
	if err != nil {
		klog.Exitf("Failed to listen on %q: %v", *addr, err)
	}
	if err := run(ctx, cfg, httpListener, *metricsAddr, *rateLimit); err != nil && !errors.Is(err, context.Canceled) {
		klog.Exitf("run failed: %v", err)
	}
}

// run serves cfg on the listener until ctx is done or a server fails.
func run(ctx context.Context, cfg *lotl.Configuration, httpListener net.Listener, metricsAddr string, rateLimit float64) error {
	s, err := ihttp.NewServer(cfg, rateLimit)
	if err != nil {
		return fmt.Errorf("failed to create server: %v", err)
	}
	r := mux.NewRouter()
	s.RegisterHandlers(r)

	// If any server dies, then all of them will be stopped via context cancellation.
	g, ctx := errgroup.WithContext(ctx)

	hs := &http.Server{
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  5 * time.Minute,
	}
	servers := []*http.Server{hs}
	g.Go(func() error {
		klog.Infof("HTTP server listening on %q", httpListener.Addr())
		defer klog.Info("HTTP server goroutine done")
		return hs.Serve(httpListener)
	})

	if metricsAddr != "" {
		mm := http.NewServeMux()
		mm.Handle("/metrics", promhttp.Handler())
		ms := &http.Server{
			Addr:         metricsAddr,
			Handler:      mm,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
		}
		servers = append(servers, ms)
		g.Go(func() error {
			klog.Infof("Prometheus configured to listen on %q", metricsAddr)
			return ms.ListenAndServe()
		})
	}

	g.Go(func() error {
		// This goroutine brings down the servers when ctx is done.
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		for _, srv := range servers {
			if err := srv.Shutdown(sctx); err != nil {
				klog.Warningf("Shutdown: %v", err)
			}
		}
		return ctx.Err()
	})

	if err := g.Wait(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
