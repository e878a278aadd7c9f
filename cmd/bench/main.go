// Command bench runs a synthetic workload against the striped cache and exposes optional pprof/Prometheus endpoints.
package main

import (
	"context"
	"crypto/rand"
	"flag"
	"fmt"
	"log/slog"
	mrand "math/rand"
	"net/http"
	_ "net/http/pprof" // registers /debug/pprof/* on DefaultServeMux
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/IvanBrykalov/stripedlru/cache"
	pmet "github.com/IvanBrykalov/stripedlru/metrics/prom"
)

func main() {
	// ---- Flags ----
	var (
		maxSize  = flag.Int64("size", 256<<20, "total cache budget in bytes (keys+values)")
		shards   = flag.Int("shards", 0, "number of shards (0=auto)")
		minShard = flag.Int64("min-shard", 0, "minimum per-shard budget in bytes (0=1MiB)")
		hasher   = flag.String("hash", "xx", "shard hash: xx | fnv | blake2b")

		workers  = flag.Int("workers", 2*runtime.GOMAXPROCS(0), "number of worker goroutines")
		duration = flag.Duration("duration", 10*time.Second, "benchmark duration")
		readPct  = flag.Int("reads", 80, "read percentage [0..100]")
		valSize  = flag.Int("value-size", 64, "value length in bytes")

		keys    = flag.Int("keys", 1_000_000, "keyspace size")
		zipfS   = flag.Float64("zipf_s", 1.1, "Zipf s > 1 (skew)")
		zipfV   = flag.Float64("zipf_v", 1.0, "Zipf v")
		seed    = flag.Int64("seed", time.Now().UnixNano(), "random seed")
		preload = flag.Int("preload", 100_000, "entries written before the run")

		pprofAddr   = flag.String("pprof", "", "serve pprof at addr (e.g. :6060); empty = disabled")
		metricsAddr = flag.String("http", ":8080", "serve Prometheus metrics at addr; empty = disabled")
		logLevel    = flag.String("log-level", "info", "log level: debug | info | warn | error")
	)
	flag.Parse()

	// ---- Logger ----
	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		fmt.Fprintf(os.Stderr, "invalid -log-level %q: %v\n", *logLevel, err)
		os.Exit(2)
	}
	runID := gonanoid.Must(8)
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})).
		With(slog.String("run", runID))

	// ---- pprof server (on DefaultServeMux) ----
	if *pprofAddr != "" {
		go func() {
			log.Info("pprof: serving", slog.String("addr", *pprofAddr))
			if err := http.ListenAndServe(*pprofAddr, nil); err != nil {
				log.Error("pprof server stopped", slog.Any("error", err))
			}
		}()
	}

	// ---- Prometheus metrics (on DefaultServeMux) ----
	metrics := pmet.New(nil, "lru", "bench", prometheus.Labels{"run": runID})
	if *metricsAddr != "" {
		http.Handle("/metrics", promhttp.Handler())
		go func() {
			log.Info("metrics: serving", slog.String("addr", *metricsAddr))
			if err := http.ListenAndServe(*metricsAddr, nil); err != nil {
				log.Error("metrics server stopped", slog.Any("error", err))
			}
		}()
	}

	// ---- Build cache ----
	opt := cache.Options{
		MaxSize:      *maxSize,
		Shards:       *shards,
		MinShardSize: *minShard,
		Metrics:      metrics,
		Logger:       log,
	}
	switch *hasher {
	case "xx":
		opt.Hasher = cache.HashXX
	case "fnv":
		opt.Hasher = cache.HashFNV
	case "blake2b":
		key := make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			log.Error("reading hash seed", slog.Any("error", err))
			os.Exit(1)
		}
		opt.Hasher = cache.HashBlake2b(key)
	default:
		log.Error("unknown hash (use xx, fnv or blake2b)", slog.String("hash", *hasher))
		os.Exit(2)
	}
	c, err := cache.NewStriped(opt)
	if err != nil {
		log.Error("invalid cache configuration", slog.Any("error", err))
		os.Exit(2)
	}
	defer func() { _ = c.Close() }()

	// Values are random but fixed per run; the benchmark measures the cache, not the generator.
	value := ""
	if *valSize > 0 {
		value = gonanoid.Must(*valSize)
	}

	// ---- Preload ----
	for i := 0; i < *preload; i++ {
		c.Put("k:"+strconv.Itoa(i), value)
	}
	log.Debug("preloaded", slog.Int("entries", c.Len()), slog.Int64("bytes", c.Size()))

	// ---- Snapshot flags for goroutines ----
	readPctVal := *readPct
	keysMax := uint64(max(*keys-1, 1))
	seedBase := *seed
	zipfSVal := *zipfS
	zipfVVal := *zipfV
	workersN := max(*workers, 1)

	// ---- Load generation ----
	var reads, writes, hits, misses, total atomic.Uint64
	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	start := time.Now()
	var g errgroup.Group
	for w := 0; w < workersN; w++ {
		w := w
		g.Go(func() error {
			// Each worker gets its own RNG + Zipf (rand.Rand is NOT goroutine-safe).
			localR := mrand.New(mrand.NewSource(seedBase + int64(w)*9973))
			localZipf := mrand.NewZipf(localR, zipfSVal, zipfVVal, keysMax)

			var sb strings.Builder
			keyByZipf := func() string {
				sb.Reset()
				sb.WriteString("k:")
				sb.WriteString(strconv.FormatUint(localZipf.Uint64(), 10))
				return sb.String()
			}

			for {
				select {
				case <-ctx.Done():
					return nil
				default:
				}

				total.Add(1)
				if int(localR.Int31n(100)) < readPctVal {
					reads.Add(1)
					if _, ok := c.Get(keyByZipf()); ok {
						hits.Add(1)
					} else {
						misses.Add(1)
					}
				} else {
					writes.Add(1)
					c.Put(keyByZipf(), value)
				}
			}
		})
	}
	_ = g.Wait()
	elapsed := time.Since(start)

	// ---- Report ----
	ops := total.Load()
	readsN := reads.Load()
	hitRate := 0.0
	if readsN > 0 {
		hitRate = float64(hits.Load()) / float64(readsN) * 100
	}

	fmt.Printf("run=%s hash=%s size=%d shards=%d workers=%d keys=%d dur=%v seed=%d\n",
		runID, *hasher, c.MaxSize(), c.ShardCount(), workersN, *keys, elapsed, seedBase)
	fmt.Printf("ops=%d (%.0f ops/s)  reads=%d  writes=%d\n",
		ops, float64(ops)/elapsed.Seconds(), readsN, writes.Load())
	fmt.Printf("hits=%d  misses=%d  hit-rate=%.2f%%\n", hits.Load(), misses.Load(), hitRate)
	fmt.Printf("Len()=%d  Size()=%d bytes\n", c.Len(), c.Size())
}
