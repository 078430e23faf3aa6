// rsworker plays mission jobs for remote clients. Jobs arrive over a
// websocket, or as JSON lines on stdin with -stdio.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rustyscript/rustyscript/pkg/mission"
	"github.com/rustyscript/rustyscript/pkg/protocol"
	"github.com/rustyscript/rustyscript/pkg/runner"
	"github.com/rustyscript/rustyscript/pkg/store"
	"github.com/rustyscript/rustyscript/pkg/transport/ws"
	"github.com/rustyscript/rustyscript/pkg/worker"
)

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil && v > 0 {
		return v
	}
	return def
}

var (
	flagAddr    = flag.String("addr", env("RSWORKER_ADDR", ":8080"), "Listen address")
	flagWorkers = flag.Int("workers", envInt("N_WORKERS", 4), "Number of concurrent missions")
	flagDB      = flag.String("db", env("RSWORKER_DB", ""), "SQLite run index (empty: no index)")
	flagReplays = flag.String("replays", env("RSWORKER_REPLAYS", ""), "Replay directory (empty: no replays)")
	flagLevels  = flag.String("levels", env("RSWORKER_LEVELS", ""), "YAML level catalog (default: built-in levels)")
	flagStdio   = flag.Bool("stdio", false, "Read jobs from stdin, write replies to stdout")
)

func main() {
	flag.Parse()
	logger := log.New(os.Stderr, "[rsworker] ", log.LstdFlags)

	if err := run(logger); err != nil {
		logger.Fatal(err)
	}
}

func run(logger *log.Logger) error {
	r := runner.New()
	if *flagLevels != "" {
		levels, err := mission.LoadCatalog(*flagLevels)
		if err != nil {
			return err
		}
		r.Levels = levels
	}

	cfg := worker.Config{
		Workers:   *flagWorkers,
		Runner:    r,
		ReplayDir: *flagReplays,
		Log:       logger,
	}
	if *flagDB != "" {
		st, err := store.Open(*flagDB)
		if err != nil {
			return err
		}
		defer st.Close()
		cfg.Store = st
	}
	pool := worker.New(cfg)
	defer pool.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *flagStdio {
		return serveStdio(ctx, pool, logger)
	}
	return serveHTTP(ctx, pool, logger)
}

func serveHTTP(ctx context.Context, pool *worker.Pool, logger *log.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/v1/ws", ws.NewServer(pool, logger).Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintln(w, "ok")
	})

	srv := &http.Server{
		Addr:              *flagAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdown)
	}()

	logger.Printf("listening on %s (queue %s)", *flagAddr, protocol.Queue)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// serveStdio answers one job per input line, in order.
func serveStdio(ctx context.Context, pool *worker.Pool, logger *log.Logger) error {
	in := bufio.NewScanner(os.Stdin)
	in.Buffer(make([]byte, 64*1024), 4*1024*1024)
	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	for in.Scan() {
		line := in.Bytes()
		if len(line) == 0 {
			continue
		}
		var reply protocol.Reply
		job, err := protocol.DecodeJob(line)
		if err != nil {
			reply = protocol.Failed(err.Error())
		} else if reply, err = pool.Submit(ctx, job); err != nil {
			return err
		}
		b, err := reply.Encode()
		if err != nil {
			return err
		}
		out.Write(b)
		out.WriteByte('\n')
		if err := out.Flush(); err != nil {
			return err
		}
	}
	if err := in.Err(); err != nil {
		return err
	}
	logger.Printf("stdin closed")
	return nil
}
