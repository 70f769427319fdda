// Command demoserver serves a local speed-test page for trying speedcheck
// without reaching fast.com.
// Usage: go run ./cmd/demoserver [port] [seconds]
// Defaults: port 9999, a 5 second test.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/raysh454/speedcheck/internal/demoserver"
	"github.com/raysh454/speedcheck/internal/logging"
)

func main() {
	console := logging.NewConsole(1)
	cfg := demoserver.DefaultConfig()

	if len(os.Args) > 1 {
		port, err := strconv.Atoi(os.Args[1])
		if err != nil || port < 1 || port > 65535 {
			console.Fatal(fmt.Sprintf("invalid port: %s", os.Args[1]))
		}
		cfg.Port = port
	}
	if len(os.Args) > 2 {
		secs, err := strconv.Atoi(os.Args[2])
		if err != nil || secs < 0 {
			console.Fatal(fmt.Sprintf("invalid duration: %s", os.Args[2]))
		}
		cfg.Duration = time.Duration(secs) * time.Second
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	console.Info(fmt.Sprintf("speed test page at http://localhost:%d/ (ready after %s)", cfg.Port, cfg.Duration))
	console.Info(fmt.Sprintf("try: speedcheck --url http://localhost:%d/ --backend nethttp -v", cfg.Port))

	server := demoserver.NewDemoServer(cfg, demoserver.WithLogger(console))
	if err := server.Start(ctx); err != nil {
		console.Fatal("server error", logging.Field{Key: "error", Value: err})
	}
}
