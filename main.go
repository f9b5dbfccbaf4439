package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"LocalBoard/internal/config"
	"LocalBoard/internal/logger"
	"LocalBoard/internal/net"
	"LocalBoard/internal/ui"
)

func main() {
	configFile := flag.String("config", "", "TOML config file")
	addr := flag.String("addr", "", "browser host listen address (default :8888)")
	desktop := flag.Bool("desktop", false, "open the desktop window instead of serving browsers")
	advertise := flag.Bool("advertise", false, "announce the browser host over mDNS")
	verbose := flag.Bool("v", false, "verbose logging")
	flag.Parse()

	l, err := logger.New(*verbose)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	zap.ReplaceGlobals(l)
	defer l.Sync() //nolint:errcheck

	cfg, err := config.Load(*configFile)
	if err != nil {
		l.Fatal("load config", zap.Error(err))
	}
	// Flags given on the command line win over the file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			cfg.Addr = *addr
		case "desktop":
			cfg.Desktop = *desktop
		case "advertise":
			cfg.Advertise = *advertise
		}
	})
	if err := cfg.Validate(); err != nil {
		l.Fatal("invalid config", zap.Error(err))
	}

	if cfg.Desktop {
		l.Info("starting desktop host")
		ui.RunApp(cfg, l)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logger.NewContext(ctx, l)

	if err := serve(ctx, cfg); err != nil {
		l.Fatal("browser host", zap.Error(err))
	}
	l.Info("shutdown complete")
}

// serve runs the browser host, and the mDNS announcement when enabled,
// until ctx is cancelled.
func serve(ctx context.Context, cfg config.Config) error {
	l := logger.L(ctx)
	port, err := cfg.Port()
	if err != nil {
		return err
	}
	srv := net.NewServer(cfg, l.Named("net"))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.ListenAndServe(ctx) })

	if cfg.Advertise {
		g.Go(func() error {
			m, err := net.Advertise(port)
			if err != nil {
				// The page is still reachable by address.
				l.Warn("mDNS advertise failed", zap.Error(err))
				return nil
			}
			l.Info("advertising over mDNS", zap.Int("port", port))
			<-ctx.Done()
			return m.Shutdown()
		})
	}

	l.Info("share this link with devices on your network",
		zap.String("url", net.ShareURL(net.OutgoingIP(), port)))
	return g.Wait()
}
