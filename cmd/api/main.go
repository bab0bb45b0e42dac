package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang/glog"
	"github.com/joho/godotenv"

	"github.com/cassight/aspeak/internal/config"
	"github.com/cassight/aspeak/internal/handler"
	"github.com/cassight/aspeak/internal/service/speech"
	"github.com/cassight/aspeak/internal/store/audiocache"
)

func main() {
	flag.Parse()
	defer glog.Flush()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		glog.Warningf("failed to load .env file: %v", err)
		glog.Info("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		glog.Exitf("failed to load configuration: %v", err)
	}

	opts := []speech.Option{speech.WithDefaults(cfg.Text)}

	if cfg.Cache.Enabled() {
		cache, err := audiocache.Open(cfg.Cache.Path)
		if err != nil {
			glog.Exitf("failed to open audio cache: %v", err)
		}
		defer cache.Close()

		opts = append(opts, speech.WithCache(cache))
		glog.Infof("audio cache enabled at %s", cfg.Cache.Path)
	} else {
		glog.Info("ASPEAK_CACHE_PATH 未配置，跳过音频缓存")
	}

	if cfg.Speech.Key == "" && cfg.Speech.Token == "" {
		glog.Warning("ASPEAK_KEY/ASPEAK_TOKEN 未配置，将以匿名方式连接合成服务")
	}

	speechService := speech.NewService(&cfg.Speech, opts...)
	defer speechService.Cleanup()
	glog.Infof("speech service initialized, endpoint=%s format=%s", speech.ResolveEndpoint(&cfg.Speech), cfg.Speech.AudioFormat)

	router := handler.NewRouter(speechService)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	glog.Infof("aspeak api listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		glog.Errorf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
