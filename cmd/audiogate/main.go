package main

import (
	"flag"
	"net/http"

	"audiogate-backend/lib/configutil"
	"audiogate-backend/lib/configutil/sqldb"
	"audiogate-backend/lib/serviceutil"
	"audiogate-backend/services/audio"
)

type AccountConfig struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type Config struct {
	Port     int          `json:"port"`
	BaseUrl  string       `json:"base_url"`
	Database sqldb.Struct `json:"database"`
	// accounts to upsert into the pool on startup
	Accounts []AccountConfig `json:"accounts"`

	CacheDir  string `json:"cache_dir"`
	MediaDir  string `json:"media_dir"`
	CookieDir string `json:"cookie_dir"`

	// hash algorithm for cache keys, track ids and blob names.
	// defaults to md5.
	Hash string `json:"hash"`
	// how many minutes a search result set stays valid, defaults to 60
	ResultTTLMinutes int `json:"result_ttl_minutes"`
}

func main() {
	verbose := flag.Bool("v", false, "Enable verbose logging/instrumentation.")
	flag.Parse()

	ctx := serviceutil.SignalContext()

	InitTelemetry(ctx, *verbose)

	cfg, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil {
		serviceutil.Fatal("read config", err)
	}

	engine, blobDir, err := InitEngine(ctx, cfg)
	if err != nil {
		serviceutil.Fatal("init engine", err)
	}

	mux := http.NewServeMux()
	service := audio.NewService(engine, audio.Options{})
	service.Register(mux)
	mux.Handle(
		"GET /media/",
		http.StripPrefix("/media/", http.FileServer(http.Dir(blobDir))),
	)

	port := cfg.Port
	if port == 0 {
		port = 8000
	}
	go serviceutil.StartHttpServer(port, mux)
	<-ctx.Done()
}
