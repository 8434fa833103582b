package commands

import (
	"context"
	"time"

	"audiogate-backend/lib/accountstore"
	"audiogate-backend/lib/accountstore/db"
	"audiogate-backend/lib/blobstore"
	"audiogate-backend/lib/configutil"
	"audiogate-backend/lib/configutil/sqldb"
	"audiogate-backend/lib/hashutil"
	"audiogate-backend/lib/kvcache"
	"audiogate-backend/lib/restyutil"
	"audiogate-backend/lib/scrapers/vkaudio"
	"audiogate-backend/lib/serviceutil"
)

// mirrors the server's config.json5 so both can run off one file
type Config struct {
	BaseUrl  string       `json:"base_url"`
	Database sqldb.Struct `json:"database"`

	CacheDir  string `json:"cache_dir"`
	MediaDir  string `json:"media_dir"`
	CookieDir string `json:"cookie_dir"`

	Hash             string `json:"hash"`
	ResultTTLMinutes int    `json:"result_ttl_minutes"`
}

func readConfig() Config {
	cfg, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}
	return cfg
}

func openAccounts(cfg Config) accountstore.Store {
	database, err := cfg.Database.OpenDB(db.Schema)
	if err != nil {
		serviceutil.Fatal("failed to open account database", err)
	}
	return accountstore.NewStore(database)
}

func createEngine(ctx context.Context, cfg Config) *vkaudio.Engine {
	accounts := openAccounts(cfg)

	account, err := accounts.Random(ctx)
	if err != nil {
		serviceutil.Fatal("failed to pick an account", err)
	}

	cache, err := kvcache.Open(cfg.CacheDir)
	if err != nil {
		serviceutil.Fatal("failed to open cache", err)
	}
	blobs, err := blobstore.New(cfg.MediaDir)
	if err != nil {
		serviceutil.Fatal("failed to open media directory", err)
	}
	hash, err := hashutil.New(cfg.Hash)
	if err != nil {
		serviceutil.Fatal("failed to initialize hash", err)
	}

	resultTTL := time.Duration(cfg.ResultTTLMinutes) * time.Minute
	if resultTTL <= 0 {
		resultTTL = time.Hour
	}

	vkaudio.SetRestyInstrumentOutput(restyutil.NewFilesystemOutput(".dev/resty/vkaudio"))

	engine, err := vkaudio.NewEngine(vkaudio.Options{
		BaseUrl:   cfg.BaseUrl,
		Account:   account,
		CookieDir: cfg.CookieDir,
		Cache:     cache,
		Blobs:     blobs,
		Hash:      hash,
		ResultTTL: resultTTL,
	})
	if err != nil {
		serviceutil.Fatal("failed to initialize engine", err)
	}
	return engine
}
