package main

import (
	"context"
	"log/slog"
	"time"

	"audiogate-backend/lib/accountstore"
	"audiogate-backend/lib/accountstore/db"
	"audiogate-backend/lib/blobstore"
	"audiogate-backend/lib/hashutil"
	"audiogate-backend/lib/kvcache"
	"audiogate-backend/lib/scrapers/vkaudio"
)

func InitEngine(ctx context.Context, cfg Config) (*vkaudio.Engine, string, error) {
	database, err := cfg.Database.OpenDB(db.Schema)
	if err != nil {
		return nil, "", err
	}

	accounts := accountstore.NewStore(database)
	if len(cfg.Accounts) > 0 {
		seed := make([]accountstore.Account, len(cfg.Accounts))
		for i, a := range cfg.Accounts {
			seed[i] = accountstore.Account{Login: a.Login, Password: a.Password}
		}
		err = accounts.Seed(ctx, seed)
		if err != nil {
			return nil, "", err
		}
	}
	account, err := accounts.Random(ctx)
	if err != nil {
		return nil, "", err
	}
	slog.InfoContext(ctx, "picked scraping account", "login", account.Login)

	cache, err := kvcache.Open(cfg.CacheDir)
	if err != nil {
		return nil, "", err
	}
	blobs, err := blobstore.New(cfg.MediaDir)
	if err != nil {
		return nil, "", err
	}
	hash, err := hashutil.New(cfg.Hash)
	if err != nil {
		return nil, "", err
	}

	resultTTL := time.Duration(cfg.ResultTTLMinutes) * time.Minute
	if resultTTL <= 0 {
		resultTTL = time.Hour
	}

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
		return nil, "", err
	}
	return engine, cfg.MediaDir, nil
}
