package vkaudio

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"audiogate-backend/lib/kvcache"
)

const searchPath = "/audio"
const resultKeyPrefix = "search:"

// a logical search call may trigger at most this many (re)logins.
// needing one more is ErrAuthenticationExhausted.
const maxLoginAttempts = 3

var queryWhitespace = strings.NewReplacer("\t", " ", "\n", " ", "\r", " ")

func normalizeQuery(query string) string {
	query = queryWhitespace.Replace(query)
	fields := strings.Fields(query)
	return strings.ToLower(strings.Join(fields, " "))
}

// CacheKey derives the result set key from the query and page alone, so
// it is reproducible across process restarts.
func (e *Engine) CacheKey(query string, page int) string {
	return e.hash(normalizeQuery(query) + "|" + strconv.Itoa(page))
}

// Search returns the cache key and the ordered items for one results
// page. a cached result set is returned without touching the network;
// otherwise the engine authenticates as needed (bounded), scrapes the
// page, and stores the parsed set under the key with the configured ttl.
func (e *Engine) Search(ctx context.Context, query string, page int) (string, []Item, error) {
	ctx, span := tracer.Start(ctx, "Search")
	defer span.End()

	key := e.CacheKey(query, page)
	span.SetAttributes(
		attribute.String("query", query),
		attribute.Int("page", page),
		attribute.String("cache_key", key),
	)

	cached, err := e.cache.Get(ctx, resultKeyPrefix+key)
	if err == nil {
		var items []Item
		err = json.Unmarshal(cached, &items)
		if err == nil {
			span.AddEvent("result cache hit")
			return key, items, nil
		}
		slog.WarnContext(ctx, "discarding corrupt cached result set", "cache_key", key, "err", err)
	} else if err != kvcache.ErrNotFound {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read result cache")
		return "", nil, err
	}

	loginAttempts := 0
	if !e.hasSession.Load() {
		loginAttempts++
		err = e.login(ctx)
		if err != nil {
			return "", nil, err
		}
	}

	for {
		res, err := e.http.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"q":    normalizeQuery(query),
				"page": strconv.Itoa(page),
			}).
			Get(searchPath)
		if err != nil {
			span.SetStatus(codes.Error, "search request failed")
			return "", nil, err
		}

		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
		if err != nil {
			span.SetStatus(codes.Error, "failed to parse search page")
			return "", nil, err
		}

		if isChallenge(doc) {
			// the challenged response cannot be reused; answer the
			// challenge, then issue a fresh search request
			if loginAttempts >= maxLoginAttempts {
				span.SetStatus(codes.Error, ErrAuthenticationExhausted.Error())
				return "", nil, ErrAuthenticationExhausted
			}
			loginAttempts++
			err = e.passChallenge(ctx, doc)
			if err != nil {
				return "", nil, err
			}
			continue
		}

		if isLoggedOut(doc) {
			if loginAttempts >= maxLoginAttempts {
				span.SetStatus(codes.Error, ErrAuthenticationExhausted.Error())
				return "", nil, ErrAuthenticationExhausted
			}
			loginAttempts++
			slog.InfoContext(
				ctx, "session lost, logging in again",
				"login", e.account.Login,
				"attempt", loginAttempts,
			)
			err = e.login(ctx)
			if err != nil {
				return "", nil, err
			}
			continue
		}

		items := e.parseItems(doc)
		span.SetAttributes(attribute.Int("item_count", len(items)))

		data, err := json.Marshal(items)
		if err != nil {
			return "", nil, err
		}
		err = e.cache.Put(ctx, resultKeyPrefix+key, data, e.resultTTL)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to store result set")
			return "", nil, err
		}

		return key, items, nil
	}
}
