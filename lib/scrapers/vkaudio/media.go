package vkaudio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"audiogate-backend/lib/kvcache"
)

const bytesKeyPrefix = "bytes:"

// the smallest payload we accept as genuine audio. the site sometimes
// swaps an HTML error page in for the media at the same URL, and those
// pages are tiny.
const minMediaBytes = 170

// Resolve looks an item up in a previously cached result set. once the
// set has expired this fails with ErrNotFound, it never re-scrapes.
func (e *Engine) Resolve(ctx context.Context, cacheKey, id string) (Item, error) {
	ctx, span := tracer.Start(ctx, "Resolve")
	defer span.End()
	span.SetAttributes(
		attribute.String("cache_key", cacheKey),
		attribute.String("id", id),
	)

	data, err := e.cache.Get(ctx, resultKeyPrefix+cacheKey)
	if err == kvcache.ErrNotFound {
		return Item{}, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read result cache")
		return Item{}, err
	}

	var items []Item
	err = json.Unmarshal(data, &items)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "corrupt cached result set")
		return Item{}, err
	}

	for _, item := range items {
		if item.Id == id {
			return item, nil
		}
	}
	return Item{}, ErrNotFound
}

func (e *Engine) blobName(item Item) string {
	return e.hash(item.Id) + ".mp3"
}

func looksLikeHtml(contents []byte) bool {
	lower := bytes.ToLower(contents)
	return bytes.Contains(lower, []byte("<html")) ||
		bytes.Contains(lower, []byte("<!doctype"))
}

// FetchOrServe returns the local path of the item's media file,
// downloading it first if this item has never been fetched. blobs are
// content-addressed by hash(item.Id), so repeated calls reuse the same
// file and never download twice. a failed or invalid download leaves no
// file behind.
func (e *Engine) FetchOrServe(ctx context.Context, item Item) (string, error) {
	ctx, span := tracer.Start(ctx, "FetchOrServe")
	defer span.End()
	span.SetAttributes(attribute.String("id", item.Id))

	name := e.blobName(item)
	if e.blobs.Exists(name) {
		span.AddEvent("blob already stored")
		return e.blobs.Path(name), nil
	}

	res, err := e.media.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(item.MediaUrl)
	if err != nil {
		span.SetStatus(codes.Error, "media request failed")
		return "", fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}
	body := res.RawBody()
	defer body.Close()

	if res.StatusCode() < 200 || res.StatusCode() >= 300 {
		span.SetStatus(codes.Error, "media request returned a bad status")
		return "", fmt.Errorf("%w: status %d", ErrDownloadFailed, res.StatusCode())
	}

	written, err := e.blobs.Write(name, body)
	if err != nil {
		span.SetStatus(codes.Error, "failed to store media blob")
		return "", fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}
	span.SetAttributes(attribute.Int64("bytes_written", written))

	if written < minMediaBytes {
		contents, err := e.blobs.ReadFile(name)
		if err == nil && looksLikeHtml(contents) {
			e.blobs.Delete(name)
			span.SetStatus(codes.Error, "site substituted an error page for the media")
			return "", ErrInvalidMedia
		}
	}

	return e.blobs.Path(name), nil
}

// ByteLength reports the media content length via a header-only
// request, memoized indefinitely per (cacheKey, id) since stored media
// is treated as immutable once observed.
func (e *Engine) ByteLength(ctx context.Context, cacheKey, id string) (int64, error) {
	ctx, span := tracer.Start(ctx, "ByteLength")
	defer span.End()

	item, err := e.Resolve(ctx, cacheKey, id)
	if err != nil {
		return 0, err
	}

	key := bytesKeyPrefix + cacheKey + ":" + id
	data, err := e.cache.Remember(ctx, key, 0, func(ctx context.Context) ([]byte, error) {
		res, err := e.media.R().
			SetContext(ctx).
			Head(item.MediaUrl)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDownloadFailed, err)
		}
		if res.StatusCode() < 200 || res.StatusCode() >= 300 {
			return nil, fmt.Errorf("%w: status %d", ErrDownloadFailed, res.StatusCode())
		}

		length := res.RawResponse.ContentLength
		if length < 0 {
			length, err = strconv.ParseInt(res.Header().Get("Content-Length"), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: no content length", ErrDownloadFailed)
			}
		}
		return strconv.AppendInt(nil, length, 10), nil
	})
	if err != nil {
		span.RecordError(err)
		return 0, err
	}

	return strconv.ParseInt(string(data), 10, 64)
}
