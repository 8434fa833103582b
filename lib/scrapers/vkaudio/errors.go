package vkaudio

import "errors"

var (
	// ErrNotFound covers expired or never-created result sets and
	// unknown item ids. item resolution is cache-bound: once a result
	// set expires, lookups fail instead of silently re-scraping.
	ErrNotFound = errors.New("item not found")

	// ErrAuthenticationExhausted is returned when a logical search call
	// would need a fourth re-login.
	ErrAuthenticationExhausted = errors.New("authentication attempts exhausted")

	// ErrUnsupportedChallenge means the site presented an
	// anti-automation flow other than the phone-digit confirmation.
	// fatal, never retried.
	ErrUnsupportedChallenge = errors.New("unsupported login challenge")

	// ErrFormNotFound means the login page markup no longer contains a
	// recognizable form. it signals the target site changed.
	ErrFormNotFound = errors.New("login form not found")

	ErrDownloadFailed = errors.New("media download failed")

	// ErrInvalidMedia is returned when the site substitutes an HTML
	// error page for the media payload at the same URL.
	ErrInvalidMedia = errors.New("downloaded payload is not audio")
)
