package vkaudio

import (
	"bytes"
	"context"
	"html"
	"log/slog"
	"regexp"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/codes"
)

const loginPath = "/login"

var loginFormRegex = regexp.MustCompile(`<form[^>]*\baction="([^"]+)"`)
var nonDigits = regexp.MustCompile(`[^0-9]`)

// the mobile shell renders a password field on every page that lost its
// session, so its presence is the logged-out marker.
func isLoggedOut(doc *goquery.Document) bool {
	return doc.Find("input[name=pass]").Length() > 0
}

func isChallenge(doc *goquery.Document) bool {
	return doc.Find("form.phone_validation").Length() > 0
}

func (e *Engine) login(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "login")
	defer span.End()

	res, err := e.http.R().
		SetContext(ctx).
		Get(loginPath)
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch login page")
		return err
	}

	groups := loginFormRegex.FindStringSubmatch(res.String())
	if len(groups) < 2 {
		span.SetStatus(codes.Error, "login form not found")
		return ErrFormNotFound
	}
	action := html.UnescapeString(groups[1])

	res, err = e.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"email": e.account.Login,
			"pass":  e.account.Password,
		}).
		Post(action)
	if err != nil {
		span.SetStatus(codes.Error, "failed to submit login form")
		return err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		span.SetStatus(codes.Error, "failed to parse post-login page")
		return err
	}
	if isChallenge(doc) {
		err = e.passChallenge(ctx, doc)
		if err != nil {
			return err
		}
	}

	e.hasSession.Store(true)
	err = e.sessions.Save(e.account.Login, e.baseUrl, e.jar)
	if err != nil {
		// a session that only lives for this process is still a session
		slog.WarnContext(ctx, "failed to persist session cookies", "err", err)
	}
	return nil
}

// passChallenge answers the phone-digit confirmation the site sometimes
// interposes after login. the page shows the country prefix and the
// trailing digits of the account's phone number; the expected answer is
// the digits between them, which we can slice straight out of the login
// since logins are phone numbers. any other challenge layout fails with
// ErrUnsupportedChallenge and is never retried.
func (e *Engine) passChallenge(ctx context.Context, doc *goquery.Document) error {
	ctx, span := tracer.Start(ctx, "passChallenge")
	defer span.End()

	form := doc.Find("form.phone_validation").First()
	prefixes := form.Find("span.field_prefix")
	if prefixes.Length() < 2 {
		span.SetStatus(codes.Error, "challenge page has an unknown layout")
		return ErrUnsupportedChallenge
	}

	left := nonDigits.ReplaceAllString(prefixes.Eq(0).Text(), "")
	right := nonDigits.ReplaceAllString(prefixes.Eq(1).Text(), "")

	login := nonDigits.ReplaceAllString(e.account.Login, "")
	if len(login) <= len(left)+len(right) {
		span.SetStatus(codes.Error, "login does not fit the advertised phone shape")
		return ErrUnsupportedChallenge
	}
	code := login[len(left) : len(login)-len(right)]

	action := form.AttrOr("action", "")
	if action == "" {
		span.SetStatus(codes.Error, "challenge form has no action")
		return ErrUnsupportedChallenge
	}

	_, err := e.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{"code": code}).
		Post(action)
	if err != nil {
		span.SetStatus(codes.Error, "failed to submit challenge code")
		return err
	}
	return nil
}
