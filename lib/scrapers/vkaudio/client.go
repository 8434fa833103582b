package vkaudio

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync/atomic"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"

	"audiogate-backend/lib/accountstore"
	"audiogate-backend/lib/blobstore"
	"audiogate-backend/lib/hashutil"
	"audiogate-backend/lib/kvcache"
	"audiogate-backend/lib/restyutil"
	"audiogate-backend/lib/telemetry"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

// Engine is a session-authenticated scraping client for the audio
// section of the target site. one engine serves one account; the
// account is fixed for the engine's lifetime.
type Engine struct {
	baseUrl *url.URL
	http    *resty.Client
	media   *resty.Client
	jar     http.CookieJar

	account  accountstore.Account
	sessions *sessionStore
	// true once a persisted session was loaded or a login completed.
	// one engine serves concurrent requests, so this must be atomic.
	hasSession atomic.Bool

	cache     *kvcache.Cache
	blobs     *blobstore.Store
	hash      hashutil.Func
	resultTTL time.Duration
}

type Options struct {
	BaseUrl   string
	Account   accountstore.Account
	CookieDir string

	Cache *kvcache.Cache
	Blobs *blobstore.Store
	Hash  hashutil.Func

	// how long a cached result set stays authoritative
	ResultTTL time.Duration
	// bound on a single media download, defaults to 5 minutes
	DownloadTimeout time.Duration
}

func NewEngine(opts Options) (*Engine, error) {
	baseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, err
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	client.SetHeader("user-agent", userAgent)
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(baseUrl.Hostname()))
	client.SetTimeout(time.Second * 30)

	telemetry.InstrumentResty(client, "scrapers/vkaudio/http")
	restyutil.InstrumentClient(client, tracer, restyInstrumentOutput)

	downloadTimeout := opts.DownloadTimeout
	if downloadTimeout <= 0 {
		downloadTimeout = time.Minute * 5
	}

	// media files live on separate storage hosts and can be large, so
	// they get their own client without the redirect restriction and
	// with a wider (but still bounded) timeout.
	media := resty.New()
	media.SetCookieJar(jar)
	media.SetHeader("user-agent", userAgent)
	media.SetTimeout(downloadTimeout)
	telemetry.InstrumentResty(media, "scrapers/vkaudio/media")

	sessions, err := newSessionStore(opts.CookieDir, opts.Hash)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		baseUrl:   baseUrl,
		http:      client,
		media:     media,
		jar:       jar,
		account:   opts.Account,
		sessions:  sessions,
		cache:     opts.Cache,
		blobs:     opts.Blobs,
		hash:      opts.Hash,
		resultTTL: opts.ResultTTL,
	}

	hasSession, err := sessions.Load(opts.Account.Login, baseUrl, jar)
	if err != nil {
		return nil, err
	}
	e.hasSession.Store(hasSession)
	return e, nil
}

// Account returns the identity this engine authenticates as.
func (e *Engine) Account() accountstore.Account {
	return e.account
}
