package vkaudio

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"audiogate-backend/lib/accountstore"
	"audiogate-backend/lib/blobstore"
	"audiogate-backend/lib/hashutil"
	"audiogate-backend/lib/kvcache"
)

// the login is a phone number: "+1" prefix, "67" suffix, so the
// expected challenge answer is the middle digits "55512345".
const (
	testLogin         = "+15551234567"
	testPassword      = "hunter2"
	testChallengeCode = "55512345"
)

type fakeTrack struct {
	name     string
	artist   string
	title    string
	duration int
	payload  []byte
}

// fakeSite emulates the mobile shell of the target site: a login form,
// an optional phone-digit challenge, a search page that renders the
// logged-out marker when the session cookie is missing or revoked, and
// media files under /media/.
type fakeSite struct {
	server *httptest.Server

	mu       sync.Mutex
	sessions map[string]bool // cookie value -> passed the challenge
	tracks   []fakeTrack

	challengeOnLogin bool
	brokenLoginPage  bool
	badChallengePage bool
	rejectLogins     bool
	stickyChallenge  bool

	loginPosts     int
	searchRequests int
	mediaGets      int
	mediaHeads     int
	challengeCodes []string
}

func newFakeSite(t *testing.T) *fakeSite {
	t.Helper()
	f := &fakeSite{
		sessions: map[string]bool{},
		tracks: []fakeTrack{
			{"a", "Imagine Dragons", "Believer", 204, []byte(strings.Repeat("ID3 believer ", 64))},
			{"b", "Imagine Dragons", "Thunder", 187, []byte(strings.Repeat("ID3 thunder ", 64))},
			{"c", "Arctic Monkeys", "505", 253, []byte(strings.Repeat("ID3 505 ", 64))},
		},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /login", f.handleLoginPage)
	mux.HandleFunc("POST /login", f.handleLoginSubmit)
	mux.HandleFunc("POST /challenge", f.handleChallenge)
	mux.HandleFunc("GET /audio", f.handleSearch)
	mux.HandleFunc("/media/", f.handleMedia)
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeSite) mediaUrl(name string) string {
	return f.server.URL + "/media/" + name + ".mp3"
}

func (f *fakeSite) track(name string) fakeTrack {
	for _, tr := range f.tracks {
		if tr.name == name {
			return tr
		}
	}
	panic("unknown track " + name)
}

func (f *fakeSite) revokeSessions() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions = map[string]bool{}
}

// requireConfirmation flips every live session back to unconfirmed, so
// the next authenticated page load renders the challenge instead.
func (f *fakeSite) requireConfirmation() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for sid := range f.sessions {
		f.sessions[sid] = false
	}
}

// makeChallengeSticky keeps the challenge page coming back no matter
// what code is submitted.
func (f *fakeSite) makeChallengeSticky() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stickyChallenge = true
}

func (f *fakeSite) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if f.brokenLoginPage {
		fmt.Fprint(w, `<html><body><div class="maintenance">be right back</div></body></html>`)
		return
	}
	fmt.Fprint(w, `<html><body>
<form method="post" action="/login?act=submit">
  <input type="text" name="email">
  <input type="password" name="pass">
</form>
</body></html>`)
}

func (f *fakeSite) handleLoginSubmit(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loginPosts++

	if f.rejectLogins ||
		r.FormValue("email") != testLogin ||
		r.FormValue("pass") != testPassword {
		fmt.Fprint(w, loggedOutPage)
		return
	}

	buf := make([]byte, 16)
	rand.Read(buf)
	sid := hex.EncodeToString(buf)
	http.SetCookie(w, &http.Cookie{Name: "remixsid", Value: sid, Path: "/"})

	if f.challengeOnLogin {
		f.sessions[sid] = false
		fmt.Fprint(w, f.challengePage())
		return
	}
	f.sessions[sid] = true
	fmt.Fprint(w, `<html><body><div id="feed">welcome back</div></body></html>`)
}

func (f *fakeSite) challengePage() string {
	if f.badChallengePage {
		return `<html><body>
<form class="phone_validation" action="/challenge" method="post">
  <span class="field_prefix">+1</span>
  <input type="text" name="code">
</form>
</body></html>`
	}
	return `<html><body>
<form class="phone_validation" action="/challenge" method="post">
  <span class="field_prefix">+1</span>
  <input type="text" name="code">
  <span class="field_prefix">67</span>
</form>
</body></html>`
}

func (f *fakeSite) handleChallenge(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	code := r.FormValue("code")
	f.challengeCodes = append(f.challengeCodes, code)

	sid := f.sessionId(r)
	if f.stickyChallenge {
		fmt.Fprint(w, f.challengePage())
		return
	}
	if sid != "" && code == testChallengeCode {
		f.sessions[sid] = true
		fmt.Fprint(w, `<html><body><div id="feed">confirmed</div></body></html>`)
		return
	}
	fmt.Fprint(w, f.challengePage())
}

// callers must hold f.mu
func (f *fakeSite) sessionId(r *http.Request) string {
	cookie, err := r.Cookie("remixsid")
	if err != nil {
		return ""
	}
	if _, ok := f.sessions[cookie.Value]; !ok {
		return ""
	}
	return cookie.Value
}

func (f *fakeSite) handleSearch(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searchRequests++

	sid := f.sessionId(r)
	if sid == "" {
		fmt.Fprint(w, loggedOutPage)
		return
	}
	if !f.sessions[sid] {
		fmt.Fprint(w, f.challengePage())
		return
	}

	var b strings.Builder
	b.WriteString(`<html><body><div id="content">`)
	for _, tr := range f.tracks {
		fmt.Fprintf(&b, `
<div class="audio_item">
  <input type="hidden" value="%s">
  <span class="ai_artist">%s</span> &ndash; <span class="ai_title">%s</span>
  <div class="ai_dur" data-dur="%d">%d:%02d</div>
</div>`,
			f.server.URL+"/media/"+tr.name+".mp3",
			tr.artist, tr.title, tr.duration,
			tr.duration/60, tr.duration%60,
		)
	}
	b.WriteString(`</div></body></html>`)
	fmt.Fprint(w, b.String())
}

func (f *fakeSite) handleMedia(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	name := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/media/"), ".mp3")
	var payload []byte
	for _, tr := range f.tracks {
		if tr.name == name {
			payload = tr.payload
		}
	}
	if r.Method == http.MethodHead {
		f.mediaHeads++
	} else {
		f.mediaGets++
	}
	f.mu.Unlock()

	if payload == nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
	if r.Method == http.MethodHead {
		return
	}
	w.Write(payload)
}

const loggedOutPage = `<html><body>
<form method="post" action="/login?act=submit">
  <input type="text" name="email">
  <input type="password" name="pass">
</form>
</body></html>`

func newTestEngine(t *testing.T, site *fakeSite, adjust ...func(*Options)) *Engine {
	t.Helper()

	hash, err := hashutil.New("md5")
	require.NoError(t, err)
	cache, err := kvcache.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })
	blobs, err := blobstore.New(t.TempDir())
	require.NoError(t, err)

	opts := Options{
		BaseUrl:   site.server.URL,
		Account:   accountstore.Account{Login: testLogin, Password: testPassword},
		CookieDir: t.TempDir(),
		Cache:     cache,
		Blobs:     blobs,
		Hash:      hash,
		ResultTTL: time.Hour,
	}
	for _, fn := range adjust {
		fn(&opts)
	}

	engine, err := NewEngine(opts)
	require.NoError(t, err)
	return engine
}
