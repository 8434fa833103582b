package vkaudio

import (
	"encoding/json"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"audiogate-backend/lib/hashutil"
)

// sessionStore persists the cookie jar for one account between process
// restarts. the file name derives from a stable hash of the login, so
// every engine instance for the same account shares one session file.
//
// concurrent re-logins for one account may overwrite each other's file.
// this race is accepted: the loser simply re-authenticates on demand.
type sessionStore struct {
	dir  string
	hash hashutil.Func
}

func newSessionStore(dir string, hash hashutil.Func) (*sessionStore, error) {
	err := os.MkdirAll(dir, 0700)
	if err != nil {
		return nil, err
	}
	return &sessionStore{dir: dir, hash: hash}, nil
}

func (s *sessionStore) fileFor(login string) string {
	return filepath.Join(s.dir, s.hash(login)+".json")
}

// Load restores persisted cookies into jar. returns false if no
// session has been persisted for this login yet.
func (s *sessionStore) Load(login string, baseUrl *url.URL, jar http.CookieJar) (bool, error) {
	raw, err := os.ReadFile(s.fileFor(login))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	var cookies []*http.Cookie
	err = json.Unmarshal(raw, &cookies)
	if err != nil {
		// a corrupt session file is treated the same as a missing one
		return false, nil
	}
	jar.SetCookies(baseUrl, cookies)
	return true, nil
}

func (s *sessionStore) Save(login string, baseUrl *url.URL, jar http.CookieJar) error {
	raw, err := json.Marshal(jar.Cookies(baseUrl))
	if err != nil {
		return err
	}
	return os.WriteFile(s.fileFor(login), raw, 0600)
}
