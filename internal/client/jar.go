package client

import (
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// persistentJar is a cookie jar that mirrors cookies set by one origin to a
// file, so the httpOnly refresh cookie survives between CLI invocations.
// Cookie values are stored opaquely; nothing here inspects them. Set-Cookie
// headers are captured on the way in because the inner jar does not expose
// path or expiry back out.
type persistentJar struct {
	mu     sync.Mutex
	inner  *cookiejar.Jar
	path   string
	origin *url.URL
	seen   map[string]storedCookie
}

type storedCookie struct {
	Name    string    `json:"name"`
	Value   string    `json:"value"`
	Path    string    `json:"path,omitempty"`
	Expires time.Time `json:"expires,omitempty"`
}

// newPersistentJar loads any previously saved cookies for origin from path.
// A missing or unreadable file starts an empty jar.
func newPersistentJar(path string, origin *url.URL) (*persistentJar, error) {
	inner, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	jar := &persistentJar{
		inner:  inner,
		path:   path,
		origin: origin,
		seen:   make(map[string]storedCookie),
	}
	jar.load()
	return jar, nil
}

func (j *persistentJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.inner.SetCookies(u, cookies)
	if u.Host != j.origin.Host {
		return
	}
	now := time.Now()
	for _, c := range cookies {
		expires := c.Expires
		if c.MaxAge > 0 {
			expires = now.Add(time.Duration(c.MaxAge) * time.Second)
		}
		if c.MaxAge < 0 || (!expires.IsZero() && expires.Before(now)) {
			delete(j.seen, c.Name)
			continue
		}
		j.seen[c.Name] = storedCookie{
			Name:    c.Name,
			Value:   c.Value,
			Path:    c.Path,
			Expires: expires,
		}
	}
	j.save()
}

func (j *persistentJar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.inner.Cookies(u)
}

// Clear drops all persisted cookies and removes the file.
func (j *persistentJar) Clear() {
	j.mu.Lock()
	defer j.mu.Unlock()
	for name, c := range j.seen {
		j.inner.SetCookies(j.urlForPath(c.Path), []*http.Cookie{{
			Name:   name,
			Value:  "",
			Path:   c.Path,
			MaxAge: -1,
		}})
		delete(j.seen, name)
	}
	_ = os.Remove(j.path)
}

func (j *persistentJar) load() {
	data, err := os.ReadFile(j.path)
	if err != nil {
		return
	}
	var stored []storedCookie
	if err := json.Unmarshal(data, &stored); err != nil {
		return
	}
	now := time.Now()
	for _, c := range stored {
		if !c.Expires.IsZero() && c.Expires.Before(now) {
			continue
		}
		j.seen[c.Name] = c
		j.inner.SetCookies(j.urlForPath(c.Path), []*http.Cookie{{
			Name:    c.Name,
			Value:   c.Value,
			Path:    c.Path,
			Expires: c.Expires,
		}})
	}
}

// urlForPath builds a request URL under the cookie's path so the inner jar
// files it where it will match later requests.
func (j *persistentJar) urlForPath(path string) *url.URL {
	u := *j.origin
	if path == "" {
		path = "/"
	}
	u.Path = path
	return &u
}

func (j *persistentJar) save() {
	stored := make([]storedCookie, 0, len(j.seen))
	for _, c := range j.seen {
		stored = append(stored, c)
	}
	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return
	}
	if err := os.MkdirAll(filepath.Dir(j.path), 0o755); err != nil {
		return
	}
	// Refresh-token material; keep it out of other users' reach.
	_ = os.WriteFile(j.path, data, 0o600)
}
