package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"sync"
)

// SessionFile persists the cookies of an authenticated dashboard session
// to a JSON file, so a command-line run can reuse the previous session
// instead of logging in again.
type SessionFile struct {
	filePath string
	mutex    sync.Mutex
}

func NewSessionFile(filePath string) *SessionFile {
	return &SessionFile{filePath: filePath}
}

type sessionCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Load restores previously saved cookies into jar for origin. A missing
// file is not an error; the caller simply has no session yet.
func (s *SessionFile) Load(jar http.CookieJar, origin *url.URL) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if _, err := os.Stat(s.filePath); os.IsNotExist(err) {
		return nil
	}
	file, err := os.Open(s.filePath)
	if err != nil {
		return fmt.Errorf("error reading session file: %w", err)
	}
	defer file.Close()
	var saved []sessionCookie
	if err := json.NewDecoder(file).Decode(&saved); err != nil {
		return fmt.Errorf("error unmarshaling session cookies: %w", err)
	}
	cookies := make([]*http.Cookie, len(saved))
	for i, c := range saved {
		cookies[i] = &http.Cookie{Name: c.Name, Value: c.Value}
	}
	jar.SetCookies(origin, cookies)
	return nil
}

// Save writes the cookies jar currently holds for origin.
func (s *SessionFile) Save(jar http.CookieJar, origin *url.URL) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	cookies := jar.Cookies(origin)
	saved := make([]sessionCookie, len(cookies))
	for i, c := range cookies {
		saved[i] = sessionCookie{Name: c.Name, Value: c.Value}
	}
	file, err := os.Create(s.filePath)
	if err != nil {
		return fmt.Errorf("error creating session file: %w", err)
	}
	defer file.Close()
	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(saved); err != nil {
		return fmt.Errorf("error marshaling session cookies: %w", err)
	}
	return nil
}
