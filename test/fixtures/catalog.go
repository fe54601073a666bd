package fixtures

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// Song is a track served by the stub catalog.
type Song struct {
	ID      string
	Name    string
	Artists []string
	LRC     string
	TLyric  string
}

// StubCatalog is an httptest server speaking the subset of the NetEase web API
// the client uses: song detail, lyrics and PC search.
type StubCatalog struct {
	Server *httptest.Server

	mu    sync.Mutex
	songs []Song
	hits  map[string]int
	fail  map[string]int // path -> remaining 500 responses
}

// NewStubCatalog starts a stub serving songs; it is closed when the test ends.
// Search returns, in the given order, every song whose name occurs in the keyword.
func NewStubCatalog(t *testing.T, songs ...Song) *StubCatalog {
	t.Helper()
	s := &StubCatalog{songs: songs, hits: map[string]int{}, fail: map[string]int{}}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/song/detail/", s.detail)
	mux.HandleFunc("/api/song/lyric", s.lyric)
	mux.HandleFunc("/api/search/pc", s.search)
	s.Server = httptest.NewServer(s.count(mux))
	t.Cleanup(s.Server.Close)
	return s
}

// URL is the base URL to configure the client with.
func (s *StubCatalog) URL() string { return s.Server.URL }

// Hits returns how many requests reached path.
func (s *StubCatalog) Hits(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

// FailNext makes the next n requests to path answer 500.
func (s *StubCatalog) FailNext(path string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail[path] = n
}

func (s *StubCatalog) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.hits[r.URL.Path]++
		failing := s.fail[r.URL.Path] > 0
		if failing {
			s.fail[r.URL.Path]--
		}
		s.mu.Unlock()
		if failing {
			http.Error(w, "stub failure", http.StatusInternalServerError)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *StubCatalog) find(id string) (Song, bool) {
	for _, song := range s.songs {
		if song.ID == id {
			return song, true
		}
	}
	return Song{}, false
}

type jsonArtist struct {
	Name string `json:"name"`
}

type jsonSong struct {
	ID      json.Number  `json:"id"`
	Name    string       `json:"name"`
	Artists []jsonArtist `json:"artists"`
}

func toJSON(song Song) jsonSong {
	out := jsonSong{ID: json.Number(song.ID), Name: song.Name}
	for _, a := range song.Artists {
		out.Artists = append(out.Artists, jsonArtist{Name: a})
	}
	return out
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (s *StubCatalog) detail(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(r.URL.Query().Get("ids"), "[]")
	songs := []jsonSong{}
	if song, ok := s.find(id); ok {
		songs = append(songs, toJSON(song))
	}
	writeJSON(w, map[string]any{"songs": songs, "code": 200})
}

func (s *StubCatalog) lyric(w http.ResponseWriter, r *http.Request) {
	song, ok := s.find(r.URL.Query().Get("id"))
	if !ok || (song.LRC == "" && song.TLyric == "") {
		writeJSON(w, map[string]any{"nolyric": true, "code": 200})
		return
	}
	body := map[string]any{"code": 200, "lrc": map[string]string{"lyric": song.LRC}}
	if song.TLyric != "" {
		body["tlyric"] = map[string]string{"lyric": song.TLyric}
	}
	writeJSON(w, body)
}

func (s *StubCatalog) search(w http.ResponseWriter, r *http.Request) {
	keyword := strings.ToLower(r.URL.Query().Get("s"))
	var songs []jsonSong
	for _, song := range s.songs {
		if strings.Contains(keyword, strings.ToLower(song.Name)) {
			songs = append(songs, toJSON(song))
		}
	}
	if len(songs) == 0 {
		writeJSON(w, map[string]any{"result": map[string]any{"songCount": 0}, "code": 200})
		return
	}
	writeJSON(w, map[string]any{"result": map[string]any{"songs": songs, "songCount": len(songs)}, "code": 200})
}
