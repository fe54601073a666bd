package netease

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/lthero-big/163MusicLyricsDownloader/internal/catalog"
	lerrors "github.com/lthero-big/163MusicLyricsDownloader/internal/errors"
)

const DefaultBaseURL = "https://music.163.com"

// requestTimeout bounds a single attempt, not the whole retry sequence.
const requestTimeout = 10 * time.Second

// Headers is the static header set sent with every request.
type Headers struct {
	UserAgent string
	Referer   string
	Cookie    string
}

// DefaultHeaders mimics the desktop web client. Replace Cookie with a logged-in
// session cookie to reach region- or account-restricted lyrics.
func DefaultHeaders() Headers {
	return Headers{
		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36",
		Referer:   "https://music.163.com/",
		Cookie:    "os=pc; appver=2.9.7;",
	}
}

// Logger receives retry diagnostics.
type Logger interface {
	Debugf(format string, args ...any)
}

// Options configures a Client.
type Options struct {
	BaseURL   string
	Headers   Headers
	Retries   int           // extra attempts after the first
	RetryWait time.Duration // fixed pause between attempts
	Logger    Logger
}

// Client calls the NetEase Cloud Music web API.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Retries    int
	RetryWait  time.Duration
	Logger     Logger
}

var _ catalog.Catalog = (*Client)(nil)

// NewClient returns a client that sends opts.Headers on every request.
func NewClient(opts Options) *Client {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	return &Client{
		BaseURL: base,
		HTTPClient: &http.Client{
			Timeout:   requestTimeout,
			Transport: &headerTransport{headers: opts.Headers, rt: http.DefaultTransport},
		},
		Retries:   opts.Retries,
		RetryWait: opts.RetryWait,
		Logger:    opts.Logger,
	}
}

// headerTransport stamps the static header set onto outgoing requests.
type headerTransport struct {
	headers Headers
	rt      http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	if t.headers.UserAgent != "" {
		req.Header.Set("User-Agent", t.headers.UserAgent)
	}
	if t.headers.Referer != "" {
		req.Header.Set("Referer", t.headers.Referer)
	}
	if t.headers.Cookie != "" {
		req.Header.Set("Cookie", t.headers.Cookie)
	}
	return t.rt.RoundTrip(req)
}

// errEmpty marks a well-formed response that lacked the expected payload.
var errEmpty = errors.New("empty response")

func (c *Client) attempts() int {
	return max(1, c.Retries+1)
}

// getJSON fetches rawURL and decodes it into a fresh T, retrying transport
// errors, non-200 statuses, malformed JSON and anything check rejects. It
// returns a *errors.FetchError once every attempt has failed.
func getJSON[T any](ctx context.Context, c *Client, op, id, rawURL string, check func(*T) error) (T, error) {
	var zero T
	n := c.attempts()
	var lastErr error
	for attempt := 1; attempt <= n; attempt++ {
		out := new(T)
		err := c.fetch(ctx, rawURL, out)
		if err == nil && check != nil {
			err = check(out)
		}
		if err == nil {
			return *out, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return zero, &lerrors.FetchError{Op: op, SongID: id, Attempts: attempt, Cause: ctx.Err()}
		}
		if c.Logger != nil {
			c.Logger.Debugf("%s %s: attempt %d/%d failed: %v", op, id, attempt, n, err)
		}
		if attempt < n {
			if err := sleep(ctx, c.RetryWait); err != nil {
				return zero, &lerrors.FetchError{Op: op, SongID: id, Attempts: attempt, Cause: err}
			}
		}
	}
	return zero, &lerrors.FetchError{Op: op, SongID: id, Attempts: n, Cause: lastErr}
}

func (c *Client) fetch(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("netease API: %s", resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Detail fetches a song's name and " & "-joined artists. A response without
// any song is retried like a transport failure.
func (c *Client) Detail(ctx context.Context, id string) (catalog.Detail, error) {
	u := fmt.Sprintf("%s/api/song/detail/?ids=[%s]", c.BaseURL, id)
	resp, err := getJSON(ctx, c, "detail", id, u, func(r *detailResponse) error {
		if len(r.Songs) == 0 {
			return errEmpty
		}
		return nil
	})
	if err != nil {
		return catalog.Detail{}, err
	}
	s := resp.Songs[0]
	return catalog.Detail{Name: s.Name, Artists: joinArtists(s.Artists)}, nil
}

// Lyrics fetches the original and translated LRC texts, trimmed.
func (c *Client) Lyrics(ctx context.Context, id string) (catalog.Lyrics, error) {
	u := fmt.Sprintf("%s/api/song/lyric?id=%s&lv=1&kv=1&tv=1", c.BaseURL, id)
	resp, err := getJSON[lyricResponse](ctx, c, "lyric", id, u, nil)
	if err != nil {
		return catalog.Lyrics{}, err
	}
	return catalog.Lyrics{
		LRC:    strings.TrimSpace(resp.LRC.text()),
		TLyric: strings.TrimSpace(resp.TLyric.text()),
	}, nil
}

// Search runs a song keyword search for "name artist". An empty result set is
// returned as (nil, nil) without further attempts.
func (c *Client) Search(ctx context.Context, name, artist string, limit int) ([]catalog.Candidate, error) {
	q := url.Values{}
	q.Set("s", strings.TrimSpace(name+" "+artist))
	q.Set("type", "1")
	q.Set("offset", "0")
	q.Set("limit", fmt.Sprint(limit))
	u := c.BaseURL + "/api/search/pc?" + q.Encode()

	resp, err := getJSON[searchResponse](ctx, c, "search", "", u, nil)
	if err != nil {
		return nil, err
	}
	if resp.Result == nil || len(resp.Result.Songs) == 0 {
		return nil, nil
	}
	out := make([]catalog.Candidate, 0, len(resp.Result.Songs))
	for _, s := range resp.Result.Songs {
		if s == nil {
			continue
		}
		out = append(out, catalog.Candidate{
			ID:      strings.TrimSpace(s.ID.String()),
			Name:    s.Name,
			Artists: artistNames(s.Artists),
		})
	}
	return out, nil
}
