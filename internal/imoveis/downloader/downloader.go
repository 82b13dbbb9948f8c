package downloader

import (
	"context"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/farxc/imoveis_dashboard/internal/logger"
	"github.com/rotisserie/eris"
)

// DefaultUserAgent mimics a desktop browser; some export endpoints reject Go's default.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/58.0.3029.110 Safari/537.3"

// Snapshot is a fetched snapshot held in memory.
type Snapshot struct {
	// Name is the file path or the URL path, used for format detection.
	Name        string
	ContentType string
	Data        []byte
}

type Client struct {
	http      *http.Client
	userAgent string
	logger    *logger.Logger
}

func NewClient(timeout time.Duration, userAgent string, appLogger *logger.Logger) *Client {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	client := &http.Client{Timeout: timeout}
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= 10 {
			return eris.New("stopped after 10 redirects")
		}
		req.Header.Set("User-Agent", userAgent)
		return nil
	}

	return &Client{http: client, userAgent: userAgent, logger: appLogger}
}

// IsURL reports whether source should be fetched over HTTP.
func IsURL(source string) bool {
	u, err := url.Parse(source)
	if err != nil {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

var driveFileID = regexp.MustCompile(`/file/d/([^/]+)`)

// NormalizeURL rewrites share links of common file hosts into their direct
// download form. Other URLs are returned unchanged.
func NormalizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	switch {
	case u.Host == "drive.google.com":
		id := u.Query().Get("id")
		if m := driveFileID.FindStringSubmatch(u.Path); m != nil {
			id = m[1]
		}
		if id == "" {
			return raw
		}
		return "https://drive.google.com/uc?export=download&id=" + url.QueryEscape(id)
	case strings.HasSuffix(u.Host, "dropbox.com"):
		q := u.Query()
		if q.Get("dl") == "1" {
			return raw
		}
		q.Set("dl", "1")
		u.RawQuery = q.Encode()
		return u.String()
	}
	return raw
}

// Fetch reads a snapshot from a URL or a local path.
func (c *Client) Fetch(ctx context.Context, source string) (Snapshot, error) {
	if IsURL(source) {
		return c.FetchURL(ctx, source)
	}
	return ReadFile(LocalPath(source))
}

// LocalPath turns a non-URL source into a filesystem path, dropping an
// optional file:// prefix.
func LocalPath(source string) string {
	return strings.TrimPrefix(source, "file://")
}

// ReadFile reads a snapshot from disk.
func ReadFile(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, eris.Wrapf(err, "failed to read snapshot %s", path)
	}
	return Snapshot{Name: path, Data: data}, nil
}

// FetchURL downloads a snapshot. Redirects are followed; anything other
// than 200 OK is a failure.
func (c *Client) FetchURL(ctx context.Context, downloadUrl string) (Snapshot, error) {
	const component = "Downloader"

	target := NormalizeURL(downloadUrl)
	c.logger.Debug(component, "Starting download url=%s", target)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return Snapshot{}, eris.Wrapf(err, "failed to create request for %s", target)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return Snapshot{}, eris.Wrapf(err, "request to %s failed", target)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn(component, "Non-OK HTTP response: url=%s status=%s statusCode=%d", target, resp.Status, resp.StatusCode)
		return Snapshot{}, eris.Errorf("unexpected status %d from %s", resp.StatusCode, target)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Snapshot{}, eris.Wrapf(err, "failed to read body from %s", target)
	}

	name := resp.Request.URL.Path
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if fn := dispositionFilename(cd); fn != "" {
			name = fn
		}
	}

	c.logger.Info(component, "Download completed: url=%s size=%d bytes", target, len(data))
	return Snapshot{Name: name, ContentType: resp.Header.Get("Content-Type"), Data: data}, nil
}

func dispositionFilename(cd string) string {
	_, params, err := mime.ParseMediaType(cd)
	if err != nil {
		return ""
	}
	return params["filename"]
}
