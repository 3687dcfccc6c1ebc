package themedev

import (
	"bytes"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultCDNHost is the shared platform CDN.
const DefaultCDNHost = "cdn.shopify.com"

// cdnPath is where proxied CDN requests are served locally.
const cdnPath = "/cdn/"

// DevContext is the state shared by the dev server handlers.
type DevContext struct {
	FS *FileSystem
	// Store is the store domain, e.g. "demo.myshopify.com".
	Store   string
	CDNHost string
	Logger  *zap.Logger

	// Store and CDNHost must not change after the first rewrite.
	patternsOnce sync.Once
	patterns     []*regexp.Regexp
}

func (d *DevContext) logger() *zap.Logger {
	if d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}

// Matches asset file names in a request URI.
var assetPathRe = regexp.MustCompile(`^/cdn/.*?/assets/([^?]+)(\?|$)`)

// AssetsHandler serves theme assets from the local file system and passes
// every other request to next.
func AssetsHandler(dctx *DevContext, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			next.ServeHTTP(w, r)
			return
		}

		uri := r.URL.RequestURI()
		key, ok := assetKey(uri)
		if !ok || !dctx.FS.Has(key) {
			next.ServeHTTP(w, r)
			return
		}

		mimeType := MimeType(key)
		if strings.HasPrefix(mimeType, "image/") && strings.Contains(uri, "&") {
			// Image filters such as crop are only implemented by the CDN.
			next.ServeHTTP(w, r)
			return
		}

		content, modTime, err := localContent(dctx, key)
		if err != nil {
			dctx.logger().Warn("local asset unavailable", zap.String("key", key), zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-Local-Asset", "true")
		w.Header().Set("Content-Type", mimeType)
		http.ServeContent(w, r, path.Base(key), modTime, bytes.NewReader(content))
	})
}

func assetKey(uri string) (string, bool) {
	m := assetPathRe.FindStringSubmatch(uri)
	if m == nil {
		return "", false
	}
	name, err := url.PathUnescape(m[1])
	if err != nil {
		return "", false
	}
	return path.Join("assets", name), true
}

// localContent prefers the cached value and falls back to reading the disk.
// Text content gets the CDN proxy rewrite.
func localContent(dctx *DevContext, key string) ([]byte, time.Time, error) {
	f, ok := dctx.FS.Get(key)
	if !ok {
		var err error
		if f, err = dctx.FS.Read(key); err != nil {
			return nil, time.Time{}, err
		}
	}
	if f.IsText() {
		return []byte(InjectCDNProxy(f.Value, dctx)), f.UpdatedAt, nil
	}
	return f.Attachment, f.UpdatedAt, nil
}

// InjectCDNProxy rewrites absolute CDN URLs in content so they are requested
// through the local server.
func InjectCDNProxy(content string, dctx *DevContext) string {
	for _, re := range dctx.cdnPatterns() {
		content = re.ReplaceAllString(content, cdnPath)
	}
	return content
}

// cdnPatterns compiles the rewrite patterns once per context.
func (d *DevContext) cdnPatterns() []*regexp.Regexp {
	d.patternsOnce.Do(func() {
		if d.Store != "" {
			d.patterns = append(d.patterns, regexp.MustCompile(`(https?:)?//`+regexp.QuoteMeta(d.Store)+regexp.QuoteMeta(cdnPath)))
		}
		host := d.CDNHost
		if host == "" {
			host = DefaultCDNHost
		}
		d.patterns = append(d.patterns, regexp.MustCompile(`(https?:)?//`+regexp.QuoteMeta(host)+`/`))
	})
	return d.patterns
}
