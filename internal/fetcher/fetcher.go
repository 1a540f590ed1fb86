// Package fetcher downloads and parses source feeds: HTTP and FTP
// transport, plus CSV, XLSX, and HTML-table readers.
package fetcher

import (
	"context"
	"io"
	"net/url"
	"strings"

	"github.com/rotisserie/eris"
)

// Fetcher downloads remote data.
type Fetcher interface {
	// Download fetches the URL and returns the response body.
	Download(ctx context.Context, url string) (io.ReadCloser, error)

	// DownloadToFile fetches the URL into path and returns bytes written.
	DownloadToFile(ctx context.Context, url string, path string) (int64, error)
}

// SchemeFetcher dispatches to an HTTP or FTP fetcher based on URL scheme.
type SchemeFetcher struct {
	HTTP Fetcher
	FTP  Fetcher
}

// NewSchemeFetcher builds the default dispatching fetcher.
func NewSchemeFetcher(httpOpts HTTPOptions, ftpOpts FTPOptions) *SchemeFetcher {
	return &SchemeFetcher{
		HTTP: NewHTTPFetcher(httpOpts),
		FTP:  NewFTPFetcher(ftpOpts),
	}
}

func (s *SchemeFetcher) pick(rawURL string) (Fetcher, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: parse url %q", rawURL)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return s.HTTP, nil
	case "ftp":
		return s.FTP, nil
	default:
		return nil, eris.Errorf("fetcher: unsupported scheme %q", u.Scheme)
	}
}

// Download implements Fetcher.
func (s *SchemeFetcher) Download(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	f, err := s.pick(rawURL)
	if err != nil {
		return nil, err
	}
	return f.Download(ctx, rawURL)
}

// DownloadToFile implements Fetcher.
func (s *SchemeFetcher) DownloadToFile(ctx context.Context, rawURL string, path string) (int64, error) {
	f, err := s.pick(rawURL)
	if err != nil {
		return 0, err
	}
	return f.DownloadToFile(ctx, rawURL, path)
}
