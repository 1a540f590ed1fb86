package source

import (
	"bytes"
	"context"
	"io"
	"os"

	"github.com/rotisserie/eris"
)

// stubFetcher serves a fixed payload for every URL, recording the last
// URL requested.
type stubFetcher struct {
	payload []byte
	err     error
	lastURL string
}

func (s *stubFetcher) Download(_ context.Context, url string) (io.ReadCloser, error) {
	s.lastURL = url
	if s.err != nil {
		return nil, s.err
	}
	return io.NopCloser(bytes.NewReader(s.payload)), nil
}

func (s *stubFetcher) DownloadToFile(ctx context.Context, url string, path string) (int64, error) {
	body, err := s.Download(ctx, url)
	if err != nil {
		return 0, err
	}
	defer body.Close()
	f, err := os.Create(path)
	if err != nil {
		return 0, eris.Wrap(err, "stub: create file")
	}
	defer f.Close()
	return io.Copy(f, body)
}
