package ports

import "context"

// Downloader fetches a remote artifact to a local path.
// Implementations must not leave a partially written destination file behind
// on failure.
type Downloader interface {
	Download(ctx context.Context, url, dest string) error
}
