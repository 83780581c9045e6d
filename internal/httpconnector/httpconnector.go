// Package httpconnector is a minimal resolve.Connector over plain HTTP
// GET, for repositories whose URL is directly fetchable. It fetches each
// download sequentially; a production connector would pool connections
// and fan the batch out concurrently, but the batching contract (one Get
// call per resolution group) is the same either way.
package httpconnector

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	"github.com/basalt-build/resolve/pkg/resolve"
)

// Provider builds Connectors that issue requests against repo.URL joined
// with each artifact's layout path.
type Provider struct {
	Client *http.Client
}

// NewProvider constructs a Provider with a sane default timeout.
func NewProvider() *Provider {
	return &Provider{Client: &http.Client{Timeout: 30 * time.Second}}
}

func (p *Provider) NewConnector(_ context.Context, _ *resolve.Session, repo resolve.Repository) (resolve.Connector, error) {
	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	return &connector{client: client, baseURL: repo.URL}, nil
}

type connector struct {
	client  *http.Client
	baseURL string
}

func (c *connector) Get(ctx context.Context, downloads []*resolve.Download) error {
	for _, d := range downloads {
		if err := c.fetchOne(ctx, d); err != nil {
			d.Exception = err
		}
	}
	return nil
}

func (c *connector) fetchOne(ctx context.Context, d *resolve.Download) error {
	url := strings.TrimSuffix(c.baseURL, "/") + "/" + remotePath(d.Artifact)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("building request for %s: %w", url, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetching %s: unexpected status %s", url, resp.Status)
	}

	if err := os.MkdirAll(path.Dir(d.Destination), 0o755); err != nil {
		return fmt.Errorf("creating destination directory for %s: %w", d.Destination, err)
	}
	out, err := os.Create(d.Destination)
	if err != nil {
		return fmt.Errorf("creating %s: %w", d.Destination, err)
	}
	defer out.Close()

	if _, err := out.ReadFrom(resp.Body); err != nil {
		return fmt.Errorf("writing %s: %w", d.Destination, err)
	}
	return nil
}

func (c *connector) Close() error {
	return nil
}

// remotePath derives the repository-relative path for an artifact using
// Maven's conventional group/artifact/version layout.
func remotePath(a resolve.Artifact) string {
	group := strings.ReplaceAll(a.GroupID, ".", "/")
	name := a.ArtifactID + "-" + a.Version
	if a.Classifier != "" {
		name += "-" + a.Classifier
	}
	ext := a.Extension
	if ext == "" {
		ext = "jar"
	}
	return fmt.Sprintf("%s/%s/%s/%s.%s", group, a.ArtifactID, a.Version, name, ext)
}
