package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"

	"golang.org/x/time/rate"

	"github.com/mrz1836/ally/internal/domain"
)

// URL staleness policies.
const (
	URLPolicySkip   = "skip"
	URLPolicyDigest = "digest"
)

// maxDigestBody caps how much of a URL response is hashed.
const maxDigestBody = 32 << 20

// Stamper computes staleness keys: a SHA-256 digest of the target's content.
type Stamper struct {
	URLPolicy string
	Client    *http.Client
	Limiter   *rate.Limiter
}

// Key returns the staleness key for t. ok is false when the target is not
// eligible for caching under the current policy.
func (s *Stamper) Key(ctx context.Context, t domain.Target) (string, bool, error) {
	switch t.Kind {
	case domain.TargetFile:
		data, err := os.ReadFile(t.Path)
		if err != nil {
			return "", false, fmt.Errorf("read %s: %w", t.Path, err)
		}
		return digest(data), true, nil
	case domain.TargetURL:
		if s.URLPolicy != URLPolicyDigest {
			return "", false, nil
		}
		return s.urlDigest(ctx, t.URL)
	case domain.TargetInline:
		return digest([]byte(t.HTML)), true, nil
	default:
		return "", false, nil
	}
}

func (s *Stamper) urlDigest(ctx context.Context, url string) (string, bool, error) {
	if s.Limiter != nil {
		if err := s.Limiter.Wait(ctx); err != nil {
			return "", false, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", false, fmt.Errorf("build request: %w", err)
	}
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", false, fmt.Errorf("fetch for digest: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		return "", false, fmt.Errorf("fetch for digest: status %d", resp.StatusCode)
	}

	h := sha256.New()
	if _, err := io.Copy(h, io.LimitReader(resp.Body, maxDigestBody)); err != nil {
		return "", false, fmt.Errorf("read body for digest: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), true, nil
}

func digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
