package dataset

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

// Load fetches a table from an http(s) URL or a local path and parses it.
func Load(ctx context.Context, source string) (*Dataset, *Report, error) {
	rc, err := open(ctx, source)
	if err != nil {
		return nil, nil, err
	}
	defer rc.Close()

	ds, report, err := Parse(rc)
	if err != nil {
		return nil, nil, fmt.Errorf("parse %s: %w", source, err)
	}
	return ds, report, nil
}

func open(ctx context.Context, source string) (io.ReadCloser, error) {
	if !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://") {
		f, err := os.Open(source)
		if err != nil {
			return nil, fmt.Errorf("open dataset: %w", err)
		}
		return f, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch dataset: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch dataset: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("fetch dataset %s: %s", source, resp.Status)
	}
	return resp.Body, nil
}
