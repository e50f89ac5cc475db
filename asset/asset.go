// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package asset resolves and opens asset references.
//
// References are slash-separated paths relative to a base,
// which is either a local directory or an http(s) URL.
// Absolute http(s) references bypass the base.
package asset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/gviegas/seascene"
)

// ErrNotFound is returned (wrapped) when an asset does not
// exist.
var ErrNotFound = errors.New("asset: not found")

// Source opens assets relative to a base.
type Source struct {
	base   *url.URL
	fsys   fs.FS
	client *http.Client
}

// NewSource creates a Source for base.
// base is either an http(s) URL or a directory path;
// an empty base means the working directory.
func NewSource(base string) (*Source, error) {
	if isRemote(base) {
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("asset: invalid base URL: %w", err)
		}
		if !strings.HasSuffix(u.Path, "/") {
			u.Path += "/"
		}
		return &Source{base: u, client: http.DefaultClient}, nil
	}
	if base == "" {
		base = "."
	}
	return &Source{fsys: os.DirFS(base)}, nil
}

// NewFSSource creates a Source that reads from fsys.
func NewFSSource(fsys fs.FS) *Source { return &Source{fsys: fsys} }

// SetClient replaces the HTTP client used for remote assets.
func (s *Source) SetClient(c *http.Client) { s.client = c }

// Resolve returns the location that ref refers to.
func (s *Source) Resolve(ref string) string {
	if isRemote(ref) {
		return ref
	}
	if s.base != nil {
		return s.base.ResolveReference(&url.URL{Path: strings.TrimPrefix(ref, "/")}).String()
	}
	return clean(ref)
}

// Open opens the asset that ref refers to.
// The caller must close the returned reader.
func (s *Source) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	loc := s.Resolve(ref)
	seascene.Logger().Debug("asset: open", "ref", ref, "location", loc)
	if isRemote(loc) {
		return s.get(ctx, loc)
	}
	if s.fsys == nil {
		return nil, fmt.Errorf("asset: %s: no local filesystem", ref)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := s.fsys.Open(loc)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
		}
		return nil, fmt.Errorf("asset: %w", err)
	}
	return f, nil
}

// ReadAll opens ref and reads it entirely.
func (s *Source) ReadAll(ctx context.Context, ref string) ([]byte, error) {
	rc, err := s.Open(ctx, ref)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("asset: read %s: %w", ref, err)
	}
	return b, nil
}

// Exists reports whether ref can be opened.
func (s *Source) Exists(ctx context.Context, ref string) bool {
	rc, err := s.Open(ctx, ref)
	if err != nil {
		return false
	}
	rc.Close()
	return true
}

func (s *Source) get(ctx context.Context, loc string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, loc, nil)
	if err != nil {
		return nil, fmt.Errorf("asset: %w", err)
	}
	client := s.client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("asset: %w", err)
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %s", ErrNotFound, loc)
	case resp.StatusCode >= 400:
		resp.Body.Close()
		return nil, fmt.Errorf("asset: %s: %s", loc, resp.Status)
	}
	return resp.Body, nil
}

// Join resolves ref relative to the asset at from.
// It is used for references found inside other assets,
// such as glTF buffer URIs.
func Join(from, ref string) string {
	if isRemote(ref) {
		return ref
	}
	if isRemote(from) {
		u, err := url.Parse(from)
		if err != nil {
			return ref
		}
		r, err := url.Parse(ref)
		if err != nil {
			return ref
		}
		return u.ResolveReference(r).String()
	}
	if u, err := url.PathUnescape(ref); err == nil {
		ref = u
	}
	return clean(path.Join(path.Dir(from), ref))
}

// clean turns ref into a valid fs.FS path.
func clean(ref string) string {
	p := path.Clean("/" + ref)
	p = strings.TrimPrefix(p, "/")
	if p == "" {
		return "."
	}
	return p
}

func isRemote(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
