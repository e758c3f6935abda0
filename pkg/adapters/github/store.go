// Package github stores the catalog as a file in a GitHub repository using
// the contents API. The file's blob sha is the version token, and GitHub
// rejects writes whose sha is stale.
package github

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/aretw0/introspection"
	gh "github.com/google/go-github/v66/github"

	"github.com/fabianshop/storefront/pkg/core"
)

// DefaultBranch is used when Config.Branch is empty.
const DefaultBranch = "main"

// ErrInvalidRepo is returned by ParseRepo for anything but "owner/repo".
var ErrInvalidRepo = errors.New("GITHUB_REPO must be owner/repo")

// Config holds the repository coordinates and credentials.
type Config struct {
	Owner  string
	Repo   string
	Branch string
	Path   string // catalog file path, "products.json" when empty
	Token  string

	// BaseURL overrides the API endpoint, for GitHub Enterprise or tests.
	BaseURL    string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// ParseRepo splits "owner/repo".
func ParseRepo(s string) (owner, repo string, err error) {
	parts := strings.Split(s, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidRepo, s)
	}
	return parts[0], parts[1], nil
}

// Store implements core.Store on top of the GitHub contents API.
type Store struct {
	client *gh.Client
	config Config
}

// New creates a Store. It performs no network calls.
func New(config Config) (*Store, error) {
	if config.Owner == "" || config.Repo == "" {
		return nil, ErrInvalidRepo
	}
	if config.Branch == "" {
		config.Branch = DefaultBranch
	}
	if config.Path == "" {
		config.Path = "products.json"
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}

	client := gh.NewClient(config.HTTPClient)
	if config.Token != "" {
		client = client.WithAuthToken(config.Token)
	}
	if config.BaseURL != "" {
		base := config.BaseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub base URL: %w", err)
		}
		client.BaseURL = u
	}

	return &Store{client: client, config: config}, nil
}

// FetchCatalog implements core.Store.
func (s *Store) FetchCatalog(ctx context.Context) (core.Catalog, core.Version, error) {
	file, _, _, err := s.client.Repositories.GetContents(ctx, s.config.Owner, s.config.Repo, s.config.Path,
		&gh.RepositoryContentGetOptions{Ref: s.config.Branch})
	if err != nil {
		return core.Catalog{}, "", s.classify("fetch", err, core.ErrCatalogNotFound)
	}
	if file == nil {
		return core.Catalog{}, "", fmt.Errorf("%w: %s is a directory", core.ErrCatalogMalformed, s.config.Path)
	}

	sha := file.GetSHA()
	content, err := s.content(ctx, file)
	if err != nil {
		return core.Catalog{}, "", err
	}

	c, err := core.Decode(content)
	if err != nil {
		return core.Catalog{}, "", fmt.Errorf("%s: %w", s.config.Path, err)
	}

	s.config.Logger.Debug("retrieved catalog", "path", s.config.Path, "sha", core.Version(sha).Short())
	return c, core.Version(sha), nil
}

// content decodes the inline payload, falling back to the blob API for
// files too large to be inlined.
func (s *Store) content(ctx context.Context, file *gh.RepositoryContent) ([]byte, error) {
	if file.GetEncoding() != "none" {
		text, err := file.GetContent()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", core.ErrCatalogMalformed, err)
		}
		return []byte(text), nil
	}

	blob, _, err := s.client.Git.GetBlobRaw(ctx, s.config.Owner, s.config.Repo, file.GetSHA())
	if err != nil {
		return nil, s.classify("fetch blob", err, core.ErrCatalogNotFound)
	}
	return blob, nil
}

// CommitCatalog implements core.Store.
func (s *Store) CommitCatalog(ctx context.Context, c core.Catalog, expected core.Version, changeNote string) error {
	data, err := core.Encode(c)
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrTransientIO, err)
	}

	opts := &gh.RepositoryContentFileOptions{
		Message: gh.String(changeNote),
		Content: data,
		SHA:     gh.String(string(expected)),
		Branch:  gh.String(s.config.Branch),
	}
	res, _, err := s.client.Repositories.UpdateFile(ctx, s.config.Owner, s.config.Repo, s.config.Path, opts)
	if err != nil {
		return s.classify("commit", err, core.ErrTransientIO)
	}

	var commit string
	if res != nil {
		commit = res.Commit.GetSHA()
	}
	s.config.Logger.Debug("committed catalog",
		"path", s.config.Path,
		"commit", core.Version(commit).Short(),
		"subject", core.Subject(changeNote),
	)
	return nil
}

// classify maps an API failure to a store error. notFound is what a 404
// means for the calling operation.
func (s *Store) classify(op string, err error, notFound error) error {
	var rle *gh.RateLimitError
	var arle *gh.AbuseRateLimitError
	if errors.As(err, &rle) || errors.As(err, &arle) {
		return fmt.Errorf("%w: github %s: %w", core.ErrTransientIO, op, err)
	}

	var er *gh.ErrorResponse
	if !errors.As(err, &er) || er.Response == nil {
		return fmt.Errorf("%w: github %s: %w", core.ErrTransientIO, op, err)
	}

	status := er.Response.StatusCode
	s.config.Logger.Debug("github request failed", "op", op, "status", status, "message", er.Message)

	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: github %s: %w", core.ErrStoreAuth, op, err)
	case http.StatusNotFound:
		return fmt.Errorf("%w: github %s %s: %w", notFound, op, s.config.Path, err)
	case http.StatusConflict:
		return fmt.Errorf("%w: %w", core.ErrVersionConflict, err)
	case http.StatusUnprocessableEntity:
		// Returned when the sha is missing or does not name a blob.
		if op == "commit" {
			return fmt.Errorf("%w: %w", core.ErrVersionConflict, err)
		}
	}
	return fmt.Errorf("%w: github %s: %w", core.ErrTransientIO, op, err)
}

// StoreState exposes the store's configuration for observability.
type StoreState struct {
	Repository string `json:"repository"`
	Branch     string `json:"branch"`
	Path       string `json:"path"`
	BaseURL    string `json:"base_url"`
	HasToken   bool   `json:"has_token"`
}

// State implements introspection.Introspectable.
func (s *Store) State() any {
	return StoreState{
		Repository: s.config.Owner + "/" + s.config.Repo,
		Branch:     s.config.Branch,
		Path:       s.config.Path,
		BaseURL:    s.client.BaseURL.String(),
		HasToken:   s.config.Token != "",
	}
}

// ComponentType implements introspection.Component.
func (s *Store) ComponentType() string {
	return "github-store"
}

var (
	_ core.Store                   = (*Store)(nil)
	_ introspection.Introspectable = (*Store)(nil)
	_ introspection.Component      = (*Store)(nil)
)
