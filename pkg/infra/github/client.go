package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/go-github/v75/github"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/release-sync/pkg/domain/interfaces"
	"github.com/m-mizutani/release-sync/pkg/domain/model"
	"github.com/m-mizutani/release-sync/pkg/domain/types"
)

// Repository identifies a repository as owner/name
type Repository struct {
	Owner string
	Name  string
}

// ParseRepository parses an "owner/name" identifier
func ParseRepository(s string) (Repository, error) {
	owner, name, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return Repository{}, goerr.New("repository must be in owner/name form", goerr.V("repository", s))
	}
	return Repository{Owner: owner, Name: name}, nil
}

func (r Repository) String() string {
	return r.Owner + "/" + r.Name
}

type client struct {
	requester *Requester
	baseURL   string
	repo      Repository
	token     string
}

// NewClient creates a release client for repo that sends every request
// through requester
func NewClient(requester *Requester, baseURL string, repo Repository, token string) (interfaces.ReleaseClient, error) {
	if requester == nil {
		return nil, goerr.New("requester is required")
	}
	if token == "" {
		return nil, goerr.New("authentication token is required")
	}
	if baseURL == "" {
		baseURL = types.DefaultAPIBaseURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, goerr.Wrap(err, "invalid API base URL", goerr.V("base_url", baseURL))
	}

	return &client{
		requester: requester,
		baseURL:   strings.TrimRight(baseURL, "/"),
		repo:      repo,
		token:     token,
	}, nil
}

// header returns the headers carried by every authenticated request
func (c *client) header() http.Header {
	h := http.Header{}
	h.Set("Accept", types.GitHubMediaType)
	h.Set("Authorization", "Bearer "+c.token)
	h.Set("X-GitHub-Api-Version", types.GitHubAPIVersion)
	h.Set("User-Agent", types.UserAgent())
	return h
}

func (c *client) repoURL(format string, args ...any) string {
	return fmt.Sprintf("%s/repos/%s/%s", c.baseURL, url.PathEscape(c.repo.Owner), url.PathEscape(c.repo.Name)) +
		fmt.Sprintf(format, args...)
}

// GetReleaseByTag fetches a release by its tag name. A 404 yields (nil, nil).
func (c *client) GetReleaseByTag(ctx context.Context, tag string) (*model.Release, error) {
	resp, err := c.requester.Do(ctx, &Request{
		Method: http.MethodGet,
		URL:    c.repoURL("/releases/tags/%s", url.PathEscape(tag)),
		Header: c.header(),
	})
	if IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var release github.RepositoryRelease
	if err := resp.Body.Decode(&release); err != nil {
		return nil, goerr.Wrap(err, "failed to decode release", goerr.V("tag", tag))
	}

	return toRelease(&release), nil
}

// CreateRelease creates a published, non-prerelease release
func (c *client) CreateRelease(ctx context.Context, newRelease *model.NewRelease) (*model.Release, error) {
	name := newRelease.Name
	if name == "" {
		name = newRelease.TagName
	}

	payload := &github.RepositoryRelease{
		TagName:    github.Ptr(newRelease.TagName),
		Name:       github.Ptr(name),
		Draft:      github.Ptr(false),
		Prerelease: github.Ptr(false),
	}
	if newRelease.TargetCommitish != "" {
		payload.TargetCommitish = github.Ptr(newRelease.TargetCommitish)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to encode release")
	}

	header := c.header()
	header.Set("Content-Type", "application/json")

	resp, err := c.requester.Do(ctx, &Request{
		Method: http.MethodPost,
		URL:    c.repoURL("/releases"),
		Header: header,
		Body:   body,
	})
	if err != nil {
		return nil, err
	}

	var created github.RepositoryRelease
	if err := resp.Body.Decode(&created); err != nil {
		return nil, goerr.Wrap(err, "failed to decode created release", goerr.V("tag", newRelease.TagName))
	}

	return toRelease(&created), nil
}

// DeleteReleaseAsset deletes an asset by its ID
func (c *client) DeleteReleaseAsset(ctx context.Context, assetID int64) error {
	_, err := c.requester.Do(ctx, &Request{
		Method: http.MethodDelete,
		URL:    c.repoURL("/releases/assets/%d", assetID),
		Header: c.header(),
	})
	return err
}

// UploadReleaseAsset uploads the artifact's content to the release
func (c *client) UploadReleaseAsset(ctx context.Context, release *model.Release, artifact *model.LocalArtifact) (*model.ReleaseAsset, error) {
	uploadURL, err := expandUploadURL(release.UploadURL, artifact.FileName)
	if err != nil {
		return nil, err
	}

	header := c.header()
	header.Set("Content-Type", artifact.ContentType)
	header.Set("Content-Length", strconv.Itoa(len(artifact.Content)))

	content := artifact.Content
	if content == nil {
		content = []byte{}
	}

	resp, err := c.requester.Do(ctx, &Request{
		Method: http.MethodPost,
		URL:    uploadURL,
		Header: header,
		Body:   content,
	})
	if err != nil {
		return nil, err
	}

	if resp.Body.Kind != model.BodyJSON {
		ctxlog.From(ctx).Debug("Upload response has no JSON body",
			"file", artifact.FileName,
			"kind", resp.Body.Kind.String(),
		)
		return &model.ReleaseAsset{Name: artifact.FileName, Size: len(artifact.Content)}, nil
	}

	var asset github.ReleaseAsset
	if err := resp.Body.Decode(&asset); err != nil {
		return nil, goerr.Wrap(err, "failed to decode uploaded asset", goerr.V("file", artifact.FileName))
	}

	return toAsset(&asset), nil
}

// expandUploadURL strips the RFC 6570 "{?name,label}" suffix from the
// release's upload URL template and sets the name query parameter
func expandUploadURL(template, name string) (string, error) {
	base, _, _ := strings.Cut(template, "{")
	if base == "" {
		return "", goerr.New("release has no upload URL")
	}

	u, err := url.Parse(base)
	if err != nil {
		return "", goerr.Wrap(err, "invalid upload URL", goerr.V("upload_url", template))
	}

	q := u.Query()
	q.Set("name", name)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func toRelease(r *github.RepositoryRelease) *model.Release {
	release := &model.Release{
		ID:        r.GetID(),
		TagName:   r.GetTagName(),
		UploadURL: r.GetUploadURL(),
	}
	for _, asset := range r.Assets {
		release.Assets = append(release.Assets, toAsset(asset))
	}
	return release
}

func toAsset(a *github.ReleaseAsset) *model.ReleaseAsset {
	return &model.ReleaseAsset{
		ID:   a.GetID(),
		Name: a.GetName(),
		Size: a.GetSize(),
	}
}
