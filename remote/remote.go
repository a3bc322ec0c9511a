/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package remote reads GitHub repositories and pull requests for the
// fetch_remote_file tool and the PR explainer.
package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/go-github/v84/github"
	"golang.org/x/oauth2"

	"github.com/nalyx27/reviewpanel/agents/toolcall/callbacks"
)

// MaxDiffLength caps pull request diffs handed to a model.
const MaxDiffLength = 100_000

const diffTruncatedMarker = "\n...[Diff Truncated]...\n"

// Client reads from the GitHub API.
type Client struct {
	gh *github.Client
}

// Option configures a Client.
type Option func(*Client) error

// WithBaseURL points the client at another API root, such as a GitHub
// Enterprise server or a test server.
func WithBaseURL(raw string) Option {
	return func(c *Client) error {
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("parsing base URL: %w", err)
		}
		if !strings.HasSuffix(u.Path, "/") {
			u.Path += "/"
		}
		c.gh.BaseURL = u
		return nil
	}
}

// New returns a client. An empty token makes unauthenticated requests, which
// GitHub rate limits heavily.
func New(ctx context.Context, token string, opts ...Option) (*Client, error) {
	httpClient := &http.Client{Timeout: 60 * time.Second}
	if token != "" {
		httpClient = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
		httpClient.Timeout = 60 * time.Second
	}
	c := &Client{gh: github.NewClient(httpClient)}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}
	return c, nil
}

// Callbacks exposes the client to the fetch_remote_file tool.
func (c *Client) Callbacks() callbacks.RemoteCallbacks {
	return callbacks.RemoteCallbacks{FetchFile: c.FetchFile}
}

func isNotFound(resp *github.Response, err error) bool {
	if resp != nil && resp.StatusCode == http.StatusNotFound {
		return true
	}
	var ghErr *github.ErrorResponse
	return errors.As(err, &ghErr) && ghErr.Response != nil && ghErr.Response.StatusCode == http.StatusNotFound
}

// FetchFile returns the content of path at ref. Missing files return
// callbacks.ErrNotFound.
func (c *Client) FetchFile(ctx context.Context, owner, repo, path, ref string) (string, error) {
	opts := &github.RepositoryContentGetOptions{Ref: ref}
	file, dir, resp, err := c.gh.Repositories.GetContents(ctx, owner, repo, path, opts)
	if isNotFound(resp, err) {
		return "", callbacks.ErrNotFound
	} else if err != nil {
		return "", fmt.Errorf("getting %s/%s/%s@%s: %w", owner, repo, path, ref, err)
	}
	if file == nil {
		return "", fmt.Errorf("%s is a directory with %d entries", path, len(dir))
	}

	// Files over 1MB come back without inline content.
	if file.GetEncoding() == "none" || (file.Content == nil && file.GetSize() > 0) {
		rc, resp, err := c.gh.Repositories.DownloadContents(ctx, owner, repo, path, opts)
		if isNotFound(resp, err) {
			return "", callbacks.ErrNotFound
		} else if err != nil {
			return "", fmt.Errorf("downloading %s/%s/%s@%s: %w", owner, repo, path, ref, err)
		}
		defer rc.Close()
		b, err := io.ReadAll(rc)
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", path, err)
		}
		return string(b), nil
	}

	content, err := file.GetContent()
	if err != nil {
		return "", fmt.Errorf("decoding %s: %w", path, err)
	}
	return content, nil
}

// PullRequest identifies a pull request.
type PullRequest struct {
	Owner  string
	Repo   string
	Number int
}

func (pr PullRequest) String() string {
	return fmt.Sprintf("https://github.com/%s/%s/pull/%d", pr.Owner, pr.Repo, pr.Number)
}

// ParsePullRequestURL parses https://github.com/<owner>/<repo>/pull/<number>.
func ParsePullRequestURL(raw string) (PullRequest, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return PullRequest{}, fmt.Errorf("parsing %q: %w", raw, err)
	}
	if u.Scheme != "https" || u.Host != "github.com" {
		return PullRequest{}, fmt.Errorf("%q is not a valid GitHub URL", raw)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) != 4 || parts[2] != "pull" {
		return PullRequest{}, fmt.Errorf("%q is not a valid GitHub pull request URL", raw)
	}
	n, err := strconv.Atoi(parts[3])
	if err != nil || n <= 0 {
		return PullRequest{}, fmt.Errorf("%q has an invalid pull request number", raw)
	}
	return PullRequest{Owner: parts[0], Repo: parts[1], Number: n}, nil
}

// Comment is one comment on a pull request conversation.
type Comment struct {
	Username string    `json:"username" xml:"username,attr"`
	Date     time.Time `json:"date" xml:"date,attr"`
	Body     string    `json:"body" xml:",chardata"`
}

// PullRequestData is everything the explainer needs about a pull request.
type PullRequestData struct {
	PullRequest

	Title string
	Body  string

	// HeadSHA is the commit the diff ends at, the right ref for follow-up
	// file fetches.
	HeadSHA string

	// Diff is the unified diff, cut at MaxDiffLength.
	Diff string

	// DiffTruncated is set when Diff was cut.
	DiffTruncated bool

	Comments []Comment
}

// FetchPullRequest loads metadata, the diff and the conversation of pr.
func (c *Client) FetchPullRequest(ctx context.Context, pr PullRequest) (*PullRequestData, error) {
	meta, resp, err := c.gh.PullRequests.Get(ctx, pr.Owner, pr.Repo, pr.Number)
	if isNotFound(resp, err) {
		return nil, fmt.Errorf("pull request %s not found", pr)
	} else if err != nil {
		return nil, fmt.Errorf("getting pull request %s: %w", pr, err)
	}

	diff, truncated, err := c.PullRequestDiff(ctx, pr)
	if err != nil {
		return nil, err
	}
	comments, err := c.PullRequestComments(ctx, pr)
	if err != nil {
		return nil, err
	}

	return &PullRequestData{
		PullRequest:   pr,
		Title:         meta.GetTitle(),
		Body:          meta.GetBody(),
		HeadSHA:       meta.GetHead().GetSHA(),
		Diff:          diff,
		DiffTruncated: truncated,
		Comments:      comments,
	}, nil
}

// PullRequestDiff returns the unified diff of pr, cut at MaxDiffLength.
func (c *Client) PullRequestDiff(ctx context.Context, pr PullRequest) (string, bool, error) {
	diff, _, err := c.gh.PullRequests.GetRaw(ctx, pr.Owner, pr.Repo, pr.Number, github.RawOptions{Type: github.Diff})
	if err != nil {
		return "", false, fmt.Errorf("fetching diff of %s: %w", pr, err)
	}
	if len(diff) > MaxDiffLength {
		return diff[:MaxDiffLength] + diffTruncatedMarker, true, nil
	}
	return diff, false, nil
}

// PullRequestComments returns every conversation comment on pr, oldest first.
func (c *Client) PullRequestComments(ctx context.Context, pr PullRequest) ([]Comment, error) {
	opts := &github.IssueListCommentsOptions{ListOptions: github.ListOptions{PerPage: 100}}
	var comments []Comment
	for {
		page, resp, err := c.gh.Issues.ListComments(ctx, pr.Owner, pr.Repo, pr.Number, opts)
		if err != nil {
			return nil, fmt.Errorf("listing comments of %s: %w", pr, err)
		}
		for _, ic := range page {
			comments = append(comments, Comment{
				Username: ic.GetUser().GetLogin(),
				Date:     ic.GetUpdatedAt().Time,
				Body:     ic.GetBody(),
			})
		}
		if resp.NextPage == 0 {
			return comments, nil
		}
		opts.Page = resp.NextPage
	}
}
