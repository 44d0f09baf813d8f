package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ErwanHenry/kaspa-ecosystem-sub001/internal/config"
	"github.com/ErwanHenry/kaspa-ecosystem-sub001/internal/models"
	"github.com/ErwanHenry/kaspa-ecosystem-sub001/internal/pkg/httpclient"
)

// ErrNotConfigured is returned when dispatch is attempted without the actor
// endpoint and token. Handlers map it to a service-unavailable response,
// distinct from request-caused errors.
var ErrNotConfigured = errors.New("scraper endpoint or token not configured")

// Client invokes the external scraping actor. The actor runs asynchronously
// and reports back through the callback endpoint; Trigger only starts a run
// and returns its identifier.
type Client struct {
	endpoint string
	token    string
	http     *httpclient.Client
}

// NewClient builds the actor client. Invocation is fire-and-forget, so
// retries stay off: a retried request could start a second run for the same
// project.
func NewClient(cfg config.ScraperConfig) *Client {
	return &Client{
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		token:    cfg.Token,
		http: httpclient.New().
			WithTimeout(cfg.Timeout).
			WithoutRetries().
			WithBearerToken(cfg.Token),
	}
}

// Configured reports whether the actor can be invoked at all.
func (c *Client) Configured() bool {
	return c.endpoint != "" && c.token != ""
}

type runRequest struct {
	ProjectID   uint   `json:"project_id"`
	Slug        string `json:"slug"`
	GithubURL   string `json:"github_url"`
	CallbackURL string `json:"callback_url"`
}

// Trigger starts an actor run for the project and returns the run id. It
// does not wait for the run to finish.
func (c *Client) Trigger(ctx context.Context, project *models.Project, callbackURL string) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}

	body, err := c.http.Post(ctx, c.endpoint+"/runs", runRequest{
		ProjectID:   project.ID,
		Slug:        project.Slug,
		GithubURL:   project.GithubURL,
		CallbackURL: callbackURL,
	})
	if err != nil {
		return "", fmt.Errorf("actor invocation failed: %w", err)
	}

	return parseRunID(body), nil
}

// parseRunID pulls the run identifier out of the actor's response, accepting
// both the wrapped ("data.id") and flat ("id") shapes. A response without
// one gets a locally generated id so the job metadata is never empty.
func parseRunID(body []byte) string {
	var wrapped struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil {
		if wrapped.Data.ID != "" {
			return wrapped.Data.ID
		}
		if wrapped.ID != "" {
			return wrapped.ID
		}
	}
	return "local-" + uuid.NewString()
}

// DefaultTimeout bounds a single invocation when the caller has no deadline.
const DefaultTimeout = 30 * time.Second
