package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"petrel/models"
)

// Gatekeeper resolves the two permission relations around a user. Both calls
// may fail with a StatusError carrying the authorization service's status.
type Gatekeeper interface {
	// GroupsForUser returns, keyed by related user id, the permissions the
	// given user has granted to each related user.
	GroupsForUser(ctx context.Context, userID string) (map[string]models.PermissionSet, error)

	// UsersInGroup returns, keyed by related user id, the permissions each
	// related user has granted to the given user.
	UsersInGroup(ctx context.Context, userID string) (map[string]models.PermissionSet, error)
}

// TokenProvider supplies the server token the service authenticates with when
// calling collaborators.
type TokenProvider func(ctx context.Context) (string, error)

// GatekeeperClient is the HTTP implementation of Gatekeeper.
type GatekeeperClient struct {
	httpClient  *http.Client
	baseURL     string
	serverToken TokenProvider
}

func NewGatekeeperClient(httpClient *http.Client, baseURL string, serverToken TokenProvider) *GatekeeperClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &GatekeeperClient{httpClient: httpClient, baseURL: baseURL, serverToken: serverToken}
}

func (c *GatekeeperClient) GroupsForUser(ctx context.Context, userID string) (map[string]models.PermissionSet, error) {
	return c.fetchPermissions(ctx, "/access/groups/"+url.PathEscape(userID))
}

func (c *GatekeeperClient) UsersInGroup(ctx context.Context, userID string) (map[string]models.PermissionSet, error) {
	return c.fetchPermissions(ctx, "/access/"+url.PathEscape(userID))
}

func (c *GatekeeperClient) fetchPermissions(ctx context.Context, path string) (map[string]models.PermissionSet, error) {
	body, err := doServerRequest(ctx, c.httpClient, c.serverToken, c.baseURL+path)
	if err != nil {
		return nil, err
	}

	var permissions map[string]models.PermissionSet
	if err := json.Unmarshal(body, &permissions); err != nil {
		return nil, fmt.Errorf("failed to decode permissions: %w", err)
	}
	return permissions, nil
}

// doServerRequest issues a server-authenticated GET and returns the body.
// Non-2xx responses become StatusError with the upstream code intact.
func doServerRequest(ctx context.Context, client *http.Client, serverToken TokenProvider, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	token, err := serverToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to obtain server token: %w", err)
	}
	req.Header.Set(ServerTokenHeader, token)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", rawURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response from %s: %w", rawURL, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, Message: string(body)}
	}
	return body, nil
}
