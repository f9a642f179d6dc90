package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"petrel/models"
)

// Auth headers shared with the user directory and gatekeeper.
const (
	ServerTokenHeader  = "X-Auth-Server-Token"
	SessionTokenHeader = "X-Auth-Session-Token"
)

// UserAPI is the identity collaborator: account lookup, session token
// verification, and the id/hash pairs that key document encryption.
type UserAPI interface {
	// GetUsersWithIds batch-fetches identities. Callers chunk the id list to
	// respect transport limits; this issues one request per call.
	GetUsersWithIds(ctx context.Context, ids []string) ([]models.Identity, error)

	// GetMetaPair resolves the key pair addressing a user's document.
	GetMetaPair(ctx context.Context, userID string) (models.KeyPair, error)

	// GetAnonymousPair generates a fresh anonymous id/hash pair.
	GetAnonymousPair(ctx context.Context, userID string) (models.PrivatePair, error)

	// CheckToken verifies a session token and returns who it belongs to.
	CheckToken(ctx context.Context, token string) (models.TokenData, error)
}

// UserAPIClient is the HTTP implementation of UserAPI.
type UserAPIClient struct {
	httpClient  *http.Client
	baseURL     string
	serverToken TokenProvider
}

func NewUserAPIClient(httpClient *http.Client, baseURL string, serverToken TokenProvider) *UserAPIClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &UserAPIClient{httpClient: httpClient, baseURL: baseURL, serverToken: serverToken}
}

func (c *UserAPIClient) GetUsersWithIds(ctx context.Context, ids []string) ([]models.Identity, error) {
	query := url.Values{"id": []string{strings.Join(ids, ",")}}
	body, err := doServerRequest(ctx, c.httpClient, c.serverToken, c.baseURL+"/users?"+query.Encode())
	if err != nil {
		return nil, err
	}

	var users []models.Identity
	if err := json.Unmarshal(body, &users); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}
	return users, nil
}

func (c *UserAPIClient) GetMetaPair(ctx context.Context, userID string) (models.KeyPair, error) {
	body, err := doServerRequest(ctx, c.httpClient, c.serverToken, c.baseURL+"/private/"+url.PathEscape(userID)+"/meta")
	if err != nil {
		return models.KeyPair{}, err
	}

	// The directory reports the pair as an id/hash object; the id is the
	// user's document key.
	var pair models.PrivatePair
	if err := json.Unmarshal(body, &pair); err != nil {
		return models.KeyPair{}, fmt.Errorf("failed to decode meta pair: %w", err)
	}
	return models.KeyPair{UserID: userID, Hash: pair.Hash}, nil
}

func (c *UserAPIClient) GetAnonymousPair(ctx context.Context, userID string) (models.PrivatePair, error) {
	body, err := doServerRequest(ctx, c.httpClient, c.serverToken, c.baseURL+"/private?userId="+url.QueryEscape(userID))
	if err != nil {
		return models.PrivatePair{}, err
	}

	var pair models.PrivatePair
	if err := json.Unmarshal(body, &pair); err != nil {
		return models.PrivatePair{}, fmt.Errorf("failed to decode anonymous pair: %w", err)
	}
	return pair, nil
}

func (c *UserAPIClient) CheckToken(ctx context.Context, token string) (models.TokenData, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/token/"+url.PathEscape(token), nil)
	if err != nil {
		return models.TokenData{}, fmt.Errorf("failed to build request: %w", err)
	}
	serverToken, err := c.serverToken(ctx)
	if err != nil {
		return models.TokenData{}, fmt.Errorf("failed to obtain server token: %w", err)
	}
	req.Header.Set(ServerTokenHeader, serverToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.TokenData{}, fmt.Errorf("token check failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.TokenData{}, fmt.Errorf("failed to read token check response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return models.TokenData{}, &StatusError{Code: resp.StatusCode, Message: string(body)}
	}

	var data models.TokenData
	if err := json.Unmarshal(body, &data); err != nil {
		return models.TokenData{}, fmt.Errorf("failed to decode token data: %w", err)
	}
	return data, nil
}
