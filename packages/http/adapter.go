package http

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/abdul-hamid-achik/fitcheck/packages/core/session"
)

// Call describes one request made by a test case. Endpoint is relative to the
// session base URL, e.g. "api/auth/me".
type Call struct {
	Method   string
	Endpoint string
	Body     any
	Query    map[string]string
	Auth     bool
}

// Adapter sends Calls on behalf of a session
type Adapter struct {
	client  *Client
	session *session.Session
}

func NewAdapter(client *Client, sess *session.Session) *Adapter {
	if client == nil {
		client = NewClient()
	}
	return &Adapter{
		client:  client,
		session: sess,
	}
}

func (a *Adapter) Session() *session.Session {
	return a.session
}

// Do sends the call. Content-Type is always application/json; the bearer
// token is attached only when the call needs auth and the session holds one.
// Bodies are sent for POST and PUT only.
func (a *Adapter) Do(ctx context.Context, call Call) (*Response, error) {
	method := strings.ToUpper(call.Method)
	switch method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete:
	default:
		return nil, fmt.Errorf("unsupported method %q", call.Method)
	}

	req := NewRequest(method, a.URL(call.Endpoint))
	req.Header.Set("Content-Type", "application/json")

	if call.Auth && a.session.HasToken() {
		req.Header.Set("Authorization", "Bearer "+a.session.AuthToken)
	}

	for k, v := range call.Query {
		req.Query.Set(k, v)
	}

	if call.Body != nil && (method == http.MethodPost || method == http.MethodPut) {
		if err := req.SetJSONBody(call.Body); err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
	}

	return a.client.Do(ctx, req)
}

// URL resolves an endpoint against the session base URL
func (a *Adapter) URL(endpoint string) string {
	return a.session.BaseURL + "/" + strings.TrimLeft(endpoint, "/")
}

func (a *Adapter) Get(ctx context.Context, endpoint string, auth bool) (*Response, error) {
	return a.Do(ctx, Call{Method: http.MethodGet, Endpoint: endpoint, Auth: auth})
}

func (a *Adapter) Post(ctx context.Context, endpoint string, body any, auth bool) (*Response, error) {
	return a.Do(ctx, Call{Method: http.MethodPost, Endpoint: endpoint, Body: body, Auth: auth})
}

func (a *Adapter) Put(ctx context.Context, endpoint string, body any, auth bool) (*Response, error) {
	return a.Do(ctx, Call{Method: http.MethodPut, Endpoint: endpoint, Body: body, Auth: auth})
}

func (a *Adapter) Delete(ctx context.Context, endpoint string, auth bool) (*Response, error) {
	return a.Do(ctx, Call{Method: http.MethodDelete, Endpoint: endpoint, Auth: auth})
}
