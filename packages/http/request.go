package http

import (
	"encoding/json"
	"net/http"
	"net/url"
)

// Request is a fully resolved call, ready for the Client
type Request struct {
	Method string
	URL    string
	Header http.Header
	Query  url.Values
	Body   []byte
}

func NewRequest(method, requestURL string) *Request {
	return &Request{
		Method: method,
		URL:    requestURL,
		Header: make(http.Header),
		Query:  make(url.Values),
	}
}

// SetJSONBody encodes v as the request body
func (r *Request) SetJSONBody(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	r.Body = data
	return nil
}

// FullURL adds Query to URL, keeping any query the URL already has
func (r *Request) FullURL() string {
	if len(r.Query) == 0 {
		return r.URL
	}

	u, err := url.Parse(r.URL)
	if err != nil {
		return r.URL
	}

	q := u.Query()
	for k, vs := range r.Query {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String()
}
