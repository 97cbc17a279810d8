package capture

import (
	"testing"

	"github.com/abdul-hamid-achik/fitcheck/packages/assertions"
	"github.com/abdul-hamid-achik/fitcheck/packages/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func response(body string) *http.Response {
	return &http.Response{StatusCode: 200, Body: []byte(body)}
}

func TestString(t *testing.T) {
	e := NewExtractor(response(`{"challenge_id": "c1", "count": 7, "gone": null, "user": {"id": "u1"}}`))

	s, ok := e.String(Body("id", "challenge_id"))
	assert.True(t, ok)
	assert.Equal(t, "c1", s)

	s, ok = e.String(Body("count", "count"))
	assert.True(t, ok)
	assert.Equal(t, "7", s)

	s, ok = e.String(Body("user", "user.id"))
	assert.True(t, ok)
	assert.Equal(t, "u1", s)

	_, ok = e.String(Body("gone", "gone"))
	assert.False(t, ok)

	_, ok = e.String(Body("missing", "nope"))
	assert.False(t, ok)
}

func TestString_NonJSONAndNil(t *testing.T) {
	_, ok := NewExtractor(&http.Response{StatusCode: 502, Body: []byte("Bad Gateway")}).String(Body("x", "detail"))
	assert.False(t, ok)

	_, ok = NewExtractor(nil).String(Body("x", "x"))
	assert.False(t, ok)
}

func TestRequired(t *testing.T) {
	values, err := NewExtractor(response(`{"access_token": "tok", "user_id": "u1"}`)).Required(
		Body("token", "access_token"),
		Body("user", "user_id"),
	)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"token": "tok", "user": "u1"}, values)
}

func TestRequired_NullEmptyAndMissing(t *testing.T) {
	_, err := NewExtractor(response(`{"access_token": null, "user_id": ""}`)).Required(
		Body("token", "access_token"),
		Body("user", "user_id"),
		Body("challenge", "challenge_id"),
	)

	var missing *assertions.MissingFieldsError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"access_token", "user_id", "challenge_id"}, missing.Fields)
	assert.Equal(t, "missing fields: access_token, user_id, challenge_id", assertions.DetailFor(err))
}
