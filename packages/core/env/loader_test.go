package env

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTypedLookups(t *testing.T) {
	t.Setenv("FC_STR", "http://api")
	t.Setenv("FC_BOOL", "YES")
	t.Setenv("FC_BOOL_OFF", "0")
	t.Setenv("FC_BAD_BOOL", "maybe")
	t.Setenv("FC_INT", "3")
	t.Setenv("FC_BAD_INT", "three")
	t.Setenv("FC_FLOAT", "2.5")
	t.Setenv("FC_DUR", "1500ms")
	t.Setenv("FC_DUR_MS", "250")
	t.Setenv("FC_LIST", "json, prometheus,,")

	assert.Equal(t, "http://api", String("FC_STR", "x"))
	assert.Equal(t, "x", String("FC_UNSET", "x"))
	assert.True(t, Bool("FC_BOOL", false))
	assert.False(t, Bool("FC_BOOL_OFF", true))
	assert.True(t, Bool("FC_BAD_BOOL", true))
	assert.Equal(t, 3, Int("FC_INT", 0))
	assert.Equal(t, 7, Int("FC_BAD_INT", 7))
	assert.Equal(t, 2.5, Float("FC_FLOAT", 0))
	assert.Equal(t, 1500*time.Millisecond, Duration("FC_DUR", 0))
	assert.Equal(t, 250*time.Millisecond, Duration("FC_DUR_MS", 0))
	assert.Equal(t, 10*time.Second, Duration("FC_UNSET", 10*time.Second))
	assert.Equal(t, []string{"json", "prometheus"}, List("FC_LIST"))
	assert.Nil(t, List("FC_UNSET"))
	assert.True(t, Set("FC_STR"))
	assert.False(t, Set("FC_UNSET"))
}
