package redisx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewAppliesCommandTimeouts(t *testing.T) {
	r := New("127.0.0.1:6379")
	defer r.Close()

	assert.Equal(t, 2*time.Second, r.Options().ReadTimeout)
	assert.Equal(t, 2*time.Second, r.Options().WriteTimeout)
}
