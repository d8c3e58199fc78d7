package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInStock(t *testing.T) {
	p := &Product{Stock: 3}

	assert.True(t, p.InStock(1))
	assert.True(t, p.InStock(3))
	assert.False(t, p.InStock(4))
	assert.False(t, p.InStock(0))
}

func TestInStock_ZeroStock(t *testing.T) {
	p := &Product{Stock: 0}
	assert.False(t, p.InStock(1))
}
