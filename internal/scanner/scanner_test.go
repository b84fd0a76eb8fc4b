package scanner

import (
	"context"
	"errors"
	"iter"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct{ name string }

func (s stubProvider) Name() string { return s.name }

func (s stubProvider) Fetch(context.Context, Request) iter.Seq2[Record, error] {
	return Failed(errors.New("boom"))
}

func TestRegistryResolve(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	reg.Register(stubProvider{name: "forum"})
	reg.Register(stubProvider{name: "catalog"})

	p, err := reg.Resolve("forum")
	require.NoError(t, err)
	assert.Equal(t, "forum", p.Name())
	assert.Equal(t, []string{"catalog", "forum"}, reg.Names())

	_, err = reg.Resolve("missing")
	assert.Error(t, err)
}

func TestFailedYieldsSingleError(t *testing.T) {
	t.Parallel()

	var errs int
	for _, err := range Failed(errors.New("boom")) {
		require.Error(t, err)
		errs++
	}
	assert.Equal(t, 1, errs)
}
