package feed

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CaptureRouter/internal/domain"
)

type stubFetcher string

func (s stubFetcher) Kind() string { return string(s) }

func (s stubFetcher) Fetch(context.Context, Spec, time.Time) ([]domain.CandidateArticle, error) {
	return nil, nil
}

func TestRegistryResolve(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(stubFetcher(KindRSS), stubFetcher("arxiv"))

	f, err := reg.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, KindRSS, f.Kind())

	f, err = reg.Resolve("arxiv")
	require.NoError(t, err)
	assert.Equal(t, "arxiv", f.Kind())

	_, err = reg.Resolve("ieee")
	assert.Error(t, err)

	var empty Registry
	empty.Register(stubFetcher("x"))
	_, err = empty.Resolve("x")
	assert.NoError(t, err)
}
