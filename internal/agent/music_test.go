// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/enrich-engine/internal/resolve"
	"github.com/pdiddy/enrich-engine/pkg/types"
)

type fakeSearcher struct {
	gotName string
	gotOpts resolve.Options
	resp    types.EntitySearchResponse
	err     error
}

func (f *fakeSearcher) Search(_ context.Context, name string, opts resolve.Options) (types.EntitySearchResponse, error) {
	f.gotName, f.gotOpts = name, opts
	return f.resp, f.err
}

func TestMusicProviderMapsCandidates(t *testing.T) {
	searcher := &fakeSearcher{resp: types.EntitySearchResponse{
		Results: []types.MatchCandidate{
			{
				ID: "Q5383", Name: "David Bowie", Description: "English musician",
				Country: "United Kingdom", BirthYear: "1947", DeathYear: "2016",
				Confidence: 1.0, Tier: types.TierExact,
			},
			{ID: "Q1002", Name: "David Bowie", Confidence: 0.95, Tier: types.TierExact},
		},
	}}

	p := NewMusicProvider(searcher)
	rows, err := p.Search(context.Background(), "David Bowie", 5)
	require.NoError(t, err)

	assert.Equal(t, "David Bowie", searcher.gotName)
	assert.Equal(t, 5, searcher.gotOpts.Limit)

	require.Len(t, rows, 2)
	assert.Equal(t, "David Bowie", rows[0].Title)
	assert.Equal(t, "https://www.wikidata.org/wiki/Q5383", rows[0].Link)
	assert.Equal(t, "Wikidata", rows[0].Source)
	assert.Contains(t, rows[0].Snippet, "English musician")
	assert.Contains(t, rows[0].Snippet, "1947-2016")
	assert.Contains(t, rows[0].Snippet, "confidence 1.00")
}

func TestMusicProviderPropagatesErrors(t *testing.T) {
	searcher := &fakeSearcher{err: resolve.ErrMissingInput}
	p := NewMusicProvider(searcher)

	_, err := p.Search(context.Background(), "", 5)
	assert.ErrorIs(t, err, resolve.ErrMissingInput)
}
