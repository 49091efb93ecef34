// internal/content/votepanel_test.go

package content

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errVoteRemote = errors.New("vote remote failure")

type fakeVoteRemote struct {
	failNext    bool
	unavailable bool
	score       int
	ownVote     int
}

func (r *fakeVoteRemote) Vote(ctx context.Context, itemID, userID string, value int) (int, error) {
	if r.unavailable {
		return 0, ErrItemUnavailable
	}
	if r.failNext {
		return 0, errVoteRemote
	}
	r.score += value - r.ownVote
	r.ownVote = value
	return r.score, nil
}

func (r *fakeVoteRemote) RemoveVote(ctx context.Context, itemID, userID string) (int, error) {
	if r.unavailable {
		return 0, ErrItemUnavailable
	}
	if r.failNext {
		return 0, errVoteRemote
	}
	r.score -= r.ownVote
	r.ownVote = 0
	return r.score, nil
}

func TestVotePanelOptimisticUpvote(t *testing.T) {
	remote := &fakeVoteRemote{score: 5}
	panel := NewVotePanel(remote, "item-1", "me", 5, 0)

	require.NoError(t, panel.Cast(context.Background(), 1))
	assert.Equal(t, 6, panel.Score())
	assert.Equal(t, 1, panel.OwnVote())
}

func TestVotePanelRollbackOnFailure(t *testing.T) {
	remote := &fakeVoteRemote{failNext: true}
	panel := NewVotePanel(remote, "item-1", "me", 10, 0)

	err := panel.Cast(context.Background(), 1)
	require.ErrorIs(t, err, errVoteRemote)

	// Exact restoration of the pre-vote snapshot.
	assert.Equal(t, 10, panel.Score())
	assert.Equal(t, 0, panel.OwnVote())
}

func TestVotePanelRollbackPreservesExistingVote(t *testing.T) {
	remote := &fakeVoteRemote{failNext: true}
	panel := NewVotePanel(remote, "item-1", "me", 3, -1)

	err := panel.Cast(context.Background(), 1)
	require.ErrorIs(t, err, errVoteRemote)

	assert.Equal(t, 3, panel.Score())
	assert.Equal(t, -1, panel.OwnVote(), "previous downvote restored, not cleared")
}

func TestVotePanelSwitchingDirections(t *testing.T) {
	remote := &fakeVoteRemote{}
	panel := NewVotePanel(remote, "item-1", "me", 0, 0)

	require.NoError(t, panel.Cast(context.Background(), 1))
	assert.Equal(t, 1, panel.OwnVote())

	// Flipping to a downvote swings the displayed score by two.
	require.NoError(t, panel.Cast(context.Background(), -1))
	assert.Equal(t, -1, panel.OwnVote())
	assert.Equal(t, -1, panel.Score())
}

func TestVotePanelClickingActiveDirectionClears(t *testing.T) {
	remote := &fakeVoteRemote{score: 1, ownVote: 1}
	panel := NewVotePanel(remote, "item-1", "me", 1, 1)

	require.NoError(t, panel.Cast(context.Background(), 1))
	assert.Equal(t, 0, panel.OwnVote(), "re-clicking the active direction clears the vote")
}

func TestVotePanelDeletedItemBecomesUnavailable(t *testing.T) {
	remote := &fakeVoteRemote{unavailable: true}
	panel := NewVotePanel(remote, "item-1", "me", 4, 0)

	err := panel.Cast(context.Background(), 1)
	require.ErrorIs(t, err, ErrItemUnavailable)
	assert.True(t, panel.Unavailable())
	assert.Equal(t, 4, panel.Score(), "score rolled back")

	// Further votes are refused locally without touching the remote.
	err = panel.Cast(context.Background(), -1)
	assert.ErrorIs(t, err, ErrItemUnavailable)
}

func TestVotePanelRejectsInvalidValue(t *testing.T) {
	panel := NewVotePanel(&fakeVoteRemote{}, "item-1", "me", 0, 0)
	assert.ErrorIs(t, panel.Cast(context.Background(), 2), ErrInvalidVote)
	assert.ErrorIs(t, panel.Cast(context.Background(), 0), ErrInvalidVote)
}
