// internal/content/votepanel.go

package content

import (
	"context"
	"sync"
)

// VoteRemote is the slice of the backend a vote panel talks to
type VoteRemote interface {
	Vote(ctx context.Context, itemID, userID string, value int) (int, error)
	RemoveVote(ctx context.Context, itemID, userID string) (int, error)
}

// VotePanel models the voting widget state for one content item. Votes apply
// optimistically: the local score and own-vote move first, then the remote
// call runs. On failure the previous snapshot is restored exactly.
type VotePanel struct {
	mu sync.Mutex

	remote VoteRemote
	itemID string
	userID string

	score       int
	ownVote     int
	unavailable bool
}

// NewVotePanel creates a panel seeded with the server-provided state
func NewVotePanel(remote VoteRemote, itemID, userID string, score, ownVote int) *VotePanel {
	return &VotePanel{
		remote:  remote,
		itemID:  itemID,
		userID:  userID,
		score:   score,
		ownVote: ownVote,
	}
}

// Score returns the currently displayed score
func (p *VotePanel) Score() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.score
}

// OwnVote returns the caller's current vote (-1, 0, +1)
func (p *VotePanel) OwnVote() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ownVote
}

// Unavailable reports whether the item was found to be deleted remotely
func (p *VotePanel) Unavailable() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.unavailable
}

// Cast applies a vote of value (+1/-1). Clicking the already-active direction
// clears the vote. Returns the error from the remote call, after rollback.
func (p *VotePanel) Cast(ctx context.Context, value int) error {
	if value != -1 && value != 1 {
		return ErrInvalidVote
	}

	p.mu.Lock()
	if p.unavailable {
		p.mu.Unlock()
		return ErrItemUnavailable
	}
	prevScore, prevVote := p.score, p.ownVote

	clearing := p.ownVote == value
	if clearing {
		p.score -= value
		p.ownVote = 0
	} else {
		p.score += value - p.ownVote
		p.ownVote = value
	}
	p.mu.Unlock()

	var serverScore int
	var err error
	if clearing {
		serverScore, err = p.remote.RemoveVote(ctx, p.itemID, p.userID)
	} else {
		serverScore, err = p.remote.Vote(ctx, p.itemID, p.userID, value)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		p.score, p.ownVote = prevScore, prevVote
		if err == ErrItemUnavailable {
			p.unavailable = true
		}
		return err
	}
	// Server score wins over the optimistic estimate.
	p.score = serverScore
	return nil
}
