package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"babymeasure/internal/domain"
)

// Pairing answers.
const (
	pairingPrompt  = "To get and set information you must enter the secret phrase. The phrase was set by whoever installed me. Enter the phrase now:"
	pairingWelcome = "Great! You can now send me commands or ask questions."
	pairingLocked  = "Got it!"
)

// PairingResult tells a chat front end whether to pass a message on.
// Reply is set when the message was consumed by the pairing itself.
type PairingResult struct {
	Allowed bool
	Reply   string
}

// ChatIdentity is the sender of a chat message.
type ChatIdentity struct {
	ID        int64
	FirstName string
	LastName  string
}

// PairingService grants chat identities access after they enter the secret
// phrase. Identities that failed too often are ignored.
type PairingService struct {
	repo        domain.PairingRepository
	secret      string
	maxAttempts int
	now         func() time.Time
}

// NewPairingService creates a PairingService.
func NewPairingService(repo domain.PairingRepository, secret string, maxAttempts int) *PairingService {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return &PairingService{repo: repo, secret: secret, maxAttempts: maxAttempts, now: time.Now}
}

// Check decides what to do with text sent by who.
func (s *PairingService) Check(ctx context.Context, who ChatIdentity, text string) (PairingResult, error) {
	p, err := s.repo.GetPairing(ctx, who.ID)
	if err != nil {
		return PairingResult{}, fmt.Errorf("get pairing %d: %w", who.ID, err)
	}
	known := p != nil
	if !known {
		p = &domain.ChatPairing{ChatUserID: who.ID}
	}
	p.FirstName, p.LastName = who.FirstName, who.LastName
	p.UpdatedAt = s.now()

	var res PairingResult
	switch {
	case p.Allowed:
		res.Allowed = true
	case p.LoginAttempts >= s.maxAttempts:
		return PairingResult{Reply: pairingLocked}, nil
	case s.secret != "" && ConstantTimeCompare(strings.TrimSpace(text), s.secret):
		p.Allowed = true
		res.Reply = pairingWelcome
	case !known:
		res.Reply = pairingPrompt
	default:
		p.LoginAttempts++
		if left := s.maxAttempts - p.LoginAttempts; left > 0 {
			res.Reply = fmt.Sprintf("This was the wrong secret phrase, please try again. You have %d attempts left:", left)
		} else {
			res.Reply = "This was the wrong secret phrase. You have no attempts left."
		}
	}

	if err := s.repo.SavePairing(ctx, *p); err != nil {
		return PairingResult{}, fmt.Errorf("save pairing %d: %w", who.ID, err)
	}
	return res, nil
}
