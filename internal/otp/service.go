package otp

import (
	"context"
	"time"
)

// DefaultTTL is how long a generated code stays valid.
const DefaultTTL = 5 * time.Minute

// ChannelService manages the code lifecycle for one delivery channel
// (phone or email). Delivery itself is the caller's concern; a failed
// send never invalidates an already stored code.
type ChannelService struct {
	channel string
	ledger  Ledger
	ttl     time.Duration
}

func NewChannelService(channel string, ledger Ledger) *ChannelService {
	return &ChannelService{
		channel: channel,
		ledger:  ledger,
		ttl:     DefaultTTL,
	}
}

// Channel returns the channel name this service was built for.
func (s *ChannelService) Channel() string {
	return s.channel
}

// Generate creates and stores a fresh code for key, replacing any
// pending code for the same key.
func (s *ChannelService) Generate(ctx context.Context, key string) (string, error) {
	code, err := GenerateCode()
	if err != nil {
		return "", err
	}
	if err := s.ledger.Put(ctx, key, code, s.ttl); err != nil {
		return "", err
	}
	return code, nil
}

// Verify checks a submitted code. Verification is single-use: a correct
// code consumes the entry, and so does a verification attempt after
// expiry. A wrong code leaves the entry in place until it expires or a
// correct attempt arrives; there is no attempt cap.
func (s *ChannelService) Verify(ctx context.Context, key, submitted string) (bool, error) {
	entry, ok, err := s.ledger.Peek(ctx, key)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	if time.Now().After(entry.ExpiresAt) {
		if err := s.ledger.Delete(ctx, key); err != nil {
			return false, err
		}
		return false, nil
	}

	if entry.Code != submitted {
		return false, nil
	}

	if err := s.ledger.Delete(ctx, key); err != nil {
		return false, err
	}
	return true, nil
}
