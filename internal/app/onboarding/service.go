package onboarding

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"cribbage/internal/ports"
)

// Result captures onboarding outcomes.
type Result struct {
	DisplayName string
}

// Service handles post-auth onboarding for new users.
type Service struct {
	accounts ports.AccountPort
	rng      *rand.Rand
}

// NewService constructs an onboarding service. rng may be nil to use a
// time-seeded default.
func NewService(accounts ports.AccountPort, rng *rand.Rand) *Service {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Service{accounts: accounts, rng: rng}
}

// OnboardNewUser gives a newly created account a friendly table name.
func (s *Service) OnboardNewUser(ctx context.Context, userID string) (Result, error) {
	if s.accounts == nil {
		return Result{}, fmt.Errorf("onboarding service not configured")
	}
	name := s.generateFriendlyName()
	if err := s.accounts.UpdateProfile(ctx, userID, name, name); err != nil {
		return Result{}, fmt.Errorf("update profile for %s: %w", userID, err)
	}
	return Result{DisplayName: name}, nil
}

func (s *Service) generateFriendlyName() string {
	adjectives := []string{"Lucky", "Sharp", "Steady", "Clever", "Quick", "Calm", "Bold", "Witty", "Sly", "Keen"}
	nouns := []string{"Pegger", "Dealer", "Cutter", "Knave", "Crib", "Skunk", "Heels", "Runner", "Counter", "Ace"}

	adj := adjectives[s.rng.Intn(len(adjectives))]
	noun := nouns[s.rng.Intn(len(nouns))]
	num := s.rng.Intn(9000) + 1000

	return fmt.Sprintf("%s%s%d", adj, noun, num)
}
