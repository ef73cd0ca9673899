package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/heroiclabs/nakama-common/runtime"
)

// Identity is one bot account.
type Identity struct {
	DeviceID    string `json:"device_id"`
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Level       string `json:"level"` // "random", "greedy", "smart"
	AvatarIndex int    `json:"avatar_index"`
}

// Pool holds the bot identities available for seating.
type Pool struct {
	mu         sync.RWMutex
	identities []Identity
	byID       map[string]Identity
}

var (
	defaultPool = NewPool(nil)
	loadOnce    sync.Once
	loadErr     error
)

// NewPool indexes the given identities.
func NewPool(identities []Identity) *Pool {
	p := &Pool{byID: make(map[string]Identity)}
	for _, id := range identities {
		p.add(id)
	}
	return p
}

func (p *Pool) add(id Identity) {
	p.identities = append(p.identities, id)
	if id.UserID != "" {
		p.byID[id.UserID] = id
	}
}

// LoadIdentities loads the bot profiles from the given path into the default pool.
func LoadIdentities(path string) error {
	loadOnce.Do(func() {
		data, err := os.ReadFile(path)
		if err != nil {
			loadErr = fmt.Errorf("failed to read bot identities: %w", err)
			return
		}
		var identities []Identity
		if err := json.Unmarshal(data, &identities); err != nil {
			loadErr = fmt.Errorf("failed to unmarshal bot identities: %w", err)
			return
		}
		defaultPool = NewPool(identities)
	})
	return loadErr
}

// Default returns the pool filled by LoadIdentities.
func Default() *Pool { return defaultPool }

// Provision ensures every identity with a device id has a Nakama account
// tagged with is_bot metadata.
func (p *Pool) Provision(ctx context.Context, nk runtime.NakamaModule, logger runtime.Logger) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.identities {
		identity := &p.identities[i]
		if identity.DeviceID == "" {
			continue
		}
		userID, username, _, err := nk.AuthenticateDevice(ctx, identity.DeviceID, identity.Username, true)
		if err != nil {
			logger.Error("Provision: failed to authenticate bot %s: %v", identity.Username, err)
			continue
		}
		identity.UserID = userID
		identity.Username = username

		metadata := map[string]interface{}{
			"is_bot":       true,
			"level":        identity.Level,
			"avatar_index": identity.AvatarIndex,
		}
		if err := nk.AccountUpdateId(ctx, userID, identity.Username, metadata, identity.DisplayName, "", "", "", ""); err != nil {
			logger.Warn("Provision: failed to update bot account %s: %v", userID, err)
		}
		p.byID[userID] = *identity
		logger.Info("Provision: bot %s (%s) is ready, level %s", identity.DisplayName, userID, identity.Level)
	}
}

// Pick returns an identity not in taken. When the pool is exhausted a
// throwaway identity is made up.
func (p *Pool) Pick(taken map[string]bool) Identity {
	p.mu.RLock()
	for _, id := range p.identities {
		if id.UserID != "" && !taken[id.UserID] {
			p.mu.RUnlock()
			return id
		}
	}
	p.mu.RUnlock()

	id := Identity{UserID: "bot-" + uuid.NewString()}
	id.DisplayName = fmt.Sprintf("AI Player %s", id.UserID[4:8])
	id.Username = id.UserID
	p.mu.Lock()
	p.byID[id.UserID] = id
	p.mu.Unlock()
	return id
}

// IsBot reports whether the given user ID belongs to the pool.
func (p *Pool) IsBot(userID string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.byID[userID]
	return ok
}

// DisplayName returns the bot's display name, or "" if userID is not a bot.
func (p *Pool) DisplayName(userID string) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	id := p.byID[userID]
	if id.DisplayName == "" {
		return id.Username
	}
	return id.DisplayName
}

// Spawn builds an agent for identity. The identity's level wins over
// fallback when it names one.
func Spawn(identity Identity, fallback BotLevel, lo, hi time.Duration, opts ...AgentOption) (*Agent, error) {
	level := fallback
	if identity.Level != "" {
		l, err := ParseBotLevel(identity.Level)
		if err != nil {
			return nil, err
		}
		level = l
	}
	strategy, err := NewBrain(level)
	if err != nil {
		return nil, err
	}
	name := identity.DisplayName
	if name == "" {
		name = identity.Username
	}
	opts = append([]AgentOption{WithThinkDelay(lo, hi)}, opts...)
	return NewAgent(identity.UserID, name, strategy, opts...), nil
}
