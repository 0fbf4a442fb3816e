// Package identity owns the authenticated Pi identity and its status
// machine. Every remote-facing component gates on Ready().
package identity

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/Amaan007S/piq-sync/internal/pi"
)

type Status string

const (
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Authenticator performs the external proof-of-identity exchange.
type Authenticator interface {
	Authenticate(ctx context.Context, scopes []string) (pi.AuthResult, error)
}

// Provider runs the exchange once and holds the outcome. There is no
// automatic retry; a failed session stays in StatusError until restarted.
type Provider struct {
	auth Authenticator

	mu          sync.RWMutex
	status      Status
	user        *pi.User
	accessToken string
	err         error
}

func NewProvider(auth Authenticator) *Provider {
	return &Provider{auth: auth, status: StatusLoading}
}

// Authenticate performs the identity exchange with the username scope and
// transitions the status machine. The returned error is also retained on the
// provider for consumers that only see the status.
func (p *Provider) Authenticate(ctx context.Context) error {
	result, err := p.auth.Authenticate(ctx, []string{"username"})

	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		p.status = StatusError
		p.err = err
		zap.L().Error("pi authentication failed", zap.Error(err))
		return err
	}

	user := result.User
	p.status = StatusSuccess
	p.user = &user
	p.accessToken = result.AccessToken
	zap.L().Info("pi authentication succeeded", zap.String("username", user.Username))
	return nil
}

func (p *Provider) Status() Status {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.status
}

// User returns the authenticated identity, nil before success.
func (p *Provider) User() *pi.User {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.user
}

func (p *Provider) AccessToken() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.accessToken
}

// Err returns the retained authentication failure, nil otherwise.
func (p *Provider) Err() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.err
}

// Ready reports whether remote reads and writes may proceed.
func (p *Provider) Ready() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.status == StatusSuccess && p.user != nil
}
