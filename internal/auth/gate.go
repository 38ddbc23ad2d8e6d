package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"go.uber.org/zap"
)

var ErrAuthenticationFailed = errors.New("authentication failed")

// DemoGate accepts one static pair of demo credentials. It is a demo gate,
// not an authentication system.
type DemoGate struct {
	username string
	password string
	delay    time.Duration
	issuer   *TokenIssuer
	logger   *zap.Logger
}

func NewDemoGate(username, password string, delay time.Duration, issuer *TokenIssuer, logger *zap.Logger) *DemoGate {
	return &DemoGate{
		username: username,
		password: password,
		delay:    delay,
		issuer:   issuer,
		logger:   logger,
	}
}

// Login waits for the configured delay, compares the credentials and issues
// a token on success
func (g *DemoGate) Login(ctx context.Context, username, password string) (string, error) {
	if g.delay > 0 {
		timer := time.NewTimer(g.delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return "", ctx.Err()
		}
	}

	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(g.username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(g.password)) == 1
	if !userOK || !passOK {
		g.logger.Info("Rejected demo login", zap.String("username", username))
		return "", ErrAuthenticationFailed
	}

	token, err := g.issuer.GenerateUserToken(username)
	if err != nil {
		return "", err
	}

	g.logger.Info("Demo login accepted", zap.String("username", username))
	return token, nil
}

// Validate checks a token issued by Login
func (g *DemoGate) Validate(token string) (*JWTClaims, error) {
	return g.issuer.ValidateToken(token)
}
