package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mealwise/backend/internal/types"
)

// ErrInvalidSession is returned for tokens that do not identify a live session
var ErrInvalidSession = errors.New("invalid or expired session")

// SessionVerifier resolves an access token to the session it belongs to
type SessionVerifier interface {
	Verify(ctx context.Context, accessToken string) (*types.SessionInfo, error)
}

// JWTVerifier checks HS256 access tokens locally with the provider's JWT secret
type JWTVerifier struct {
	secret []byte
}

func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret)}
}

func (v *JWTVerifier) Verify(_ context.Context, accessToken string) (*types.SessionInfo, error) {
	claims := &types.SessionClaims{}
	_, err := jwt.ParseWithClaims(accessToken, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: token has no subject", ErrInvalidSession)
	}

	return &types.SessionInfo{
		UserID:    claims.Subject,
		Email:     claims.Email,
		ExpiresAt: claims.ExpiresAt.Time.UTC(),
	}, nil
}

// RemoteVerifier asks the identity provider who owns the token
type RemoteVerifier struct {
	provider Provider
}

func NewRemoteVerifier(provider Provider) *RemoteVerifier {
	return &RemoteVerifier{provider: provider}
}

func (v *RemoteVerifier) Verify(ctx context.Context, accessToken string) (*types.SessionInfo, error) {
	user, err := v.provider.GetUser(ctx, accessToken)
	if err != nil {
		var perr *Error
		if errors.As(err, &perr) && (perr.StatusCode == 401 || perr.StatusCode == 403) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidSession, perr.Message)
		}
		return nil, err
	}

	info := &types.SessionInfo{UserID: user.ID, Email: user.Email}
	// The provider vouched for the token, so its expiry can be read without
	// checking the signature again
	claims := &types.SessionClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err == nil && claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time.UTC()
	}
	return info, nil
}

var (
	_ SessionVerifier = (*JWTVerifier)(nil)
	_ SessionVerifier = (*RemoteVerifier)(nil)
	_ Provider        = (*Client)(nil)
)
