// Package firebase adapts Firebase Auth as the identity provider. The rest
// of the application treats identities as opaque keys; credential handling
// stays entirely on Firebase's side.
package firebase

import (
	"context"
	"fmt"
	"strings"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"grana/internal/session"
)

// UserNameLookup resolves a stored display name for a UID. Provided by the
// caller (the document store keeps the profile) to avoid coupling this
// package to the storage layer.
type UserNameLookup func(ctx context.Context, uid string) (string, error)

// Provider wraps the Firebase Auth admin client.
type Provider struct {
	auth   *auth.Client
	lookup UserNameLookup
}

// NewProvider initializes a Firebase app and returns the auth provider.
// credentialsFile may be empty (application-default credentials); lookup
// may be nil.
func NewProvider(ctx context.Context, credentialsFile string, lookup UserNameLookup) (*Provider, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	app, err := firebase.NewApp(ctx, nil, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}

	authClient, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase auth client: %w", err)
	}

	return &Provider{auth: authClient, lookup: lookup}, nil
}

// VerifyToken resolves an identity from a Firebase ID token.
func (p *Provider) VerifyToken(ctx context.Context, idToken string) (session.Identity, error) {
	tok, err := p.auth.VerifyIDToken(ctx, idToken)
	if err != nil {
		return session.Identity{}, fmt.Errorf("failed to verify id token: %w", err)
	}
	return p.identity(ctx, tok.UID)
}

// IdentityByUID resolves an identity from a known UID (admin lookup).
func (p *Provider) IdentityByUID(ctx context.Context, uid string) (session.Identity, error) {
	return p.identity(ctx, uid)
}

// identity builds the Identity, resolving the display name from the stored
// profile first, then the auth record, then the email local-part.
func (p *Provider) identity(ctx context.Context, uid string) (session.Identity, error) {
	user, err := p.auth.GetUser(ctx, uid)
	if err != nil {
		return session.Identity{}, fmt.Errorf("failed to look up user %s: %w", uid, err)
	}

	name := ""
	if p.lookup != nil {
		if n, err := p.lookup(ctx, uid); err == nil {
			name = n
		}
	}
	if name == "" {
		name = user.DisplayName
	}
	if name == "" && user.Email != "" {
		name = strings.SplitN(user.Email, "@", 2)[0]
	}

	return session.Identity{UID: uid, DisplayName: name}, nil
}
