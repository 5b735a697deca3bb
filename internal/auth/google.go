package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	googleIssuer    = "https://accounts.google.com"
	googleIssuerAlt = "accounts.google.com"
	googleJWKSURL   = "https://www.googleapis.com/oauth2/v3/certs"

	// Google rotates its signing keys roughly daily; cached keys older
	// than this are re-fetched before use.
	jwksRefreshInterval = 1 * time.Hour
)

// ErrIdentityTokenInvalid covers every federated verification failure:
// malformed token, bad signature, untrusted issuer, wrong audience, or expiry.
var ErrIdentityTokenInvalid = errors.New("identity token invalid")

// FederatedIdentity holds the verified claims extracted from an external
// identity token. Callers must prefer these over client-supplied fields.
type FederatedIdentity struct {
	SubjectID string
	Email     string
	Name      string
	Picture   string
}

type googleClaims struct {
	jwt.RegisteredClaims
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// GoogleVerifier validates Google-issued ID tokens against Google's
// published JWKS. It is built once at startup with the trusted client ID
// and injected into the auth service. Signing keys are fetched lazily and
// cached; an unknown key ID forces a refresh before the token is rejected.
type GoogleVerifier struct {
	clientID   string
	jwksURL    string
	httpClient *http.Client
	parser     *jwt.Parser
	now        func() time.Time

	mu        sync.Mutex
	keys      map[string]*rsa.PublicKey
	fetchedAt time.Time
}

func NewGoogleVerifier(clientID string) *GoogleVerifier {
	v := &GoogleVerifier{
		clientID:   clientID,
		jwksURL:    googleJWKSURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		now:        time.Now,
	}
	v.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithTimeFunc(func() time.Time { return v.now() }),
	)
	return v
}

// VerifyIDToken verifies the token's RS256 signature against Google's JWKS
// and checks issuer, audience and expiry before extracting identity claims.
// Every failure maps to ErrIdentityTokenInvalid; this is the trust boundary
// for everything the rest of the system consumes.
func (v *GoogleVerifier) VerifyIDToken(ctx context.Context, idToken string) (*FederatedIdentity, error) {
	if v.clientID == "" {
		return nil, fmt.Errorf("%w: verifier not configured", ErrIdentityTokenInvalid)
	}

	claims := &googleClaims{}
	token, err := v.parser.ParseWithClaims(idToken, claims, v.signingKey(ctx))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIdentityTokenInvalid, err)
	}
	if !token.Valid {
		return nil, ErrIdentityTokenInvalid
	}

	if claims.Issuer != googleIssuer && claims.Issuer != googleIssuerAlt {
		return nil, fmt.Errorf("%w: untrusted issuer %q", ErrIdentityTokenInvalid, claims.Issuer)
	}

	validAudience := false
	for _, aud := range claims.Audience {
		if aud == v.clientID {
			validAudience = true
			break
		}
	}
	if !validAudience {
		return nil, fmt.Errorf("%w: audience mismatch", ErrIdentityTokenInvalid)
	}

	if claims.ExpiresAt == nil || claims.ExpiresAt.Before(v.now()) {
		return nil, fmt.Errorf("%w: expired", ErrIdentityTokenInvalid)
	}

	if claims.Subject == "" || claims.Email == "" {
		return nil, fmt.Errorf("%w: missing subject or email", ErrIdentityTokenInvalid)
	}

	return &FederatedIdentity{
		SubjectID: claims.Subject,
		Email:     claims.Email,
		Name:      claims.Name,
		Picture:   claims.Picture,
	}, nil
}

func (v *GoogleVerifier) signingKey(ctx context.Context) jwt.Keyfunc {
	return func(token *jwt.Token) (interface{}, error) {
		kid, _ := token.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("token missing kid header")
		}
		return v.publicKey(ctx, kid)
	}
}

func (v *GoogleVerifier) publicKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if key, ok := v.keys[kid]; ok && v.now().Sub(v.fetchedAt) < jwksRefreshInterval {
		return key, nil
	}

	if err := v.refreshKeysLocked(ctx); err != nil {
		// Fetch failed; a previously cached key is still usable.
		if key, ok := v.keys[kid]; ok {
			return key, nil
		}
		return nil, err
	}

	key, ok := v.keys[kid]
	if !ok {
		return nil, fmt.Errorf("no signing key for kid %q", kid)
	}
	return key, nil
}

func (v *GoogleVerifier) refreshKeysLocked(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.jwksURL, nil)
	if err != nil {
		return fmt.Errorf("building jwks request: %w", err)
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetching jwks: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetching jwks: unexpected status %d", resp.StatusCode)
	}

	var doc struct {
		Keys []struct {
			Kid string `json:"kid"`
			Kty string `json:"kty"`
			N   string `json:"n"`
			E   string `json:"e"`
		} `json:"keys"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return fmt.Errorf("decoding jwks: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(doc.Keys))
	for _, k := range doc.Keys {
		if k.Kty != "RSA" || k.Kid == "" {
			continue
		}
		pub, err := parseRSAPublicKey(k.N, k.E)
		if err != nil {
			continue
		}
		keys[k.Kid] = pub
	}
	if len(keys) == 0 {
		return errors.New("jwks document contained no usable keys")
	}

	v.keys = keys
	v.fetchedAt = v.now()
	return nil
}

func parseRSAPublicKey(n, e string) (*rsa.PublicKey, error) {
	nb, err := base64.RawURLEncoding.DecodeString(n)
	if err != nil {
		return nil, fmt.Errorf("decoding modulus: %w", err)
	}
	eb, err := base64.RawURLEncoding.DecodeString(e)
	if err != nil {
		return nil, fmt.Errorf("decoding exponent: %w", err)
	}
	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nb),
		E: int(new(big.Int).SetBytes(eb).Int64()),
	}, nil
}
