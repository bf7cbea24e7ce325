package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrUnknownKID = errors.New("jwtx: unknown kid")
	ErrInvalidSig = errors.New("jwtx: invalid signature")
)

// IDTokenVerifier checks ID tokens returned from the token endpoint against
// the provider's published keys.
type IDTokenVerifier struct {
	keys     *KeySet
	issuer   string
	audience []string
	leeway   time.Duration
	now      func() time.Time
}

// NewIDTokenVerifier returns a verifier accepting RS256, ES256 and EdDSA
// signatures from keys. The audience is normally the OAuth client id.
func NewIDTokenVerifier(keys *KeySet, issuer string, audience ...string) *IDTokenVerifier {
	return &IDTokenVerifier{
		keys:     keys,
		issuer:   issuer,
		audience: audience,
		leeway:   DefaultLeeway,
		now:      time.Now,
	}
}

// Verify validates the signature and claims of token. An empty nonce skips
// the nonce check.
func (v *IDTokenVerifier) Verify(token, nonce string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{
			jwt.SigningMethodRS256.Alg(),
			jwt.SigningMethodES256.Alg(),
			jwt.SigningMethodEdDSA.Alg(),
		}),
		// Time based claims are checked below with our own leeway
		jwt.WithoutClaimsValidation(),
	)

	parsed, err := parser.ParseWithClaims(token, &Claims{}, v.keyFunc)
	if err != nil {
		switch {
		case errors.Is(err, ErrUnknownKID), errors.Is(err, ErrNoKey):
			return nil, err
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrInvalidSig
		default:
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrMalformed
	}

	if err := claims.ValidateIssuer(v.issuer); err != nil {
		return nil, err
	}
	if err := claims.ValidateAudience(v.audience); err != nil {
		return nil, err
	}
	if err := claims.ValidateExpiryWithLeeway(v.now(), v.leeway); err != nil {
		return nil, err
	}
	if err := claims.ValidateNonce(nonce); err != nil {
		return nil, err
	}

	return claims, nil
}

func (v *IDTokenVerifier) keyFunc(t *jwt.Token) (any, error) {
	kid, _ := t.Header["kid"].(string)
	if kid == "" {
		return nil, fmt.Errorf("%w: missing kid header", ErrUnknownKID)
	}

	pub, err := v.keys.Get(kid)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKID, kid)
	}
	return pub, nil
}
