package plaid

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/plaid/plaid-go/v12/plaid"
	"go.uber.org/zap"
)

const (
	VerificationHeader = "Plaid-Verification"

	maxWebhookAge = 5 * time.Minute
	// Cached keys are re-fetched after this long so an expiry set by Plaid
	// is picked up.
	keyCacheTTL = time.Hour
)

type cachedKey struct {
	key       plaid.JWKPublicKey
	fetchedAt time.Time
}

var now = time.Now

// VerifyWebhook checks the ES256 JWT carried in the Plaid-Verification header
// and that it signs the SHA-256 of the raw body.
func (p *Plaid) VerifyWebhook(ctx context.Context, body []byte, headers http.Header) (bool, error) {
	token, parts, err := new(jwt.Parser).ParseUnverified(headers.Get(VerificationHeader), jwt.MapClaims{})
	if err != nil {
		p.logger.Warn("verify webhook: parse token failed", zap.Error(err))
		return false, err
	}
	if token.Method.Alg() != jwt.SigningMethodES256.Alg() {
		return false, fmt.Errorf("verify webhook: unexpected alg %s", token.Method.Alg())
	}

	kid, ok := token.Header["kid"].(string)
	if !ok || kid == "" {
		return false, errors.New("verify webhook: missing kid")
	}

	key, err := p.verificationKey(ctx, kid)
	if err != nil {
		p.logger.Error("verify webhook: get verification key failed", zap.String("kid", kid), zap.Error(err))
		return false, err
	}
	if key.ExpiredAt.Get() != nil {
		return false, nil
	}

	publicKey, err := createPublicKey(key)
	if err != nil {
		return false, err
	}
	if err := jwt.SigningMethodES256.Verify(parts[0]+"."+parts[1], parts[2], publicKey); err != nil {
		p.logger.Warn("verify webhook: signature mismatch", zap.String("kid", kid))
		return false, nil
	}

	claims := token.Claims.(jwt.MapClaims)
	iat, ok := claims["iat"].(float64)
	if !ok || now().Sub(time.Unix(int64(iat), 0)) > maxWebhookAge {
		return false, nil
	}

	bodyHash, _ := claims["request_body_sha256"].(string)
	sum := sha256.Sum256(body)
	return subtle.ConstantTimeCompare([]byte(hex.EncodeToString(sum[:])), []byte(bodyHash)) == 1, nil
}

func (p *Plaid) verificationKey(ctx context.Context, kid string) (plaid.JWKPublicKey, error) {
	p.mu.Lock()
	cached, found := p.keyCache[kid]
	p.mu.Unlock()
	if found && now().Sub(cached.fetchedAt) < keyCacheTTL {
		return cached.key, nil
	}

	req := plaid.NewWebhookVerificationKeyGetRequest(kid)
	resp, _, err := p.client.PlaidApi.WebhookVerificationKeyGet(ctx).WebhookVerificationKeyGetRequest(*req).Execute()
	if err != nil {
		return plaid.JWKPublicKey{}, err
	}
	key := resp.GetKey()

	p.mu.Lock()
	p.keyCache[kid] = cachedKey{key: key, fetchedAt: now()}
	p.mu.Unlock()
	return key, nil
}

func createPublicKey(key plaid.JWKPublicKey) (*ecdsa.PublicKey, error) {
	x, err := base64.RawURLEncoding.DecodeString(key.X)
	if err != nil {
		return nil, fmt.Errorf("verify webhook: decode x: %w", err)
	}
	y, err := base64.RawURLEncoding.DecodeString(key.Y)
	if err != nil {
		return nil, fmt.Errorf("verify webhook: decode y: %w", err)
	}
	return &ecdsa.PublicKey{
		Curve: elliptic.P256(),
		X:     new(big.Int).SetBytes(x),
		Y:     new(big.Int).SetBytes(y),
	}, nil
}
