package utils // package utils provides helper functions for token creation and hashing

import (
    "errors"  // sentinel error for any verification failure
    "strconv" // user IDs travel as string subjects inside tokens
    "time"    // expiry arithmetic

    "github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// ErrInvalidToken is returned by DecodeToken for every verification failure:
// bad signature, unexpected signing algorithm or malformed structure.  The
// caller never learns which, so token probing reveals nothing.
var ErrInvalidToken = errors.New("invalid token")

// TokenClaims is the decoded payload of an access or refresh token.  Both
// token kinds share the same shape; only their lifetime differs.  Subject
// is the user ID the token was issued for.
type TokenClaims struct {
    Subject string    // "sub" claim: user ID as a decimal string
    Exp     time.Time // "exp" claim: UTC expiry (zero when absent)
}

// Expired reports whether the claims are past their expiry at the given
// instant.  A token without an exp claim counts as expired.  DecodeToken
// deliberately does not enforce expiry itself: the check is the caller's
// explicit, separate step so that every call site treats expiry the same
// way instead of half of them trusting the decoder.
func (c TokenClaims) Expired(now time.Time) bool {
    return c.Exp.IsZero() || c.Exp.Before(now)
}

// NewAccessToken builds and signs a short-lived HS256 JWT for a user.  It
// takes the signing secret, the user ID and a TTL in minutes, and returns
// the serialized token together with its expiry.
func NewAccessToken(secret string, userID uint64, ttlMin int) (string, time.Time, error) {
    exp := time.Now().UTC().Add(time.Duration(ttlMin) * time.Minute)
    signed, err := signToken(secret, userID, exp)
    return signed, exp, err
}

// NewRefreshToken is the long-lived counterpart of NewAccessToken.  The
// token carries the same claim shape; ttlDays controls how many days it
// stays valid.  Refresh tokens are not persisted server-side: the cookie
// is the only copy and the signature is the only proof of authenticity.
func NewRefreshToken(secret string, userID uint64, ttlDays int) (string, time.Time, error) {
    exp := time.Now().UTC().Add(time.Duration(ttlDays) * 24 * time.Hour)
    signed, err := signToken(secret, userID, exp)
    return signed, exp, err
}

// signToken encodes {sub, exp, iat} and signs with HS256.
func signToken(secret string, userID uint64, exp time.Time) (string, error) {
    claims := jwt.MapClaims{
        "sub": strconv.FormatUint(userID, 10),
        "exp": exp.Unix(),
        "iat": time.Now().UTC().Unix(),
    }
    t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
    return t.SignedString([]byte(secret))
}

// DecodeToken checks the signature and algorithm of a serialized token and
// returns its claims.  Expiry is NOT validated here; see TokenClaims.Expired.
// Any failure collapses into ErrInvalidToken.
func DecodeToken(secret, raw string) (TokenClaims, error) {
    // WithoutClaimsValidation skips the library's automatic exp check so the
    // caller-owned expiry step stays the single source of truth.
    parser := jwt.NewParser(jwt.WithoutClaimsValidation())
    tok, err := parser.Parse(raw, func(t *jwt.Token) (interface{}, error) {
        // Reject tokens signed with anything but HMAC; an attacker must not
        // be able to downgrade the algorithm.
        if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, ErrInvalidToken
        }
        return []byte(secret), nil
    })
    if err != nil || !tok.Valid {
        return TokenClaims{}, ErrInvalidToken
    }
    mc, ok := tok.Claims.(jwt.MapClaims)
    if !ok {
        return TokenClaims{}, ErrInvalidToken
    }

    var out TokenClaims
    switch sub := mc["sub"].(type) {
    case string:
        out.Subject = sub
    case float64:
        // Tolerate numeric subjects from older token batches.
        out.Subject = strconv.FormatUint(uint64(sub), 10)
    }
    if exp, ok := mc["exp"].(float64); ok {
        out.Exp = time.Unix(int64(exp), 0).UTC()
    }
    return out, nil
}
