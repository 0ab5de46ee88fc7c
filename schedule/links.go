package schedule

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidLinkToken signals a link token that failed verification.
var ErrInvalidLinkToken = errors.New("schedule: invalid link token")

// LinkClaims is what a verified link token carries.
type LinkClaims struct {
	CoupleID string
	Scope    string
	Purpose  string
}

const (
	PurposeQuestionnaire = "questionnaire"
	PurposePartnerInvite = "partner_invite"
)

// LinkSigner builds the signed URLs embedded in scheduled emails. Links are
// HS256 tokens so the portal can verify them without a datastore round trip.
type LinkSigner struct {
	secret  []byte
	baseURL string
	ttl     time.Duration
	now     func() time.Time
}

// NewLinkSigner creates a signer rooted at baseURL. Links stay valid for 60
// days, comfortably longer than the gap between any two program events.
func NewLinkSigner(secret, baseURL string) *LinkSigner {
	return &LinkSigner{
		secret:  []byte(secret),
		baseURL: baseURL,
		ttl:     60 * 24 * time.Hour,
		now:     time.Now,
	}
}

func (s *LinkSigner) WithClock(now func() time.Time) *LinkSigner {
	s.now = now
	return s
}

// QuestionnaireURL returns the personal questionnaire link for one partner.
func (s *LinkSigner) QuestionnaireURL(coupleID, scope string) (string, error) {
	return s.signedURL("/questionnaire", coupleID, scope, PurposeQuestionnaire)
}

// PartnerInviteURL returns the link the second partner uses to join.
func (s *LinkSigner) PartnerInviteURL(coupleID string) (string, error) {
	return s.signedURL("/join", coupleID, "partner2", PurposePartnerInvite)
}

func (s *LinkSigner) signedURL(path, coupleID, scope, purpose string) (string, error) {
	if coupleID == "" {
		return "", fmt.Errorf("schedule: link missing couple id")
	}

	now := s.now()
	claims := jwt.MapClaims{
		"couple_id": coupleID,
		"scope":     scope,
		"purpose":   purpose,
		"iat":       now.Unix(),
		"exp":       now.Add(s.ttl).Unix(),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("schedule: sign link: %w", err)
	}

	return s.baseURL + path + "?token=" + url.QueryEscape(token), nil
}

// Verify parses and validates a link token, returning its claims.
func (s *LinkSigner) Verify(tokenString string) (LinkClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return LinkClaims{}, fmt.Errorf("%w: %v", ErrInvalidLinkToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return LinkClaims{}, ErrInvalidLinkToken
	}

	coupleID, ok := claims["couple_id"].(string)
	if !ok || coupleID == "" {
		return LinkClaims{}, ErrInvalidLinkToken
	}
	scope, _ := claims["scope"].(string)
	purpose, _ := claims["purpose"].(string)

	return LinkClaims{CoupleID: coupleID, Scope: scope, Purpose: purpose}, nil
}
