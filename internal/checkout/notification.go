package checkout

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	dErrors "enroll/pkg/domain-errors"
)

const (
	notificationIssuer   = "enroll"
	notificationAudience = "checkout-webhook"
	// NotificationPath is where the provider posts status changes.
	NotificationPath = "/webhooks/checkout"
)

// NotificationClaims are carried in the webhook URL handed to the provider.
// Kind tells the webhook which reconciler owns the transaction.
type NotificationClaims struct {
	Kind string `json:"kind"`
	jwt.RegisteredClaims
}

// NotificationSigner signs and verifies webhook URL tokens. Tokens do not
// expire: refunds can be reported weeks after checkout.
type NotificationSigner struct {
	signingKey []byte
	baseURL    string
	now        func() time.Time
}

func NewNotificationSigner(signingKey, baseURL string) *NotificationSigner {
	return &NotificationSigner{
		signingKey: []byte(signingKey),
		baseURL:    strings.TrimRight(baseURL, "/"),
		now:        time.Now,
	}
}

// URL returns the signed webhook URL for a payment kind.
func (s *NotificationSigner) URL(kind string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, NotificationClaims{
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(s.now()),
			Issuer:   notificationIssuer,
			Audience: []string{notificationAudience},
			ID:       uuid.NewString(),
		},
	})
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign notification url")
	}
	return s.baseURL + NotificationPath + "?" + url.Values{"token": {signed}}.Encode(), nil
}

// Verify checks a token taken from a webhook call and returns its kind.
func (s *NotificationSigner) Verify(tokenString string) (string, error) {
	if tokenString == "" {
		return "", dErrors.New(dErrors.CodeUnauthorized, "missing notification token")
	}
	claims := &NotificationClaims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	},
		jwt.WithIssuer(notificationIssuer),
		jwt.WithAudience(notificationAudience),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return "", dErrors.New(dErrors.CodeUnauthorized, "notification token signature mismatch")
		}
		return "", dErrors.New(dErrors.CodeUnauthorized, "invalid notification token")
	}
	if !parsed.Valid || claims.Kind == "" {
		return "", dErrors.New(dErrors.CodeUnauthorized, "invalid notification token")
	}
	return claims.Kind, nil
}
