package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

// Service wraps the login rules of the console.
type Service struct {
	gw     Gateway
	logger *slog.Logger
	now    func() time.Time
}

// NewService constructs a new Service.
func NewService(gw Gateway, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{gw: gw, logger: logger, now: time.Now}
}

// Authenticate exchanges username and password for backend credentials. The
// token is not verified here; its exp claim only bounds the session.
func (s *Service) Authenticate(ctx context.Context, req LoginRequest) (shared.Credentials, error) {
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return shared.Credentials{}, shared.Validation("username and password are required")
	}
	res, err := s.gw.Login(ctx, req)
	if err != nil {
		if errors.Is(err, shared.ErrConflict) || errors.Is(err, shared.ErrNotFound) {
			err = &shared.Error{Kind: shared.ErrUnauthorized, Message: shared.Reason(err, "")}
		}
		return shared.Credentials{}, fmt.Errorf("login: %w", err)
	}

	creds := shared.Credentials{Token: res.Token, Username: res.Username, Role: res.Role}
	claims, err := parseClaims(res.Token)
	if err != nil {
		s.logger.Debug("backend token is not a readable jwt", slog.Any("error", err))
	} else {
		if exp, _ := claims.GetExpirationTime(); exp != nil {
			creds.ExpiresAt = exp.Time
		}
		if creds.Username == "" {
			creds.Username, _ = claims.GetSubject()
		}
	}
	if creds.Username == "" {
		creds.Username = req.Username
	}
	if !creds.Valid(s.now()) {
		return shared.Credentials{}, &shared.Error{Kind: shared.ErrUnauthorized, Message: "backend issued an expired token"}
	}
	return creds, nil
}

func parseClaims(token string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, err
	}
	return claims, nil
}
