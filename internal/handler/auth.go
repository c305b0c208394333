package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/swing-festival-finder/internal/apperr"
	"github.com/iliyamo/swing-festival-finder/internal/auth"
	"github.com/iliyamo/swing-festival-finder/internal/middleware"
	"github.com/iliyamo/swing-festival-finder/internal/model"
	"github.com/iliyamo/swing-festival-finder/internal/queue"
	"github.com/iliyamo/swing-festival-finder/internal/repository"
	"github.com/iliyamo/swing-festival-finder/internal/response"
)

// UserStore is the account persistence used by AuthHandler.
type UserStore interface {
	Create(ctx context.Context, email, name, password string, cost int) (model.User, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	MarkVerified(ctx context.Context, id uint64) error
}

// TokenStore persists refresh and verification token hashes.
type TokenStore interface {
	StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID uint64) error
	StoreVerification(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	ConsumeVerification(ctx context.Context, tokenHash string) (uint64, error)
}

// AccessIssuer signs and verifies access tokens.
type AccessIssuer interface {
	Issue(u model.SessionUser) (auth.AccessToken, error)
	Parse(raw string) (model.Session, error)
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Users      UserStore
	Tokens     TokenStore
	Access     AccessIssuer
	Queue      queue.Publisher
	Log        *zap.Logger
	BcryptCost int
	RefreshTTL time.Duration
	VerifyTTL  time.Duration
}

type registerReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshReq struct {
	RefreshToken string `json:"refreshToken"`
}

type verifyReq struct {
	Token string `json:"token"`
}

type userPart struct {
	ID       uint64 `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Verified bool   `json:"verified"`
}

type authResp struct {
	User    userPart          `json:"user"`
	Access  auth.AccessToken  `json:"access"`
	Refresh *auth.OpaqueToken `json:"refresh,omitempty"`
}

func toUserPart(u model.User) userPart {
	return userPart{ID: u.ID, Email: u.Email, Name: u.Name, Verified: u.Verified()}
}

func sessionUser(u model.User) model.SessionUser {
	return model.SessionUser{ID: u.ID, Email: u.Email, Verified: u.Verified()}
}

// Register creates an account, returns a token pair and queues the
// verification e-mail.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := bind(c, &req); err != nil {
		return err
	}
	email := repository.NormalizeEmail(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		return apperr.Validation("email", "must be a valid e-mail address")
	}
	if len(req.Password) < auth.MinPasswordLength {
		return apperr.Validation("password", "must be at least 8 characters")
	}

	ctx := c.Request().Context()
	u, err := h.Users.Create(ctx, email, req.Name, req.Password, h.BcryptCost)
	if err != nil {
		return storeErr(err, "user")
	}
	resp, err := h.issuePair(ctx, u)
	if err != nil {
		return err
	}
	h.requestVerification(ctx, u)
	return response.Created(c, resp, "account created")
}

func (h *AuthHandler) requestVerification(ctx context.Context, u model.User) {
	tok, err := auth.NewOpaqueToken(h.VerifyTTL)
	if err == nil {
		err = h.Tokens.StoreVerification(ctx, u.ID, tok.Hash(), tok.Exp)
	}
	if err != nil {
		h.Log.Warn("verification token not created", zap.Uint64("user_id", u.ID), zap.Error(err))
		return
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	_ = h.Queue.Publish(pctx, queue.VerificationRequestedQueue, queue.VerificationRequested{
		UserID:    u.ID,
		Email:     u.Email,
		Token:     tok.Raw,
		ExpiresAt: tok.Exp,
	})
}

// Login verifies credentials and returns a new pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := bind(c, &req); err != nil {
		return err
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return apperr.Validation("email", "email and password are required")
	}

	ctx := c.Request().Context()
	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.Unauthorized("invalid credentials")
		}
		return storeErr(err, "user")
	}
	if !auth.VerifyPassword(u.PasswordHash, req.Password) {
		return apperr.Unauthorized("invalid credentials")
	}
	resp, err := h.issuePair(ctx, u)
	if err != nil {
		return err
	}
	return response.OK(c, resp)
}

// Refresh rotates a refresh token: the old one is revoked and a new pair
// issued.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := bind(c, &req); err != nil {
		return err
	}
	raw := strings.TrimSpace(req.RefreshToken)
	if raw == "" {
		return apperr.Validation("refreshToken", "is required")
	}
	hash := auth.HashToken(raw)

	ctx := c.Request().Context()
	userID, err := h.Tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.Unauthorized("invalid refresh token")
		}
		return storeErr(err, "token")
	}
	// the revoke is the claim: a concurrent rotation of the same token
	// updates no row and is refused
	if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.Unauthorized("invalid refresh token")
		}
		return apperr.Internal(err)
	}
	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.Unauthorized("invalid refresh token")
		}
		return storeErr(err, "user")
	}
	resp, err := h.issuePair(ctx, u)
	if err != nil {
		return err
	}
	return response.OK(c, resp)
}

// Logout revokes the refresh token in the body, or every refresh token of
// the bearer when no body token is sent.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	_ = c.Bind(&req)
	raw := strings.TrimSpace(req.RefreshToken)
	ctx := c.Request().Context()

	if raw != "" {
		hash := auth.HashToken(raw)
		if _, err := h.Tokens.ValidateRefresh(ctx, hash); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperr.Unauthorized("invalid refresh token")
			}
			return storeErr(err, "token")
		}
		if err := h.Tokens.RevokeByHash(ctx, hash); err != nil && !errors.Is(err, repository.ErrNotFound) {
			return apperr.Internal(err)
		}
		return c.NoContent(http.StatusNoContent)
	}

	bearer, ok := middleware.BearerToken(c)
	if !ok {
		return apperr.Validation("refreshToken", "provide a refresh token or an Authorization header")
	}
	s, err := h.Access.Parse(bearer)
	if err != nil {
		return apperr.Unauthorized("invalid token")
	}
	if err := h.Tokens.RevokeAllForUser(ctx, s.User.ID); err != nil {
		return apperr.Internal(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Verify consumes an e-mail verification token and returns a fresh access
// token whose claims include verified=true.
func (h *AuthHandler) Verify(c echo.Context) error {
	var req verifyReq
	if err := bind(c, &req); err != nil {
		return err
	}
	raw := strings.TrimSpace(req.Token)
	if raw == "" {
		return apperr.Validation("token", "is required")
	}

	ctx := c.Request().Context()
	userID, err := h.Tokens.ConsumeVerification(ctx, auth.HashToken(raw))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.Validation("token", "is invalid or expired")
		}
		return storeErr(err, "token")
	}
	if err := h.Users.MarkVerified(ctx, userID); err != nil {
		return apperr.Internal(err)
	}
	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		return storeErr(err, "user")
	}
	access, err := h.Access.Issue(sessionUser(u))
	if err != nil {
		return apperr.Internal(err)
	}
	return response.OK(c, authResp{User: toUserPart(u), Access: access})
}

// Session reports the current session, or null for anonymous callers.
// It never fails with 401.
func (h *AuthHandler) Session(c echo.Context) error {
	s, ok := middleware.SessionFrom(c)
	if !ok {
		return response.OK[*model.Session](c, nil)
	}
	return response.OK(c, &s)
}

func (h *AuthHandler) issuePair(ctx context.Context, u model.User) (authResp, error) {
	access, err := h.Access.Issue(sessionUser(u))
	if err != nil {
		return authResp{}, apperr.Internal(err)
	}
	refresh, err := auth.NewOpaqueToken(h.RefreshTTL)
	if err != nil {
		return authResp{}, apperr.Internal(err)
	}
	if err := h.Tokens.StoreRefresh(ctx, u.ID, refresh.Hash(), refresh.Exp); err != nil {
		return authResp{}, apperr.Internal(err)
	}
	return authResp{User: toUserPart(u), Access: access, Refresh: &refresh}, nil
}
