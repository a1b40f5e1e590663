package handler_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"golang.org/x/crypto/bcrypt"

	"github.com/nueats/api/internal/auth"
	"github.com/nueats/api/internal/database"
	"github.com/nueats/api/internal/enum"
	"github.com/nueats/api/internal/handler"
	"github.com/nueats/api/internal/middleware"
	"github.com/nueats/api/internal/rolecache"
)

type mockAuthStore struct {
	getProfileByEmailFn     func(ctx context.Context, email string) (database.Profile, error)
	getProfileFn            func(ctx context.Context, id uuid.UUID) (database.Profile, error)
	updateProfilePasswordFn func(ctx context.Context, arg database.UpdateProfilePasswordParams) error
}

func (m *mockAuthStore) GetProfileByEmail(ctx context.Context, email string) (database.Profile, error) {
	if m.getProfileByEmailFn != nil {
		return m.getProfileByEmailFn(ctx, email)
	}
	return database.Profile{}, pgx.ErrNoRows
}

func (m *mockAuthStore) GetProfile(ctx context.Context, id uuid.UUID) (database.Profile, error) {
	if m.getProfileFn != nil {
		return m.getProfileFn(ctx, id)
	}
	return database.Profile{}, pgx.ErrNoRows
}

func (m *mockAuthStore) UpdateProfilePassword(ctx context.Context, arg database.UpdateProfilePasswordParams) error {
	if m.updateProfilePasswordFn != nil {
		return m.updateProfilePasswordFn(ctx, arg)
	}
	return nil
}

func newAuthRouter(store handler.AuthStore, roles *rolecache.Cache) http.Handler {
	h := handler.NewAuthHandler(store, roles, testJWTSecret)
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(testJWTSecret))
		h.RegisterProtectedRoutes(r)
	})
	return r
}

func testAdminProfile(t *testing.T, password string) database.Profile {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return database.Profile{
		ID:             uuid.New(),
		FullName:       "Dashboard Admin",
		Email:          pgtype.Text{String: "admin@nueats.ph", Valid: true},
		Role:           enum.RoleAdmin,
		HashedPassword: pgtype.Text{String: string(hashed), Valid: true},
	}
}

func TestLogin_Success(t *testing.T) {
	profile := testAdminProfile(t, "correct horse")
	roles := rolecache.New(0, nil)

	store := &mockAuthStore{
		getProfileByEmailFn: func(ctx context.Context, email string) (database.Profile, error) {
			if email != "admin@nueats.ph" {
				return database.Profile{}, pgx.ErrNoRows
			}
			return profile, nil
		},
	}

	router := newAuthRouter(store, roles)
	rr := doRequest(t, router, http.MethodPost, "/auth/login", map[string]string{
		"email":    "admin@nueats.ph",
		"password": "correct horse",
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200, body %s", rr.Code, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	if resp["access_token"] == "" || resp["access_token"] == nil {
		t.Error("missing access_token")
	}
	if resp["refresh_token"] == "" || resp["refresh_token"] == nil {
		t.Error("missing refresh_token")
	}

	if role, ok := roles.Get(profile.ID); !ok || role != enum.RoleAdmin {
		t.Errorf("role cache should hold the signed-in role, got %q ok=%v", role, ok)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	profile := testAdminProfile(t, "correct horse")

	store := &mockAuthStore{
		getProfileByEmailFn: func(ctx context.Context, email string) (database.Profile, error) {
			return profile, nil
		},
	}

	router := newAuthRouter(store, rolecache.New(0, nil))
	rr := doRequest(t, router, http.MethodPost, "/auth/login", map[string]string{
		"email":    "admin@nueats.ph",
		"password": "battery staple",
	})

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want 401", rr.Code)
	}
}

func TestLogin_UnknownEmail(t *testing.T) {
	router := newAuthRouter(&mockAuthStore{}, rolecache.New(0, nil))
	rr := doRequest(t, router, http.MethodPost, "/auth/login", map[string]string{
		"email":    "nobody@nueats.ph",
		"password": "whatever",
	})

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want 401", rr.Code)
	}
}

func TestLogin_CustomerAccountForbidden(t *testing.T) {
	profile := testAdminProfile(t, "correct horse")
	profile.Role = enum.RoleCustomer

	store := &mockAuthStore{
		getProfileByEmailFn: func(ctx context.Context, email string) (database.Profile, error) {
			return profile, nil
		},
	}

	router := newAuthRouter(store, rolecache.New(0, nil))
	rr := doRequest(t, router, http.MethodPost, "/auth/login", map[string]string{
		"email":    "admin@nueats.ph",
		"password": "correct horse",
	})

	if rr.Code != http.StatusForbidden {
		t.Fatalf("status: got %d, want 403", rr.Code)
	}
}

func TestRefresh_RoundTrip(t *testing.T) {
	profile := testAdminProfile(t, "correct horse")

	refreshToken, err := auth.GenerateRefreshToken(testJWTSecret, profile.ID)
	if err != nil {
		t.Fatalf("generate refresh token: %v", err)
	}

	store := &mockAuthStore{
		getProfileFn: func(ctx context.Context, id uuid.UUID) (database.Profile, error) {
			if id != profile.ID {
				return database.Profile{}, pgx.ErrNoRows
			}
			return profile, nil
		},
	}

	router := newAuthRouter(store, rolecache.New(0, nil))
	rr := doRequest(t, router, http.MethodPost, "/auth/refresh", map[string]string{
		"refresh_token": refreshToken,
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200, body %s", rr.Code, rr.Body.String())
	}
}

func TestRefresh_GarbageToken(t *testing.T) {
	router := newAuthRouter(&mockAuthStore{}, rolecache.New(0, nil))
	rr := doRequest(t, router, http.MethodPost, "/auth/refresh", map[string]string{
		"refresh_token": "not.a.token",
	})

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want 401", rr.Code)
	}
}

func TestLogout_ClearsRoleCache(t *testing.T) {
	profile := testAdminProfile(t, "correct horse")
	roles := rolecache.New(0, nil)
	roles.Set(profile.ID, profile.Role)

	router := newAuthRouter(&mockAuthStore{}, roles)
	claims := &auth.Claims{UserID: profile.ID, Role: profile.Role}
	rr := doAuthRequest(t, router, http.MethodPost, "/auth/logout", nil, claims)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	if _, ok := roles.Get(profile.ID); ok {
		t.Error("role cache should be empty after sign-out")
	}
}

func TestChangePassword_Success(t *testing.T) {
	profile := testAdminProfile(t, "old password")
	var savedHash string

	store := &mockAuthStore{
		getProfileFn: func(ctx context.Context, id uuid.UUID) (database.Profile, error) {
			return profile, nil
		},
		updateProfilePasswordFn: func(ctx context.Context, arg database.UpdateProfilePasswordParams) error {
			savedHash = arg.HashedPassword
			return nil
		},
	}

	router := newAuthRouter(store, rolecache.New(0, nil))
	claims := &auth.Claims{UserID: profile.ID, Role: profile.Role}
	rr := doAuthRequest(t, router, http.MethodPost, "/auth/change-password", map[string]string{
		"current_password": "old password",
		"new_password":     "brand new password",
	}, claims)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200, body %s", rr.Code, rr.Body.String())
	}
	if savedHash == "" {
		t.Fatal("new password hash was never stored")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(savedHash), []byte("brand new password")); err != nil {
		t.Errorf("stored hash does not match new password: %v", err)
	}
}

func TestChangePassword_WrongCurrentPassword(t *testing.T) {
	profile := testAdminProfile(t, "old password")

	store := &mockAuthStore{
		getProfileFn: func(ctx context.Context, id uuid.UUID) (database.Profile, error) {
			return profile, nil
		},
	}

	router := newAuthRouter(store, rolecache.New(0, nil))
	claims := &auth.Claims{UserID: profile.ID, Role: profile.Role}
	rr := doAuthRequest(t, router, http.MethodPost, "/auth/change-password", map[string]string{
		"current_password": "wrong guess",
		"new_password":     "brand new password",
	}, claims)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want 401", rr.Code)
	}
}

func TestChangePassword_TooShort(t *testing.T) {
	profile := testAdminProfile(t, "old password")

	router := newAuthRouter(&mockAuthStore{}, rolecache.New(0, nil))
	claims := &auth.Claims{UserID: profile.ID, Role: profile.Role}
	rr := doAuthRequest(t, router, http.MethodPost, "/auth/change-password", map[string]string{
		"current_password": "old password",
		"new_password":     "short",
	}, claims)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", rr.Code)
	}
}
