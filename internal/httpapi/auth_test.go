package httpapi

import (
	"context"
	"testing"
	"time"

	"seaside/backend/internal/domain"
	"seaside/backend/internal/store/memory"
)

func TestLoginMintsDistinctSessionIDs(t *testing.T) {
	auth := NewAuthManager("test-secret", time.Hour, memory.New())

	first, err := auth.Login(domain.LoginRequest{Username: "admin", Password: "admin123"})
	if err != nil {
		t.Fatalf("first login: %v", err)
	}
	second, err := auth.Login(domain.LoginRequest{Username: "admin", Password: "admin123"})
	if err != nil {
		t.Fatalf("second login: %v", err)
	}

	actorA, err := auth.ParseToken(first.AccessToken)
	if err != nil {
		t.Fatalf("parse first: %v", err)
	}
	actorB, err := auth.ParseToken(second.AccessToken)
	if err != nil {
		t.Fatalf("parse second: %v", err)
	}

	if actorA.SessionID == "" || actorB.SessionID == "" {
		t.Fatal("tokens must carry a session id")
	}
	if actorA.SessionID == actorB.SessionID {
		t.Fatal("each login must get its own session id")
	}
	if actorA.Username != "admin" || actorA.Role != "admin" {
		t.Fatalf("actor: got %+v", actorA)
	}
}

func TestParseTokenRejectsForeignSecret(t *testing.T) {
	auth := NewAuthManager("secret-a", time.Hour, memory.New())
	other := NewAuthManager("secret-b", time.Hour, memory.New())

	resp, err := auth.Login(domain.LoginRequest{Username: "admin", Password: "admin123"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if _, err := other.ParseToken(resp.AccessToken); err == nil {
		t.Fatal("token signed with another secret must be rejected")
	}
	if _, err := auth.ParseToken("not-a-token"); err == nil {
		t.Fatal("garbage token must be rejected")
	}
}

func TestBootstrapUpgradesPlaintextPasswords(t *testing.T) {
	repo := memory.New()
	if err := repo.CreateUser(context.Background(), domain.UserAccount{
		Username: "legacy",
		Password: "plain-password",
		Role:     "cashier",
		Active:   true,
	}); err != nil {
		t.Fatalf("create user: %v", err)
	}

	auth := NewAuthManager("test-secret", time.Hour, repo)

	if _, err := auth.Login(domain.LoginRequest{Username: "legacy", Password: "plain-password"}); err != nil {
		t.Fatalf("legacy login: %v", err)
	}

	users, err := repo.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	for _, u := range users {
		if u.Username == "legacy" && !isPasswordHash(u.Password) {
			t.Fatal("stored password must be upgraded to a bcrypt hash")
		}
	}
}

func TestInactiveAccountCannotLogin(t *testing.T) {
	repo := memory.New()
	if err := repo.CreateUser(context.Background(), domain.UserAccount{
		Username: "gone",
		Password: "some-password",
		Role:     "cashier",
		Active:   false,
	}); err != nil {
		t.Fatalf("create user: %v", err)
	}

	auth := NewAuthManager("test-secret", time.Hour, repo)
	if _, err := auth.Login(domain.LoginRequest{Username: "gone", Password: "some-password"}); err == nil {
		t.Fatal("inactive account must not log in")
	}
}
