package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestService_RegisterAndLogin(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, "test-secret")

	req := RegisterRequest{
		Email:    "dispatch@example.com",
		Password: "supersafe",
		FullName: "Dana Dispatcher",
	}

	ctx := context.Background()
	op, err := svc.Register(ctx, req)
	if err != nil {
		t.Fatalf("register: unexpected error: %v", err)
	}

	if op.Email != req.Email {
		t.Fatalf("expected email %q got %q", req.Email, op.Email)
	}
	if op.Role != RoleDispatcher {
		t.Fatalf("register: expected default role %s got %s", RoleDispatcher, op.Role)
	}

	resp, err := svc.Login(ctx, LoginRequest{Email: req.Email, Password: req.Password})
	if err != nil {
		t.Fatalf("login: unexpected error: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("login: expected token, got empty string")
	}
	if resp.Operator.ID != op.ID {
		t.Fatalf("login: expected operator id %q got %q", op.ID, resp.Operator.ID)
	}

	tokenOperatorID, tokenRole, err := svc.VerifyToken(resp.Token)
	if err != nil {
		t.Fatalf("verify token: %v", err)
	}
	if tokenOperatorID != op.ID {
		t.Fatalf("verify token: expected %q got %q", op.ID, tokenOperatorID)
	}
	if tokenRole != RoleDispatcher {
		t.Fatalf("verify token: expected role %s got %s", RoleDispatcher, tokenRole)
	}
}

func TestService_RegisterValidation(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, "test-secret")

	_, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "dispatch@example.com",
		Password: "short",
		FullName: "Dana Dispatcher",
	})
	if !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}

	if _, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "",
		Password: "strongpassword",
		FullName: "",
	}); err == nil {
		t.Fatal("expected validation error for missing fields")
	}

	if _, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "dispatch@example.com",
		Password: "strongpassword",
		FullName: "Dana Dispatcher",
		Role:     Role("superuser"),
	}); err == nil {
		t.Fatal("expected validation error for unknown role")
	}
}

func TestService_DuplicateEmail(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, "test-secret")

	req := RegisterRequest{
		Email:    "dispatch@example.com",
		Password: "strongpassword",
		FullName: "Dana Dispatcher",
	}
	if _, err := svc.Register(context.Background(), req); err != nil {
		t.Fatalf("first register failed: %v", err)
	}

	if _, err := svc.Register(context.Background(), req); !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestService_LoginInvalidCredentials(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, "test-secret")

	_, err := svc.Login(context.Background(), LoginRequest{
		Email:    "unknown@example.com",
		Password: "irrelevant",
	})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	if _, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "dispatch@example.com",
		Password: "strongpassword",
		FullName: "Dana Dispatcher",
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, err = svc.Login(context.Background(), LoginRequest{
		Email:    "dispatch@example.com",
		Password: "wrongpassword",
	})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for bad password, got %v", err)
	}
}

func TestService_VerifyTokenRejectsGarbage(t *testing.T) {
	svc := NewService(newFakeRepository(), "test-secret")

	if _, _, err := svc.VerifyToken("not-a-token"); err == nil {
		t.Fatal("expected error for malformed token")
	}

	other := NewService(newFakeRepository(), "other-secret")
	token, err := other.generateToken("op-1", RoleAdmin)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	if _, _, err := svc.VerifyToken(token); err == nil {
		t.Fatal("expected error for token signed with a different secret")
	}
}

type fakeRepository struct {
	byEmail map[string]Operator
	nextID  int
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		byEmail: make(map[string]Operator),
		nextID:  1,
	}
}

func (f *fakeRepository) CreateOperator(ctx context.Context, params CreateOperatorParams) (Operator, error) {
	if _, exists := f.byEmail[strings.ToLower(params.Email)]; exists {
		return Operator{}, ErrDuplicateEmail
	}

	id := fmt.Sprintf("op-%d", f.nextID)
	f.nextID++

	op := Operator{
		ID:           id,
		Email:        params.Email,
		FullName:     params.FullName,
		PasswordHash: params.PasswordHash,
		Role:         params.Role,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}

	f.byEmail[strings.ToLower(op.Email)] = op
	return op, nil
}

func (f *fakeRepository) GetOperatorByEmail(ctx context.Context, email string) (Operator, error) {
	op, ok := f.byEmail[strings.ToLower(email)]
	if !ok {
		return Operator{}, ErrOperatorNotFound
	}
	return op, nil
}
