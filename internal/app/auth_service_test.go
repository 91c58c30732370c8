package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"knowledge-assistant/internal/model"
	"knowledge-assistant/internal/pkg/jwtutil"
)

type mockUserRepo struct {
	createFunc        func(user *model.User) error
	getByIDFunc       func(id uint) (*model.User, error)
	getByUsernameFunc func(username string) (*model.User, error)
	getByEmailFunc    func(email string) (*model.User, error)
}

func (m *mockUserRepo) Create(user *model.User) error {
	return m.createFunc(user)
}

func (m *mockUserRepo) GetByID(id uint) (*model.User, error) {
	if m.getByIDFunc == nil {
		return nil, nil
	}
	return m.getByIDFunc(id)
}

func (m *mockUserRepo) GetByUsername(username string) (*model.User, error) {
	if m.getByUsernameFunc == nil {
		return nil, nil
	}
	return m.getByUsernameFunc(username)
}

func (m *mockUserRepo) GetByEmail(email string) (*model.User, error) {
	if m.getByEmailFunc == nil {
		return nil, nil
	}
	return m.getByEmailFunc(email)
}

func TestAuthServiceRegister(t *testing.T) {
	var created *model.User
	repo := &mockUserRepo{
		createFunc: func(user *model.User) error {
			user.ID = 3
			created = user
			return nil
		},
	}
	svc := NewAuthService(repo, "secret", time.Hour)

	result, err := svc.Register(RegisterInput{
		Username: "  alice  ",
		Email:    "Alice@Example.COM",
		Password: "correct-horse",
	})
	require.NoError(t, err)

	require.NotNil(t, created)
	assert.Equal(t, "alice", created.Username)
	assert.Equal(t, "alice@example.com", created.Email, "email is normalized to lower case")
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte("correct-horse")))

	// The issued token carries the new account's identity.
	claims, err := jwtutil.ParseToken("secret", result.Token)
	require.NoError(t, err)
	assert.Equal(t, uint(3), claims.UserID)
	assert.Equal(t, "alice", claims.Username)
}

func TestAuthServiceRegisterValidatesInput(t *testing.T) {
	svc := NewAuthService(&mockUserRepo{}, "secret", time.Hour)

	cases := []RegisterInput{
		{Username: "", Email: "a@b.c", Password: "long-enough"},
		{Username: "alice", Email: "", Password: "long-enough"},
		{Username: "alice", Email: "a@b.c", Password: "short"},
	}
	for _, input := range cases {
		_, err := svc.Register(input)
		assert.ErrorIs(t, err, ErrInvalidInput)
	}
}

func TestAuthServiceRegisterRejectsDuplicates(t *testing.T) {
	taken := &model.User{ID: 1, Username: "alice", Email: "alice@example.com"}

	svc := NewAuthService(&mockUserRepo{
		getByUsernameFunc: func(string) (*model.User, error) { return taken, nil },
	}, "secret", time.Hour)
	_, err := svc.Register(RegisterInput{Username: "alice", Email: "new@example.com", Password: "long-enough"})
	assert.ErrorIs(t, err, ErrUsernameExists)

	svc = NewAuthService(&mockUserRepo{
		getByEmailFunc: func(string) (*model.User, error) { return taken, nil },
	}, "secret", time.Hour)
	_, err = svc.Register(RegisterInput{Username: "bob", Email: "alice@example.com", Password: "long-enough"})
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestAuthServiceLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	require.NoError(t, err)
	stored := &model.User{ID: 7, Username: "alice", PasswordHash: string(hash)}

	svc := NewAuthService(&mockUserRepo{
		getByUsernameFunc: func(username string) (*model.User, error) {
			if username == "alice" {
				return stored, nil
			}
			return nil, nil
		},
	}, "secret", time.Hour)

	result, err := svc.Login(LoginInput{Username: "alice", Password: "correct-horse"})
	require.NoError(t, err)
	claims, err := jwtutil.ParseToken("secret", result.Token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)

	// Wrong password and unknown user collapse into the same error.
	_, err = svc.Login(LoginInput{Username: "alice", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredential)
	_, err = svc.Login(LoginInput{Username: "nobody", Password: "correct-horse"})
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestAuthServiceGetUserByID(t *testing.T) {
	stored := &model.User{ID: 9, Username: "alice"}
	svc := NewAuthService(&mockUserRepo{
		getByIDFunc: func(id uint) (*model.User, error) {
			if id == stored.ID {
				return stored, nil
			}
			return nil, nil
		},
	}, "secret", time.Hour)

	user, err := svc.GetUserByID(9)
	require.NoError(t, err)
	assert.Equal(t, stored, user)

	user, err = svc.GetUserByID(123)
	require.NoError(t, err)
	assert.Nil(t, user)

	_, err = svc.GetUserByID(0)
	assert.ErrorIs(t, err, ErrInvalidInput)
}
