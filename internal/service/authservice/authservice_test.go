package authservice

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	gomock "go.uber.org/mock/gomock"

	"github.com/GlebRadaev/venuebooking/internal/domain"
	"github.com/GlebRadaev/venuebooking/internal/pg"
	"github.com/GlebRadaev/venuebooking/internal/service/balanceservice"
	"github.com/GlebRadaev/venuebooking/pkg/auth"
	"github.com/GlebRadaev/venuebooking/pkg/notify"
)

type mocks struct {
	repo     *MockRepo
	ledger   *MockLedger
	hash     *auth.MockHashServiceInterface
	jwt      *auth.MockJWTServiceInterface
	notifier *notify.MockNotifier
}

func NewMock(t *testing.T) (*Service, *mocks) {
	ctrl := gomock.NewController(t)
	m := &mocks{
		repo:     NewMockRepo(ctrl),
		ledger:   NewMockLedger(ctrl),
		hash:     auth.NewMockHashServiceInterface(ctrl),
		jwt:      auth.NewMockJWTServiceInterface(ctrl),
		notifier: notify.NewMockNotifier(ctrl),
	}
	txManager := pg.NewMockTXManager(ctrl)
	txManager.EXPECT().Begin(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, fn pg.TransactionalFn) error {
			return fn(ctx)
		}).AnyTimes()

	service := New(m.repo, m.ledger, m.hash, m.jwt, m.notifier, txManager, Options{
		TokenTTL:  time.Hour,
		VerifyURL: "http://localhost:5173/verify-email",
	})
	return service, m
}

func TestRegister(t *testing.T) {
	service, m := NewMock(t)

	tests := []struct {
		name          string
		profile       domain.User
		password      string
		prepareMock   func()
		expectedUser  *domain.User
		expectedError error
	}{
		{
			name:     "Successful registration with default balance",
			profile:  domain.User{Name: "Ali", Email: "Ali@Example.com"},
			password: "secret1",
			prepareMock: func() {
				m.repo.EXPECT().FindByEmail(gomock.Any(), "ali@example.com").Return(nil, nil)
				m.hash.EXPECT().HashPassword("secret1").Return("hashed", nil)
				m.repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, user *domain.User) (*domain.User, error) {
					user.ID = 1
					return user, nil
				})
				m.ledger.EXPECT().Open(gomock.Any(), 1, float64(DefaultBalance)).Return(nil)
				m.jwt.EXPECT().GenerateJWT(1, domain.RoleUser, auth.PurposeVerify, gomock.Any()).Return("vtoken", nil)
				m.notifier.EXPECT().Notify(gomock.Any(), notify.KeyVerifyEmail, gomock.Any()).Do(
					func(_ context.Context, _ string, msg notify.Message) {
						assert.Equal(t, "ali@example.com", msg.To)
						assert.True(t, strings.Contains(msg.Body, "verify-email?token=vtoken"))
					})
			},
			expectedUser: &domain.User{
				ID:           1,
				Name:         "Ali",
				Email:        "ali@example.com",
				PasswordHash: "hashed",
				Balance:      DefaultBalance,
				Role:         domain.RoleUser,
			},
		},
		{
			name:     "Registration with explicit balance and role",
			profile:  domain.User{Name: "Admin", Email: "admin@example.com", Balance: 10000, Role: domain.RoleAdmin},
			password: "secret1",
			prepareMock: func() {
				m.repo.EXPECT().FindByEmail(gomock.Any(), "admin@example.com").Return(nil, nil)
				m.hash.EXPECT().HashPassword("secret1").Return("hashed", nil)
				m.repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, user *domain.User) (*domain.User, error) {
					user.ID = 2
					return user, nil
				})
				m.ledger.EXPECT().Open(gomock.Any(), 2, 10000.0).Return(nil)
				m.jwt.EXPECT().GenerateJWT(2, domain.RoleAdmin, auth.PurposeVerify, gomock.Any()).Return("", errors.New("sign error"))
			},
			expectedUser: &domain.User{
				ID:           2,
				Name:         "Admin",
				Email:        "admin@example.com",
				PasswordHash: "hashed",
				Balance:      10000,
				Role:         domain.RoleAdmin,
			},
		},
		{
			name:     "User already exists",
			profile:  domain.User{Name: "Ali", Email: "ali@example.com"},
			password: "secret1",
			prepareMock: func() {
				m.repo.EXPECT().FindByEmail(gomock.Any(), "ali@example.com").Return(&domain.User{ID: 1}, nil)
			},
			expectedError: ErrUserExists,
		},
		{
			name:          "Invalid email",
			profile:       domain.User{Name: "Ali", Email: "not-an-email"},
			password:      "secret1",
			prepareMock:   func() {},
			expectedError: ErrValidation,
		},
		{
			name:          "Invalid role",
			profile:       domain.User{Name: "Ali", Email: "ali@example.com", Role: "root"},
			password:      "secret1",
			prepareMock:   func() {},
			expectedError: ErrValidation,
		},
		{
			name:     "Weak password",
			profile:  domain.User{Name: "Ali", Email: "ali@example.com"},
			password: "123",
			prepareMock: func() {
				m.repo.EXPECT().FindByEmail(gomock.Any(), "ali@example.com").Return(nil, nil)
				m.hash.EXPECT().HashPassword("123").Return("", auth.ErrWeakPassword)
			},
			expectedError: ErrValidation,
		},
		{
			name:     "Ledger open fails",
			profile:  domain.User{Name: "Ali", Email: "ali@example.com"},
			password: "secret1",
			prepareMock: func() {
				m.repo.EXPECT().FindByEmail(gomock.Any(), "ali@example.com").Return(nil, nil)
				m.hash.EXPECT().HashPassword("secret1").Return("hashed", nil)
				m.repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, user *domain.User) (*domain.User, error) {
					user.ID = 3
					return user, nil
				})
				m.ledger.EXPECT().Open(gomock.Any(), 3, float64(DefaultBalance)).Return(errors.New("db error"))
			},
			expectedError: errors.New("db error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()

			user, err := service.Register(context.Background(), tt.profile, tt.password)
			if tt.expectedError != nil {
				assert.Error(t, err)
				if errors.Is(tt.expectedError, ErrValidation) || errors.Is(tt.expectedError, ErrUserExists) {
					assert.ErrorIs(t, err, tt.expectedError)
				} else {
					assert.Equal(t, tt.expectedError.Error(), err.Error())
				}
				assert.Nil(t, user)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expectedUser, user)
		})
	}
}

func TestAuthenticate(t *testing.T) {
	service, m := NewMock(t)

	tests := []struct {
		name          string
		email         string
		password      string
		prepareMock   func()
		expectedUser  *domain.User
		expectedError error
	}{
		{
			name:     "Successful authentication",
			email:    "ali@example.com",
			password: "secret1",
			prepareMock: func() {
				m.repo.EXPECT().FindByEmail(gomock.Any(), "ali@example.com").Return(&domain.User{ID: 1, PasswordHash: "hashed"}, nil)
				m.hash.EXPECT().ComparePassword("hashed", "secret1").Return(true)
			},
			expectedUser: &domain.User{ID: 1, PasswordHash: "hashed"},
		},
		{
			name:     "Unknown email",
			email:    "nobody@example.com",
			password: "secret1",
			prepareMock: func() {
				m.repo.EXPECT().FindByEmail(gomock.Any(), "nobody@example.com").Return(nil, nil)
			},
			expectedError: ErrInvalidCredentials,
		},
		{
			name:     "Wrong password",
			email:    "ali@example.com",
			password: "wrong",
			prepareMock: func() {
				m.repo.EXPECT().FindByEmail(gomock.Any(), "ali@example.com").Return(&domain.User{ID: 1, PasswordHash: "hashed"}, nil)
				m.hash.EXPECT().ComparePassword("hashed", "wrong").Return(false)
			},
			expectedError: ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()

			user, err := service.Authenticate(context.Background(), tt.email, tt.password)
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expectedUser, user)
		})
	}
}

func TestGenerateToken(t *testing.T) {
	service, m := NewMock(t)
	user := &domain.User{ID: 1, Role: domain.RoleAdmin}

	m.jwt.EXPECT().GenerateJWT(1, domain.RoleAdmin, auth.PurposeAccess, gomock.Any()).Return("token", nil)
	token, err := service.GenerateToken(user)
	assert.NoError(t, err)
	assert.Equal(t, "token", token)

	m.jwt.EXPECT().GenerateJWT(1, domain.RoleAdmin, auth.PurposeAccess, gomock.Any()).Return("", errors.New("sign error"))
	_, err = service.GenerateToken(user)
	assert.Error(t, err)
}

func TestVerify(t *testing.T) {
	service, m := NewMock(t)

	t.Run("Valid token", func(t *testing.T) {
		m.jwt.EXPECT().ValidateToken("good", auth.PurposeVerify).Return(&auth.Claims{UserID: 1}, nil)
		m.repo.EXPECT().SetVerified(gomock.Any(), 1).Return(true, nil)
		assert.NoError(t, service.Verify(context.Background(), "good"))
	})

	t.Run("Invalid token", func(t *testing.T) {
		m.jwt.EXPECT().ValidateToken("bad", auth.PurposeVerify).Return(nil, auth.ErrInvalidToken)
		assert.ErrorIs(t, service.Verify(context.Background(), "bad"), ErrInvalidToken)
	})

	t.Run("User gone", func(t *testing.T) {
		m.jwt.EXPECT().ValidateToken("orphan", auth.PurposeVerify).Return(&auth.Claims{UserID: 9}, nil)
		m.repo.EXPECT().SetVerified(gomock.Any(), 9).Return(false, nil)
		assert.ErrorIs(t, service.Verify(context.Background(), "orphan"), ErrUserNotFound)
	})
}

func TestUpdateUser(t *testing.T) {
	service, m := NewMock(t)
	name := "New Name"
	email := "taken@example.com"
	balance := 10000.0
	negative := -1.0

	tests := []struct {
		name          string
		update        UserUpdate
		prepareMock   func()
		expectedUser  *domain.User
		expectedError error
	}{
		{
			name:   "Update name and balance",
			update: UserUpdate{Name: &name, Balance: &balance},
			prepareMock: func() {
				m.repo.EXPECT().FindByID(gomock.Any(), 1).Return(&domain.User{ID: 1, Name: "Old", Email: "ali@example.com", Balance: 1000}, nil)
				m.repo.EXPECT().Update(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, user *domain.User) (*domain.User, error) {
					assert.Equal(t, "New Name", user.Name)
					copied := *user
					return &copied, nil
				})
				m.ledger.EXPECT().Adjust(gomock.Any(), 1, 10000.0, profileUpdateReference).Return(10000.0, nil)
			},
			expectedUser: &domain.User{ID: 1, Name: "New Name", Email: "ali@example.com", Balance: 10000},
		},
		{
			name:   "User not found",
			update: UserUpdate{Name: &name},
			prepareMock: func() {
				m.repo.EXPECT().FindByID(gomock.Any(), 1).Return(nil, nil)
			},
			expectedError: ErrUserNotFound,
		},
		{
			name:   "Email already in use",
			update: UserUpdate{Email: &email},
			prepareMock: func() {
				m.repo.EXPECT().FindByID(gomock.Any(), 1).Return(&domain.User{ID: 1, Email: "ali@example.com"}, nil)
				m.repo.EXPECT().FindByEmail(gomock.Any(), "taken@example.com").Return(&domain.User{ID: 2}, nil)
			},
			expectedError: ErrEmailInUse,
		},
		{
			name:   "Negative balance",
			update: UserUpdate{Balance: &negative},
			prepareMock: func() {
				m.repo.EXPECT().FindByID(gomock.Any(), 1).Return(&domain.User{ID: 1}, nil)
			},
			expectedError: ErrValidation,
		},
		{
			name:   "Ledger lost the user",
			update: UserUpdate{Balance: &balance},
			prepareMock: func() {
				m.repo.EXPECT().FindByID(gomock.Any(), 1).Return(&domain.User{ID: 1}, nil)
				m.repo.EXPECT().Update(gomock.Any(), gomock.Any()).Return(&domain.User{ID: 1}, nil)
				m.ledger.EXPECT().Adjust(gomock.Any(), 1, 10000.0, profileUpdateReference).Return(0.0, balanceservice.ErrUserNotFound)
			},
			expectedError: ErrUserNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()

			user, err := service.UpdateUser(context.Background(), 1, tt.update)
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expectedUser, user)
		})
	}
}

func TestStatement(t *testing.T) {
	service, m := NewMock(t)

	m.ledger.EXPECT().Statement(gomock.Any(), 1).Return(&domain.Statement{UserID: 1, Balance: 1000, Replayed: 1000}, nil)
	statement, err := service.Statement(context.Background(), 1)
	assert.NoError(t, err)
	assert.Equal(t, 1000.0, statement.Replayed)

	m.ledger.EXPECT().Statement(gomock.Any(), 2).Return(nil, balanceservice.ErrUserNotFound)
	_, err = service.Statement(context.Background(), 2)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
