package authservice

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/GlebRadaev/venuebooking/internal/domain"
	"github.com/GlebRadaev/venuebooking/internal/pg"
	"github.com/GlebRadaev/venuebooking/internal/service/balanceservice"
	"github.com/GlebRadaev/venuebooking/pkg/auth"
	"github.com/GlebRadaev/venuebooking/pkg/notify"
	"github.com/GlebRadaev/venuebooking/pkg/validate"
)

const (
	DefaultBalance = 1000

	profileUpdateReference = "profile-update"
	verifyTokenTTL         = 24 * time.Hour
)

var (
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailInUse         = errors.New("email already in use")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrValidation         = errors.New("validation error")
)

// ValidationError carries a client-facing message and matches ErrValidation.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

type Repo interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id int) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) (*domain.User, error)
	SetVerified(ctx context.Context, id int) (bool, error)
}

type Ledger interface {
	Open(ctx context.Context, userID int, amount float64) error
	Adjust(ctx context.Context, userID int, target float64, reference string) (float64, error)
	Statement(ctx context.Context, userID int) (*domain.Statement, error)
}

type Options struct {
	TokenTTL  time.Duration
	VerifyURL string
}

type Service struct {
	userRepo    Repo
	ledger      Ledger
	hashService auth.HashServiceInterface
	jwtService  auth.JWTServiceInterface
	notifier    notify.Notifier
	txManager   pg.TXManager
	tokenTTL    time.Duration
	verifyURL   string
}

func New(repo Repo, ledger Ledger, hashService auth.HashServiceInterface, jwtService auth.JWTServiceInterface,
	notifier notify.Notifier, txManager pg.TXManager, opts Options) *Service {
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 24 * time.Hour
	}
	return &Service{
		userRepo:    repo,
		ledger:      ledger,
		hashService: hashService,
		jwtService:  jwtService,
		notifier:    notifier,
		txManager:   txManager,
		tokenTTL:    opts.TokenTTL,
		verifyURL:   opts.VerifyURL,
	}
}

// UserUpdate holds the optional fields of a profile update.
type UserUpdate struct {
	Name     *string
	Email    *string
	Password *string
	Balance  *float64
}

func validateProfile(profile *domain.User) error {
	profile.Name = strings.TrimSpace(profile.Name)
	profile.Email = strings.TrimSpace(strings.ToLower(profile.Email))
	switch {
	case profile.Name == "":
		return &ValidationError{Message: "Name is required"}
	case !validate.IsEmail(profile.Email):
		return &ValidationError{Message: "Invalid email"}
	case profile.Balance < 0:
		return &ValidationError{Message: "Balance cannot be negative"}
	}
	if profile.Role == "" {
		profile.Role = domain.RoleUser
	}
	if !validate.IsRole(profile.Role) {
		return &ValidationError{Message: "Invalid role"}
	}
	if profile.Balance == 0 {
		profile.Balance = DefaultBalance
	}
	return nil
}

// Register creates the user with its opening ledger entry and sends a
// verification email.
func (s *Service) Register(ctx context.Context, profile domain.User, password string) (*domain.User, error) {
	if err := validateProfile(&profile); err != nil {
		zap.L().Info("invalid registration", zap.String("email", profile.Email), zap.Error(err))
		return nil, err
	}
	existingUser, err := s.userRepo.FindByEmail(ctx, profile.Email)
	if err != nil {
		zap.L().Error("can't find user: ", zap.Error(err))
		return nil, err
	}
	if existingUser != nil {
		zap.L().Info("user already exists", zap.String("email", profile.Email))
		return nil, ErrUserExists
	}
	hashedPassword, err := s.hashService.HashPassword(password)
	if err != nil {
		if errors.Is(err, auth.ErrWeakPassword) {
			return nil, &ValidationError{Message: err.Error()}
		}
		zap.L().Error("can't hash password: ", zap.Error(err))
		return nil, err
	}
	profile.PasswordHash = hashedPassword

	var newUser *domain.User
	err = s.txManager.Begin(ctx, func(ctx context.Context) error {
		created, err := s.userRepo.Create(ctx, &profile)
		if err != nil {
			return err
		}
		if err := s.ledger.Open(ctx, created.ID, created.Balance); err != nil {
			return err
		}
		newUser = created
		return nil
	})
	if err != nil {
		zap.L().Error("can't create user: ", zap.Error(err))
		return nil, err
	}

	s.sendVerification(ctx, newUser)
	zap.L().Info("user successfully registered", zap.String("email", newUser.Email))
	return newUser, nil
}

func (s *Service) sendVerification(ctx context.Context, user *domain.User) {
	token, err := s.jwtService.GenerateJWT(user.ID, user.Role, auth.PurposeVerify, time.Now().Add(verifyTokenTTL))
	if err != nil {
		zap.L().Error("can't generate verification token", zap.Int("userID", user.ID), zap.Error(err))
		return
	}
	link := s.verifyURL + "?token=" + url.QueryEscape(token)
	s.notifier.Notify(ctx, notify.KeyVerifyEmail, notify.Message{
		To:      user.Email,
		Subject: "Verify Your Email",
		Body:    fmt.Sprintf("Hi %s, Please click on this link to verify your email: %s", user.Name, link),
	})
}

func (s *Service) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	if err != nil || user == nil {
		zap.L().Info("invalid credentials", zap.String("email", email), zap.Error(err))
		return nil, ErrInvalidCredentials
	}
	if ok := s.hashService.ComparePassword(user.PasswordHash, password); !ok {
		zap.L().Info("invalid credentials", zap.String("email", email))
		return nil, ErrInvalidCredentials
	}
	zap.L().Info("user successfully authenticated", zap.String("email", email))
	return user, nil
}

func (s *Service) GenerateToken(user *domain.User) (string, error) {
	token, err := s.jwtService.GenerateJWT(user.ID, user.Role, auth.PurposeAccess, time.Now().Add(s.tokenTTL))
	if err != nil {
		zap.L().Error("can't generate token: ", zap.Error(err))
		return "", err
	}
	return token, nil
}

// Verify marks the token's user as having confirmed their email.
func (s *Service) Verify(ctx context.Context, token string) error {
	claims, err := s.jwtService.ValidateToken(token, auth.PurposeVerify)
	if err != nil {
		zap.L().Info("invalid verification token", zap.Error(err))
		return ErrInvalidToken
	}
	ok, err := s.userRepo.SetVerified(ctx, claims.UserID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUserNotFound
	}
	zap.L().Info("user verified", zap.Int("userID", claims.UserID))
	return nil
}

func (s *Service) GetUser(ctx context.Context, id int) (*domain.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// UpdateUser applies the provided fields. A balance change is recorded in
// the ledger as an adjustment in the same transaction.
func (s *Service) UpdateUser(ctx context.Context, id int, update UserUpdate) (*domain.User, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if update.Name != nil && strings.TrimSpace(*update.Name) != "" {
		user.Name = strings.TrimSpace(*update.Name)
	}
	if update.Email != nil && *update.Email != "" {
		email := strings.TrimSpace(strings.ToLower(*update.Email))
		if !validate.IsEmail(email) {
			return nil, &ValidationError{Message: "Invalid email"}
		}
		existing, err := s.userRepo.FindByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.ID != id {
			zap.L().Info("email already in use", zap.String("email", email))
			return nil, ErrEmailInUse
		}
		user.Email = email
	}
	if update.Password != nil && *update.Password != "" {
		hashed, err := s.hashService.HashPassword(*update.Password)
		if err != nil {
			if errors.Is(err, auth.ErrWeakPassword) {
				return nil, &ValidationError{Message: err.Error()}
			}
			return nil, err
		}
		user.PasswordHash = hashed
	}
	if update.Balance != nil && *update.Balance < 0 {
		return nil, &ValidationError{Message: "Balance cannot be negative"}
	}

	var updated *domain.User
	err = s.txManager.Begin(ctx, func(ctx context.Context) error {
		saved, err := s.userRepo.Update(ctx, user)
		if err != nil {
			return err
		}
		if saved == nil {
			return ErrUserNotFound
		}
		if update.Balance != nil {
			balance, err := s.ledger.Adjust(ctx, id, *update.Balance, profileUpdateReference)
			if err != nil {
				return err
			}
			saved.Balance = balance
		}
		updated = saved
		return nil
	})
	if err != nil {
		if errors.Is(err, balanceservice.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		if !errors.Is(err, ErrUserNotFound) {
			zap.L().Error("can't update user", zap.Int("userID", id), zap.Error(err))
		}
		return nil, err
	}
	zap.L().Info("user updated", zap.Int("userID", id))
	return updated, nil
}

func (s *Service) Statement(ctx context.Context, userID int) (*domain.Statement, error) {
	statement, err := s.ledger.Statement(ctx, userID)
	if err != nil {
		if errors.Is(err, balanceservice.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return statement, nil
}
