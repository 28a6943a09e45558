package dto

import (
	"time"

	"github.com/GlebRadaev/venuebooking/internal/domain"
)

type RegisterRequestDTO struct {
	Name     string  `json:"name" example:"Ali"`
	Email    string  `json:"email" example:"ali@example.com"`
	Password string  `json:"password" example:"secret1"`
	Balance  float64 `json:"balance,omitempty" example:"1000"`
	Role     string  `json:"role,omitempty" example:"user"`
}

type LoginRequestDTO struct {
	Email    string `json:"email" example:"ali@example.com"`
	Password string `json:"password" example:"secret1"`
}

type UserDTO struct {
	ID         int     `json:"id" example:"1"`
	Name       string  `json:"name" example:"Ali"`
	Email      string  `json:"email" example:"ali@example.com"`
	Balance    float64 `json:"balance" example:"1000"`
	Role       string  `json:"role" example:"user"`
	IsVerified *bool   `json:"isVerified,omitempty"`
}

type LoginResponseDTO struct {
	Token string  `json:"token"`
	User  UserDTO `json:"user"`
}

type UpdateUserRequestDTO struct {
	Name     *string  `json:"name,omitempty"`
	Email    *string  `json:"email,omitempty"`
	Password *string  `json:"password,omitempty"`
	Balance  *float64 `json:"balance,omitempty"`
}

type UpdateUserResponseDTO struct {
	Message string  `json:"message"`
	User    UserDTO `json:"user"`
}

type LedgerEntryDTO struct {
	ID           int       `json:"id"`
	Amount       float64   `json:"amount" example:"-5000"`
	Kind         string    `json:"kind" example:"debit"`
	Reference    string    `json:"reference"`
	BalanceAfter float64   `json:"balanceAfter" example:"5000"`
	CreatedAt    time.Time `json:"createdAt"`
}

type LedgerResponseDTO struct {
	UserID          int              `json:"userId"`
	Balance         float64          `json:"balance"`
	ReplayedBalance float64          `json:"replayedBalance"`
	Entries         []LedgerEntryDTO `json:"entries"`
}

func UserFromDomain(u *domain.User) UserDTO {
	return UserDTO{
		ID:      u.ID,
		Name:    u.Name,
		Email:   u.Email,
		Balance: u.Balance,
		Role:    u.Role,
	}
}

func LedgerFromDomain(s *domain.Statement) LedgerResponseDTO {
	entries := make([]LedgerEntryDTO, 0, len(s.Entries))
	for _, e := range s.Entries {
		entries = append(entries, LedgerEntryDTO{
			ID:           e.ID,
			Amount:       e.Amount,
			Kind:         e.Kind,
			Reference:    e.Reference,
			BalanceAfter: e.BalanceAfter,
			CreatedAt:    e.CreatedAt,
		})
	}
	return LedgerResponseDTO{
		UserID:          s.UserID,
		Balance:         s.Balance,
		ReplayedBalance: s.Replayed,
		Entries:         entries,
	}
}
