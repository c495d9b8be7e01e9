// Package accounts manages user registration, authentication and delivery
// addresses.
package accounts

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/marketrun/platform/internal/app/domain/account"
	"github.com/marketrun/platform/internal/app/storage"
	"github.com/marketrun/platform/internal/errors"
	"github.com/marketrun/platform/pkg/logger"
)

// Service provides user and address operations.
type Service struct {
	users     storage.UserStore
	addresses storage.AddressStore
	log       *logger.Logger
}

// New creates the accounts service.
func New(users storage.UserStore, addresses storage.AddressStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("accounts")
	}
	return &Service{users: users, addresses: addresses, log: log}
}

// RegisterInput is the caller-supplied registration payload.
type RegisterInput struct {
	Email    string
	Name     string
	Phone    string
	Password string
	// ReferredByCode is the referral code of the user who invited this one,
	// if any.
	ReferredByCode string
}

// Register creates a user with a freshly generated referral code. The
// password is stored as a bcrypt hash.
func (s *Service) Register(ctx context.Context, in RegisterInput) (account.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || !strings.Contains(email, "@") {
		return account.User{}, errors.Validation("a valid email address is required")
	}
	if len(in.Password) < 8 {
		return account.User{}, errors.Validation("password must be at least 8 characters")
	}

	var referredBy string
	if code := strings.TrimSpace(in.ReferredByCode); code != "" {
		referrer, err := s.users.GetUserByReferralCode(ctx, code)
		if err != nil {
			return account.User{}, errors.Validation("referral code %s is not recognised", code)
		}
		referredBy = referrer.ID
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return account.User{}, errors.Internal("hash password", err)
	}

	u := account.User{
		Email:        email,
		Name:         strings.TrimSpace(in.Name),
		Phone:        strings.TrimSpace(in.Phone),
		PasswordHash: string(hash),
		Role:         account.RoleUser,
		ReferralCode: newReferralCode(),
		ReferredBy:   referredBy,
	}

	created, err := s.users.CreateUser(ctx, u)
	if err != nil {
		return account.User{}, err
	}
	s.log.WithField("user_id", created.ID).Info("user registered")
	return created, nil
}

// newReferralCode derives a short shareable code from a fresh UUID.
func newReferralCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// Authenticate verifies the email/password pair and returns the user.
func (s *Service) Authenticate(ctx context.Context, email, password string) (account.User, error) {
	u, err := s.users.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return account.User{}, errors.Unauthorized("invalid email or password")
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return account.User{}, errors.Unauthorized("invalid email or password")
	}
	return u, nil
}

// Get fetches a user by id.
func (s *Service) Get(ctx context.Context, id string) (account.User, error) {
	return s.users.GetUser(ctx, id)
}

// List returns every user. Admin surface only; authorization happens at the
// transport layer.
func (s *Service) List(ctx context.Context) ([]account.User, error) {
	return s.users.ListUsers(ctx)
}

// AddressInput is the caller-supplied address payload.
type AddressInput struct {
	Label     string
	Street    string
	City      string
	State     string
	Country   string
	Phone     string
	IsDefault bool
}

func (in AddressInput) validate() error {
	if strings.TrimSpace(in.Street) == "" {
		return errors.Validation("street is required")
	}
	if strings.TrimSpace(in.City) == "" && strings.TrimSpace(in.State) == "" {
		return errors.Validation("city or state is required")
	}
	return nil
}

// AddAddress creates an address for the user. The first address a user adds
// becomes the default automatically.
func (s *Service) AddAddress(ctx context.Context, userID string, in AddressInput) (account.Address, error) {
	if err := in.validate(); err != nil {
		return account.Address{}, err
	}

	existing, err := s.addresses.ListAddresses(ctx, userID)
	if err != nil {
		return account.Address{}, err
	}

	addr := account.Address{
		UserID:    userID,
		Label:     strings.TrimSpace(in.Label),
		Street:    strings.TrimSpace(in.Street),
		City:      strings.TrimSpace(in.City),
		State:     strings.TrimSpace(in.State),
		Country:   strings.TrimSpace(in.Country),
		Phone:     strings.TrimSpace(in.Phone),
		IsDefault: in.IsDefault || len(existing) == 0,
	}
	return s.addresses.CreateAddress(ctx, addr)
}

// UpdateAddress modifies an address owned by the user.
func (s *Service) UpdateAddress(ctx context.Context, userID, addressID string, in AddressInput) (account.Address, error) {
	if err := in.validate(); err != nil {
		return account.Address{}, err
	}

	addr, err := s.ownedAddress(ctx, userID, addressID)
	if err != nil {
		return account.Address{}, err
	}

	addr.Label = strings.TrimSpace(in.Label)
	addr.Street = strings.TrimSpace(in.Street)
	addr.City = strings.TrimSpace(in.City)
	addr.State = strings.TrimSpace(in.State)
	addr.Country = strings.TrimSpace(in.Country)
	addr.Phone = strings.TrimSpace(in.Phone)
	addr.IsDefault = in.IsDefault
	return s.addresses.UpdateAddress(ctx, addr)
}

// DeleteAddress removes an address owned by the user.
func (s *Service) DeleteAddress(ctx context.Context, userID, addressID string) error {
	if _, err := s.ownedAddress(ctx, userID, addressID); err != nil {
		return err
	}
	return s.addresses.DeleteAddress(ctx, addressID)
}

// ListAddresses returns the user's addresses.
func (s *Service) ListAddresses(ctx context.Context, userID string) ([]account.Address, error) {
	return s.addresses.ListAddresses(ctx, userID)
}

// GetAddress fetches an address owned by the user.
func (s *Service) GetAddress(ctx context.Context, userID, addressID string) (account.Address, error) {
	return s.ownedAddress(ctx, userID, addressID)
}

// DefaultAddress returns the user's default address, or the oldest one when
// no default is marked.
func (s *Service) DefaultAddress(ctx context.Context, userID string) (account.Address, error) {
	addrs, err := s.addresses.ListAddresses(ctx, userID)
	if err != nil {
		return account.Address{}, err
	}
	if len(addrs) == 0 {
		return account.Address{}, errors.NotFound("no delivery address on file")
	}
	for _, addr := range addrs {
		if addr.IsDefault {
			return addr, nil
		}
	}
	return addrs[0], nil
}

func (s *Service) ownedAddress(ctx context.Context, userID, addressID string) (account.Address, error) {
	addr, err := s.addresses.GetAddress(ctx, addressID)
	if err != nil {
		return account.Address{}, err
	}
	if addr.UserID != userID {
		return account.Address{}, errors.Forbidden("address belongs to another user")
	}
	return addr, nil
}
