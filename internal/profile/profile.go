// Package profile stores the customer details shown on the account page:
// display name, phone number and shipping address, keyed by email.
package profile

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

var (
	ErrNotFound     = errors.New("profile not found")
	ErrMissingEmail = errors.New("email is required")

	// ErrInvalid is wrapped by every field rule below.
	ErrInvalid        = errors.New("invalid profile")
	ErrNameTooShort   = fmt.Errorf("%w: name must be at least 2 characters", ErrInvalid)
	ErrInvalidPhone   = fmt.Errorf("%w: phone number must be 10 digits", ErrInvalid)
	ErrMissingAddress = fmt.Errorf("%w: street address required", ErrInvalid)
	ErrMissingCity    = fmt.Errorf("%w: city required", ErrInvalid)
	ErrMissingState   = fmt.Errorf("%w: state required", ErrInvalid)
)

const minNameLength = 2

var phonePattern = regexp.MustCompile(`^\d{10}$`)

type ShippingAddress struct {
	Address string `json:"address" bson:"address"`
	City    string `json:"city" bson:"city"`
	State   string `json:"state" bson:"state"`
	Country string `json:"country,omitempty" bson:"country,omitempty"`
	Pincode string `json:"pincode,omitempty" bson:"pincode,omitempty"`
}

type Profile struct {
	Email           string          `json:"email" bson:"email"`
	Name            string          `json:"name" bson:"name"`
	PhoneNumber     string          `json:"phoneNumber,omitempty" bson:"phoneNumber,omitempty"`
	ShippingAddress ShippingAddress `json:"shippingAddress" bson:"shippingAddress"`
	UpdatedAt       time.Time       `json:"updatedAt" bson:"updatedAt"`
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (p Profile) normalized() Profile {
	p.Email = NormalizeEmail(p.Email)
	p.Name = strings.TrimSpace(p.Name)
	p.PhoneNumber = strings.TrimSpace(p.PhoneNumber)
	a := &p.ShippingAddress
	a.Address = strings.TrimSpace(a.Address)
	a.City = strings.TrimSpace(a.City)
	a.State = strings.TrimSpace(a.State)
	a.Country = strings.TrimSpace(a.Country)
	a.Pincode = strings.TrimSpace(a.Pincode)
	return p
}

// Validate reports every broken field rule at once. Country and pincode are
// optional.
func (p Profile) Validate() error {
	if p.Email == "" {
		return ErrMissingEmail
	}

	var errs []error
	if utf8.RuneCountInString(p.Name) < minNameLength {
		errs = append(errs, ErrNameTooShort)
	}
	if p.PhoneNumber != "" && !phonePattern.MatchString(p.PhoneNumber) {
		errs = append(errs, ErrInvalidPhone)
	}
	if p.ShippingAddress.Address == "" {
		errs = append(errs, ErrMissingAddress)
	}
	if p.ShippingAddress.City == "" {
		errs = append(errs, ErrMissingCity)
	}
	if p.ShippingAddress.State == "" {
		errs = append(errs, ErrMissingState)
	}
	return errors.Join(errs...)
}

type Repository interface {
	Get(ctx context.Context, email string) (*Profile, error)
	Upsert(ctx context.Context, p *Profile) error
}

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) Get(ctx context.Context, email string) (*Profile, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, ErrMissingEmail
	}
	return s.repo.Get(ctx, email)
}

// Update validates p and stores it under its email, creating the profile
// when none exists yet.
func (s *Service) Update(ctx context.Context, p Profile) (*Profile, error) {
	p = p.normalized()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	p.UpdatedAt = s.now().UTC()
	if err := s.repo.Upsert(ctx, &p); err != nil {
		return nil, fmt.Errorf("save profile: %w", err)
	}
	return &p, nil
}
