package profile

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validProfile() Profile {
	return Profile{
		Email:       "Ada@Example.com",
		Name:        "Ada",
		PhoneNumber: "9876543210",
		ShippingAddress: ShippingAddress{
			Address: "1 Main St",
			City:    "Pune",
			State:   "MH",
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(p *Profile)
		wantErr error
	}{
		{name: "valid", mutate: func(p *Profile) {}},
		{name: "phone optional", mutate: func(p *Profile) { p.PhoneNumber = "" }},
		{name: "missing email", mutate: func(p *Profile) { p.Email = "" }, wantErr: ErrMissingEmail},
		{name: "empty name", mutate: func(p *Profile) { p.Name = "" }, wantErr: ErrNameTooShort},
		{name: "one letter name", mutate: func(p *Profile) { p.Name = "A" }, wantErr: ErrNameTooShort},
		{name: "short phone", mutate: func(p *Profile) { p.PhoneNumber = "12345" }, wantErr: ErrInvalidPhone},
		{name: "long phone", mutate: func(p *Profile) { p.PhoneNumber = "12345678901" }, wantErr: ErrInvalidPhone},
		{name: "phone with letters", mutate: func(p *Profile) { p.PhoneNumber = "98765x3210" }, wantErr: ErrInvalidPhone},
		{name: "missing address", mutate: func(p *Profile) { p.ShippingAddress.Address = "" }, wantErr: ErrMissingAddress},
		{name: "missing city", mutate: func(p *Profile) { p.ShippingAddress.City = "" }, wantErr: ErrMissingCity},
		{name: "missing state", mutate: func(p *Profile) { p.ShippingAddress.State = "" }, wantErr: ErrMissingState},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validProfile()
			tt.mutate(&p)
			err := p.normalized().Validate()
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidateReportsEveryRule(t *testing.T) {
	err := Profile{Email: "a@b.c", Name: " x ", PhoneNumber: "1"}.normalized().Validate()

	require.ErrorIs(t, err, ErrInvalid)
	for _, want := range []error{ErrNameTooShort, ErrInvalidPhone, ErrMissingAddress, ErrMissingCity, ErrMissingState} {
		assert.ErrorIs(t, err, want)
	}
}

func TestServiceUpdateAndGet(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryRepository())
	fixed := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	_, err := svc.Get(ctx, "ada@example.com")
	require.ErrorIs(t, err, ErrNotFound)

	in := validProfile()
	in.Name = "  Ada Lovelace "
	saved, err := svc.Update(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", saved.Email)
	assert.Equal(t, "Ada Lovelace", saved.Name)
	assert.Equal(t, fixed, saved.UpdatedAt)

	got, err := svc.Get(ctx, " ADA@example.com")
	require.NoError(t, err)
	assert.Equal(t, *saved, *got)

	in.PhoneNumber = ""
	_, err = svc.Update(ctx, in)
	require.NoError(t, err)
	got, err = svc.Get(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Empty(t, got.PhoneNumber)
}

func TestServiceUpdateRejectsInvalid(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo)

	in := validProfile()
	in.ShippingAddress.City = ""
	_, err := svc.Update(context.Background(), in)
	require.ErrorIs(t, err, ErrMissingCity)

	_, err = repo.Get(context.Background(), "ada@example.com")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Get(context.Background(), "  ")
	require.ErrorIs(t, err, ErrMissingEmail)
}
