package mock

import (
	"context"

	"github.com/fixboard/fixboard/pkg/models"
)

// Test helpers and mocks
type Mocks struct {
	UserRepo    *mockUserRepo
	ProfileRepo *mockProfileRepo
}

func NewMocks() *Mocks {
	return &Mocks{
		UserRepo:    &mockUserRepo{},
		ProfileRepo: &mockProfileRepo{},
	}
}

type mockUserRepo struct {
	Stored    *models.User
	CreateErr error
}

func (m *mockUserRepo) CreateUser(ctx context.Context, u *models.User) (int64, error) {
	if m.CreateErr != nil {
		return 0, m.CreateErr
	}
	m.Stored = &models.User{ID: 1, Name: u.Name, Email: u.Email, UserType: u.UserType, PasswordHash: u.PasswordHash, HashScheme: u.HashScheme}
	return 1, nil
}

func (m *mockUserRepo) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	if m.Stored != nil && m.Stored.ID == id {
		return m.Stored, nil
	}
	return nil, nil
}

func (m *mockUserRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.Stored != nil && m.Stored.Email == email {
		return m.Stored, nil
	}
	return nil, nil
}

type mockProfileRepo struct {
	Stored *models.ContractorProfile
}

func (m *mockProfileRepo) CreateProfile(ctx context.Context, p *models.ContractorProfile) (int64, error) {
	m.Stored = &models.ContractorProfile{ID: 1, UserID: p.UserID, Trades: p.Trades, Bio: p.Bio}
	return 1, nil
}

func (m *mockProfileRepo) GetProfileByUserID(ctx context.Context, userID int64) (*models.ContractorProfile, error) {
	if m.Stored != nil && m.Stored.UserID == userID {
		return m.Stored, nil
	}
	return nil, nil
}

func (m *mockProfileRepo) UpdateProfile(ctx context.Context, p *models.ContractorProfile) error {
	m.Stored = p
	return nil
}
