package store

import (
	"context"
	"time"

	"github.com/gtechitgaminghub-byte/gamezone/internal/models"
)

type CreateUserInput struct {
	Username       string
	Password       string
	Role           string
	BalanceMinutes int
}

// UpdateUserInput carries a partial update; nil fields are left untouched.
type UpdateUserInput struct {
	Username       *string
	Password       *string
	Role           *string
	BalanceMinutes *int
}

type CreatePcInput struct {
	Name       string
	IPAddress  string
	MACAddress string
	Status     string
}

type UpdatePcInput struct {
	Name       *string
	IPAddress  *string
	MACAddress *string
	Status     *string
}

type StartSessionInput struct {
	UserID          int64
	PcID            int64
	AssignedMinutes int
}

// SessionFilter restricts ListSessions. Filters are conjunctive; a zero
// value means the dimension is unfiltered.
type SessionFilter struct {
	Active bool
	PcID   int64
	UserID int64
}

type AuthSession struct {
	Token     string
	UserID    int64
	ExpiresAt time.Time
}

type Store interface {
	GetUser(ctx context.Context, id int64) (models.User, error)
	GetUserByUsername(ctx context.Context, username string) (models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	CreateUser(ctx context.Context, input CreateUserInput) (models.User, error)
	UpdateUser(ctx context.Context, id int64, input UpdateUserInput) (models.User, error)
	DeleteUser(ctx context.Context, id int64) error

	GetPc(ctx context.Context, id int64) (models.Pc, error)
	ListPcs(ctx context.Context) ([]models.Pc, error)
	CreatePc(ctx context.Context, input CreatePcInput) (models.Pc, error)
	UpdatePc(ctx context.Context, id int64, input UpdatePcInput) (models.Pc, error)
	DeletePc(ctx context.Context, id int64) error
	RecordPcPing(ctx context.Context, id int64, at time.Time) (models.Pc, error)

	StartSession(ctx context.Context, input StartSessionInput) (models.RentalSession, error)
	EndSession(ctx context.Context, id int64) (models.RentalSession, error)
	ListSessions(ctx context.Context, filter SessionFilter) ([]models.RentalSession, error)
	ListSessionDetails(ctx context.Context, filter SessionFilter) ([]models.SessionDetail, error)
	GetActiveSessionForPc(ctx context.Context, pcID int64) (models.RentalSession, error)

	GetStats(ctx context.Context) (models.Stats, error)

	RecordAdminLog(ctx context.Context, adminID int64, action, details string) error

	CreateAuthSession(ctx context.Context, userID int64, expiresAt time.Time) (AuthSession, error)
	GetAuthSession(ctx context.Context, token string) (models.User, error)
	DeleteAuthSession(ctx context.Context, token string) error
	DeleteExpiredAuthSessions(ctx context.Context) (int64, error)
}
