// Package dao provides data access objects for use in the dreamc compile
// server.
package dao

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrConstraintViolation = errors.New("a uniqueness constraint was violated")
	ErrNotFound            = errors.New("the requested resource was not found")
	ErrDecodingFailure     = errors.New("field could not be decoded from DB storage format to model format")
)

// Store holds all the repositories backing the compile server.
type Store interface {
	Users() UserRepository
	Jobs() CompileJobRepository
	Close() error
}

// Role is the closed set of permission levels a User may hold.
type Role int

const (
	Guest Role = iota
	Normal
	Admin
)

func (r Role) String() string {
	switch r {
	case Guest:
		return "guest"
	case Normal:
		return "normal"
	case Admin:
		return "admin"
	default:
		return fmt.Sprintf("Role(%d)", r)
	}
}

func ParseRole(s string) (Role, error) {
	switch strings.ToLower(s) {
	case "guest":
		return Guest, nil
	case "normal":
		return Normal, nil
	case "admin":
		return Admin, nil
	default:
		return Guest, fmt.Errorf("must be one of 'guest', 'normal', or 'admin'")
	}
}

type User struct {
	ID             uuid.UUID // PK, NOT NULL
	Username       string    // UNIQUE, NOT NULL
	Password       string    // bcrypt hash, NOT NULL
	Role           Role      // NOT NULL
	Created        time.Time // NOT NULL
	LastLogoutTime time.Time // NOT NULL; bumped on logout to invalidate outstanding JWTs
}

type UserRepository interface {
	Create(ctx context.Context, user User) (User, error)
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	GetByUsername(ctx context.Context, username string) (User, error)
	GetAll(ctx context.Context) ([]User, error)
	Update(ctx context.Context, id uuid.UUID, user User) (User, error)
	Delete(ctx context.Context, id uuid.UUID) (User, error)
	Close() error
}

// Stage is the furthest pipeline component a CompileJob reached.
type Stage int

const (
	StageQueued Stage = iota
	StageLexed
	StageParsed
	StageAnalyzed
	StageEmitted
	StageFailed
)

func (s Stage) String() string {
	switch s {
	case StageQueued:
		return "queued"
	case StageLexed:
		return "lexed"
	case StageParsed:
		return "parsed"
	case StageAnalyzed:
		return "analyzed"
	case StageEmitted:
		return "emitted"
	case StageFailed:
		return "failed"
	default:
		return fmt.Sprintf("Stage(%d)", s)
	}
}

// CompileJob is a single request to compile Dream source to LLVM IR,
// recorded along with the diagnostics produced and, on success, the emitted
// IR text.
type CompileJob struct {
	ID          uuid.UUID
	OwnerID     uuid.UUID
	Source      string
	Stage       Stage
	Diagnostics []string
	IR          string
	Created     time.Time
}

type CompileJobRepository interface {
	Create(ctx context.Context, job CompileJob) (CompileJob, error)
	GetByID(ctx context.Context, id uuid.UUID) (CompileJob, error)
	GetAllByOwner(ctx context.Context, ownerID uuid.UUID) ([]CompileJob, error)
	Update(ctx context.Context, id uuid.UUID, job CompileJob) (CompileJob, error)
	Delete(ctx context.Context, id uuid.UUID) (CompileJob, error)
	Close() error
}
