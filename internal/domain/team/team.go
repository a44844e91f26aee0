// Package team holds the team aggregate: a collaboration container owned by
// an account, with a member ceiling taken from the owner's tier.
package team

import (
	"context"
	"fmt"
	"time"

	"quillform/internal/shared/biztime"
	"quillform/internal/shared/id"
)

type Team struct {
	id        uint
	sid       string
	accountID uint
	name      string
	version   int
	createdAt time.Time
	updatedAt time.Time
}

func NewTeam(accountID uint, name string) (*Team, error) {
	if accountID == 0 {
		return nil, fmt.Errorf("account ID is required")
	}
	if name == "" {
		return nil, fmt.Errorf("team name is required")
	}
	now := biztime.NowUTC()
	return &Team{
		sid:       id.MustGenerateWithPrefix(id.PrefixTeam, id.DefaultLength),
		accountID: accountID,
		name:      name,
		version:   1,
		createdAt: now,
		updatedAt: now,
	}, nil
}

func Reconstruct(teamID uint, sid string, accountID uint, name string, version int, createdAt, updatedAt time.Time) (*Team, error) {
	if teamID == 0 {
		return nil, fmt.Errorf("team ID cannot be zero")
	}
	return &Team{
		id:        teamID,
		sid:       sid,
		accountID: accountID,
		name:      name,
		version:   version,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}, nil
}

func (t *Team) ID() uint             { return t.id }
func (t *Team) SID() string          { return t.sid }
func (t *Team) AccountID() uint      { return t.accountID }
func (t *Team) Name() string         { return t.name }
func (t *Team) Version() int         { return t.version }
func (t *Team) CreatedAt() time.Time { return t.createdAt }
func (t *Team) UpdatedAt() time.Time { return t.updatedAt }

func (t *Team) SetID(teamID uint) error {
	if t.id != 0 {
		return fmt.Errorf("team ID is already set")
	}
	if teamID == 0 {
		return fmt.Errorf("team ID cannot be zero")
	}
	t.id = teamID
	return nil
}

// Member is a membership of an account on a team.
type Member struct {
	ID        uint
	TeamID    uint
	AccountID uint
	Role      string
	CreatedAt time.Time
}

// Repository is the persistence port for teams.
type Repository interface {
	Create(ctx context.Context, t *Team) error
	GetByID(ctx context.Context, id uint) (*Team, error)
	GetBySID(ctx context.Context, sid string) (*Team, error)
	ListByAccount(ctx context.Context, accountID uint) ([]*Team, error)

	AddMember(ctx context.Context, m *Member) error
	RemoveMember(ctx context.Context, teamID, accountID uint) error
	CountMembers(ctx context.Context, teamID uint) (int, error)
	CountSurveys(ctx context.Context, teamID uint) (int, error)
}
