// Package organization holds the organization aggregate. Organizations may
// nest one level: a sub-organization references its parent.
package organization

import (
	"context"
	"fmt"
	"time"

	"quillform/internal/shared/biztime"
	"quillform/internal/shared/id"
)

type Organization struct {
	id        uint
	sid       string
	accountID uint
	parentID  *uint
	name      string
	version   int
	createdAt time.Time
	updatedAt time.Time
}

func NewOrganization(accountID uint, name string, parentID *uint) (*Organization, error) {
	if accountID == 0 {
		return nil, fmt.Errorf("account ID is required")
	}
	if name == "" {
		return nil, fmt.Errorf("organization name is required")
	}
	now := biztime.NowUTC()
	return &Organization{
		sid:       id.MustGenerateWithPrefix(id.PrefixOrganization, id.DefaultLength),
		accountID: accountID,
		parentID:  parentID,
		name:      name,
		version:   1,
		createdAt: now,
		updatedAt: now,
	}, nil
}

func Reconstruct(orgID uint, sid string, accountID uint, parentID *uint, name string, version int, createdAt, updatedAt time.Time) (*Organization, error) {
	if orgID == 0 {
		return nil, fmt.Errorf("organization ID cannot be zero")
	}
	return &Organization{
		id:        orgID,
		sid:       sid,
		accountID: accountID,
		parentID:  parentID,
		name:      name,
		version:   version,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}, nil
}

func (o *Organization) ID() uint             { return o.id }
func (o *Organization) SID() string          { return o.sid }
func (o *Organization) AccountID() uint      { return o.accountID }
func (o *Organization) ParentID() *uint      { return o.parentID }
func (o *Organization) Name() string         { return o.name }
func (o *Organization) IsSubOrg() bool       { return o.parentID != nil }
func (o *Organization) Version() int         { return o.version }
func (o *Organization) CreatedAt() time.Time { return o.createdAt }
func (o *Organization) UpdatedAt() time.Time { return o.updatedAt }

func (o *Organization) SetID(orgID uint) error {
	if o.id != 0 {
		return fmt.Errorf("organization ID is already set")
	}
	if orgID == 0 {
		return fmt.Errorf("organization ID cannot be zero")
	}
	o.id = orgID
	return nil
}

// Member is a membership of an account in an organization.
type Member struct {
	ID        uint
	OrgID     uint
	AccountID uint
	Role      string
	CreatedAt time.Time
}

// Repository is the persistence port for organizations.
type Repository interface {
	Create(ctx context.Context, o *Organization) error
	GetByID(ctx context.Context, id uint) (*Organization, error)
	GetBySID(ctx context.Context, sid string) (*Organization, error)
	GetByOwner(ctx context.Context, accountID uint) (*Organization, error)

	AddMember(ctx context.Context, m *Member) error
	CountMembers(ctx context.Context, orgID uint) (int, error)
}
