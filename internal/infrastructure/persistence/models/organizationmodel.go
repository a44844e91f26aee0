package models

import (
	"time"

	"quillform/internal/shared/constants"
)

// OrganizationModel is the persistence model for organizations. ParentID is
// set only on sub-organizations.
type OrganizationModel struct {
	ID        uint   `gorm:"primarykey"`
	SID       string `gorm:"not null;size:32;uniqueIndex"`
	AccountID uint   `gorm:"not null;index"`
	ParentID  *uint  `gorm:"index"`
	Name      string `gorm:"not null;size:255"`
	Version   int    `gorm:"not null;default:1"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName specifies the table name for GORM
func (OrganizationModel) TableName() string {
	return constants.TableOrganizations
}

// OrgMemberModel is the persistence model for organization memberships.
type OrgMemberModel struct {
	ID        uint   `gorm:"primarykey"`
	OrgID     uint   `gorm:"not null;uniqueIndex:idx_org_account,priority:1"`
	AccountID uint   `gorm:"not null;uniqueIndex:idx_org_account,priority:2"`
	Role      string `gorm:"not null;size:20;default:member"`
	CreatedAt time.Time
}

// TableName specifies the table name for GORM
func (OrgMemberModel) TableName() string {
	return constants.TableOrgMembers
}
