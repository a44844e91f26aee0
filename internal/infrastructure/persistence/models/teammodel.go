package models

import (
	"time"

	"quillform/internal/shared/constants"
)

// TeamModel is the persistence model for teams.
type TeamModel struct {
	ID        uint   `gorm:"primarykey"`
	SID       string `gorm:"not null;size:32;uniqueIndex"`
	AccountID uint   `gorm:"not null;index"`
	Name      string `gorm:"not null;size:255"`
	Version   int    `gorm:"not null;default:1"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName specifies the table name for GORM
func (TeamModel) TableName() string {
	return constants.TableTeams
}

// TeamMemberModel is the persistence model for team memberships.
type TeamMemberModel struct {
	ID        uint   `gorm:"primarykey"`
	TeamID    uint   `gorm:"not null;uniqueIndex:idx_team_account,priority:1"`
	AccountID uint   `gorm:"not null;uniqueIndex:idx_team_account,priority:2"`
	Role      string `gorm:"not null;size:20;default:member"`
	CreatedAt time.Time
}

// TableName specifies the table name for GORM
func (TeamMemberModel) TableName() string {
	return constants.TableTeamMembers
}
