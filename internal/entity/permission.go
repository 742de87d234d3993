package entity

// PermissionOverride stores per-member capability overrides for one room.
// Every flag is tri-state: nil means "inherit" from the role tier, a
// non-nil value pins the capability regardless of role defaults. Never
// conflate nil with false.
type PermissionOverride struct {
	ID     int64 `gorm:"primaryKey"`
	RoomID int64 `gorm:"not null;uniqueIndex:idx_room_user_override"`
	UserID int64 `gorm:"not null;uniqueIndex:idx_room_user_override"`

	CanSendText    *bool
	CanSendPhoto   *bool
	CanSendVideo   *bool
	CanSendSticker *bool
	CanSendMusic   *bool
	CanSendFile    *bool

	CanDeleteMessages    *bool
	CanPinMessages       *bool
	CanInviteUsers       *bool
	CanRemoveUsers       *bool
	CanBanUsers          *bool
	CanRestrictUsers     *bool
	CanPromoteMembers    *bool
	CanCustomizeGroup    *bool
	CanManageTopics      *bool
	CanManageInviteLinks *bool

	CustomTitle *string
}
