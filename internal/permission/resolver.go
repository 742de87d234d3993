// Package permission resolves the effective capability set for one member
// in one room. Resolution is pure: it reads only its arguments, touches no
// store, and always yields exactly one boolean per capability.
package permission

import (
	"github.com/DarcRosya/Uchat-sub001/internal/entity"
)

type Capabilities struct {
	SendText    bool
	SendPhoto   bool
	SendVideo   bool
	SendSticker bool
	SendMusic   bool
	SendFile    bool

	DeleteMessages    bool
	PinMessages       bool
	InviteUsers       bool
	RemoveUsers       bool
	BanUsers          bool
	RestrictUsers     bool
	PromoteMembers    bool
	CustomizeGroup    bool
	ManageTopics      bool
	ManageInviteLinks bool

	CustomTitle string
}

// CanSendType maps a message type tag to its send capability.
func (c Capabilities) CanSendType(msgType string) bool {
	switch msgType {
	case entity.MessageTypeText, "":
		return c.SendText
	case entity.MessageTypePhoto:
		return c.SendPhoto
	case entity.MessageTypeVideo:
		return c.SendVideo
	case entity.MessageTypeSticker:
		return c.SendSticker
	case entity.MessageTypeMusic:
		return c.SendMusic
	case entity.MessageTypeFile:
		return c.SendFile
	default:
		return false
	}
}

// Resolve applies the override -> role-default -> room-default chain.
// Precedence per capability:
//   - Owner resolves true unconditionally, stored overrides included.
//   - An explicit (non-nil) override wins for everyone else.
//   - Admins inherit the admin tier: everything except ban/remove/promote.
//   - Members inherit the room's default flags for send capabilities and
//     false for every management capability.
//
// The override may be nil when the member never had one stored.
func Resolve(member entity.RoomMember, override *entity.PermissionOverride, room entity.ChatRoom) Capabilities {
	title := ""
	if override != nil && override.CustomTitle != nil {
		title = *override.CustomTitle
	}

	if member.Role == entity.RoleOwner {
		return Capabilities{
			SendText:    true,
			SendPhoto:   true,
			SendVideo:   true,
			SendSticker: true,
			SendMusic:   true,
			SendFile:    true,

			DeleteMessages:    true,
			PinMessages:       true,
			InviteUsers:       true,
			RemoveUsers:       true,
			BanUsers:          true,
			RestrictUsers:     true,
			PromoteMembers:    true,
			CustomizeGroup:    true,
			ManageTopics:      true,
			ManageInviteLinks: true,

			CustomTitle: title,
		}
	}

	admin := member.Role == entity.RoleAdmin
	pick := func(ov *bool, adminDefault, memberDefault bool) bool {
		if ov != nil {
			return *ov
		}
		if admin {
			return adminDefault
		}
		return memberDefault
	}

	var ov entity.PermissionOverride
	if override != nil {
		ov = *override
	}
	d := room.Defaults

	return Capabilities{
		SendText:    pick(ov.CanSendText, true, d.AllowSendText),
		SendPhoto:   pick(ov.CanSendPhoto, true, d.AllowSendPhoto),
		SendVideo:   pick(ov.CanSendVideo, true, d.AllowSendVideo),
		SendSticker: pick(ov.CanSendSticker, true, d.AllowSendSticker),
		SendMusic:   pick(ov.CanSendMusic, true, d.AllowSendMusic),
		SendFile:    pick(ov.CanSendFile, true, d.AllowSendFile),

		DeleteMessages:    pick(ov.CanDeleteMessages, true, false),
		PinMessages:       pick(ov.CanPinMessages, true, false),
		InviteUsers:       pick(ov.CanInviteUsers, true, false),
		RemoveUsers:       pick(ov.CanRemoveUsers, false, false),
		BanUsers:          pick(ov.CanBanUsers, false, false),
		RestrictUsers:     pick(ov.CanRestrictUsers, true, false),
		PromoteMembers:    pick(ov.CanPromoteMembers, false, false),
		CustomizeGroup:    pick(ov.CanCustomizeGroup, true, false),
		ManageTopics:      pick(ov.CanManageTopics, true, false),
		ManageInviteLinks: pick(ov.CanManageInviteLinks, true, false),

		CustomTitle: title,
	}
}
