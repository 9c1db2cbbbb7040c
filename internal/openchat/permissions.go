package openchat

import "slices"

// Permission is a capability granted to the bot within a scope.
type Permission string

const (
	PermSendMessages         Permission = "SendMessages"
	PermDeleteMessages       Permission = "DeleteMessages"
	PermReactToMessages      Permission = "ReactToMessages"
	PermInviteMembers        Permission = "InviteMembers"
	PermRemoveMembers        Permission = "RemoveMembers"
	PermReadMessages         Permission = "ReadMessages"
	PermReadChatSummary      Permission = "ReadChatSummary"
	PermPinMessages          Permission = "PinMessages"
	PermUpdateDetails        Permission = "UpdateDetails"
	PermCreatePublicChannel  Permission = "CreatePublicChannel"
	PermCreatePrivateChannel Permission = "CreatePrivateChannel"
	PermDeleteChannel        Permission = "DeleteChannel"
)

// Permissions is the set of capabilities granted by an installation.
type Permissions []Permission

// NewPermissions converts raw capability strings, dropping blanks and duplicates.
func NewPermissions(raw []string) Permissions {
	out := make(Permissions, 0, len(raw))
	for _, r := range raw {
		p := Permission(r)
		if r == "" || slices.Contains(out, p) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Has reports whether p grants perm.
func (p Permissions) Has(perm Permission) bool {
	return slices.Contains(p, perm)
}

// HasAny reports whether p grants at least one of perms.
func (p Permissions) HasAny(perms ...Permission) bool {
	for _, perm := range perms {
		if p.Has(perm) {
			return true
		}
	}
	return false
}

// Strings returns the permissions as plain strings.
func (p Permissions) Strings() []string {
	out := make([]string, len(p))
	for i, perm := range p {
		out[i] = string(perm)
	}
	return out
}

// Bit positions used when encoding permission sets for the bot definition.
var (
	chatPermissionBits = []string{
		"ChangeRoles", "UpdateDetails", "AddMembers", "InviteMembers", "RemoveMembers",
		"DeleteMessages", "PinMessages", "ReactToMessages", "MentionAllMembers",
		"StartVideoCall", "ReadMessages", "ReadMembership", "ReadChatSummary",
	}
	communityPermissionBits = []string{
		"ChangeRoles", "UpdateDetails", "InviteMembers", "RemoveMembers",
		"CreatePublicChannel", "CreatePrivateChannel", "ManageUserGroups", "DeleteChannel",
	}
	messagePermissionBits = []string{
		"Text", "Image", "Video", "Audio", "File", "Poll", "Crypto", "Giphy", "Prize",
		"P2pSwap", "VideoCall",
	}
)

// PermissionSet groups permission names by the area they apply to.
type PermissionSet struct {
	Chat      []string
	Community []string
	Message   []string
}

// EncodedPermissions is the bitfield form of a PermissionSet.
type EncodedPermissions struct {
	Chat      uint32 `json:"chat"`
	Community uint32 `json:"community"`
	Message   uint32 `json:"message"`
}

// Encode converts the named permissions into bitfields. Unknown names are ignored.
func (s PermissionSet) Encode() EncodedPermissions {
	return EncodedPermissions{
		Chat:      encodeBits(chatPermissionBits, s.Chat),
		Community: encodeBits(communityPermissionBits, s.Community),
		Message:   encodeBits(messagePermissionBits, s.Message),
	}
}

// Decode expands bitfields back into permission names.
func (e EncodedPermissions) Decode() PermissionSet {
	return PermissionSet{
		Chat:      decodeBits(chatPermissionBits, e.Chat),
		Community: decodeBits(communityPermissionBits, e.Community),
		Message:   decodeBits(messagePermissionBits, e.Message),
	}
}

func encodeBits(table, names []string) uint32 {
	var bits uint32
	for _, name := range names {
		if i := slices.Index(table, name); i >= 0 {
			bits |= 1 << uint(i)
		}
	}
	return bits
}

func decodeBits(table []string, bits uint32) []string {
	out := []string{}
	for i, name := range table {
		if bits&(1<<uint(i)) != 0 {
			out = append(out, name)
		}
	}
	return out
}
