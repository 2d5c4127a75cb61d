package identity

import (
	"regexp"
	"strings"
)

// Server suffixes used by the protocol.
const (
	ServerUser      = "s.whatsapp.net"
	ServerLID       = "lid"
	ServerGroup     = "g.us"
	ServerBroadcast = "broadcast"
)

const statusBroadcast = "status@broadcast"

var brNumberRe = regexp.MustCompile(`^(\d{2})(\d{2})(\d)(\d{8})$`)

// IsLID reports whether the address is in the linked (privacy) form.
func IsLID(jid string) bool {
	return strings.HasSuffix(jid, "@"+ServerLID)
}

// IsGroup reports whether the address is a group chat.
func IsGroup(jid string) bool {
	return strings.HasSuffix(jid, "@"+ServerGroup)
}

// IsStatusBroadcast reports whether the address is the status broadcast
// pseudo-chat, which never surfaces as a conversation.
func IsStatusBroadcast(jid string) bool {
	return strings.HasPrefix(jid, statusBroadcast)
}

// User returns the bare user part of an address, with any device
// suffix stripped.
func User(jid string) string {
	user, _, _ := strings.Cut(jid, "@")
	user, _, _ = strings.Cut(user, ":")
	return user
}

// NormalizeJID turns a raw number or address into a full protocol address.
// Addresses that already carry a server pass through with the device
// suffix removed from the user part.
func NormalizeJID(raw string) string {
	if user, server, ok := strings.Cut(raw, "@"); ok {
		user, _, _ = strings.Cut(user, ":")
		return user + "@" + server
	}

	number := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)

	if strings.Contains(raw, "-") {
		return number + "@" + ServerGroup
	}

	number = formatBRNumber(number)
	number = formatMXOrARNumber(number)
	return number + "@" + ServerUser
}

// formatBRNumber drops the extra ninth digit from mobile numbers in
// Brazilian area codes that do not use it on the wire.
func formatBRNumber(number string) string {
	m := brNumberRe.FindStringSubmatch(number)
	if m == nil || m[1] != "55" {
		return number
	}
	ninth := m[3][0] - '0'
	ddd := (m[2][0]-'0')*10 + (m[2][1] - '0')
	if ninth < 7 || ddd < 31 {
		return number
	}
	return m[1] + m[2] + m[4]
}

// formatMXOrARNumber drops the mobile "1" infix from 13-digit Mexican
// and Argentinian numbers.
func formatMXOrARNumber(number string) string {
	if len(number) != 13 {
		return number
	}
	cc := number[:2]
	if cc != "52" && cc != "54" {
		return number
	}
	return cc + number[3:]
}
