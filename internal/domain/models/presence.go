package models

// PresenceEntry is the ephemeral identity a client announces into a
// document room. It exists only while the realtime connection is active
// and is never persisted.
type PresenceEntry struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	CursorColor string `json:"cursor_color,omitempty"`
}
