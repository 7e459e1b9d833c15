package model

// Username identifies a registered account. Usernames are unique and never
// reassigned.
type Username string

// ConnectionID identifies one live transport-level channel, independent of
// authentication state.
type ConnectionID string

// RoomName identifies a chat room.
type RoomName string

// Account is a registered username and its password digest. Accounts are
// created on registration and never deleted.
type Account struct {
	Username Username
	Digest   string
}
