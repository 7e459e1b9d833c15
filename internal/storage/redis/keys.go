package redis

import (
	"fmt"

	"github.com/parley-chat/parley/internal/model"
)

// Key prefix for all chat-related data
const keyPrefix = "parley"

// accountKey returns the Redis key for an Account's password digest
func accountKey(username model.Username) string {
	return fmt.Sprintf("%s:account:%s", keyPrefix, username)
}
