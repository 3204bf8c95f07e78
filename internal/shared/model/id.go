package model

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// NewID 生成带前缀的随机 ID，如 "user-3fa85f64c1d2"
func NewID(prefix string) string {
	buf := make([]byte, 6)
	rand.Read(buf)
	return fmt.Sprintf("%s-%s", prefix, hex.EncodeToString(buf))
}
