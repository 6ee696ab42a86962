package game

import (
	"strings"

	"github.com/google/uuid"
)

func GenID() string {
	id, err := uuid.NewV7()
	if err != nil {
		panic("Failed to generate UUID: " + err.Error())
	}

	return id.String()
}

// GenShortID 取 UUIDv7 的随机尾部，避免同一毫秒内生成的 ID 前缀相同
func GenShortID() string {
	id := GenID()
	return id[len(id)-8:]
}

// GenRoomID 生成 8 位大写房间号
func GenRoomID() string {
	return strings.ToUpper(uuid.New().String()[:8])
}
