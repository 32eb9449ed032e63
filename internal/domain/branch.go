package domain

import "time"

type Branch struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"createdAt"`
	Version   int32     `json:"-"`
}

type Position struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"` // 前端展示用的颜色，如 "#f59e0b"
	CreatedAt time.Time `json:"createdAt"`
	Version   int32     `json:"-"`
}
