package storage

import "time"

// Balance is the lamport balance of one account.
type Balance struct {
	Address  string `gorm:"primaryKey"`
	Lamports uint64 `gorm:"not null;default:0"`
}

// LotteryState is the persisted lottery record, keyed by its derived state address.
type LotteryState struct {
	Address        string   `gorm:"primaryKey"`
	Admin          string   `gorm:"not null"`
	CustodyAddress string   `gorm:"not null"`
	StateBump      uint8    `gorm:"not null"`
	CustodyBump    uint8    `gorm:"not null"`
	CurrentRound   uint64   `gorm:"not null"`
	WinningNumbers []byte   `gorm:"not null"`
	Prizes         []uint64 `gorm:"serializer:json;not null"`
	CreatedAt      time.Time
}

type PlayRecord struct {
	ID           string    `gorm:"primaryKey"`
	StateAddress string    `gorm:"index;not null"`
	Player       string    `gorm:"index;not null"`
	Kind         PlayKind  `gorm:"not null"`
	Numbers      []byte    `gorm:"not null"`
	Tier         int       `gorm:"not null"`
	Prize        uint64    `gorm:"not null;default:0"`
	Charged      uint64    `gorm:"not null;default:0"`
	PlayedAt     time.Time `gorm:"index"`
}
