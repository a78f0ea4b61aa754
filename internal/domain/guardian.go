package domain

import "time"

// Guardian — идентичность, которой разрешено запрашивать подпись.
// Ядро политики видит только имя (через Directory), остальные поля —
// для админки и персистентности.
type Guardian struct {
	ID        string    `json:"id"`   // UUID
	Name      string    `json:"name"` // Имя актора, по которому матчится политика
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
