package domain

// Intent — предложенный перевод ценности. Неизменяемый value-тип:
// после конструирования поля не мутируются, идентичность — только
// по равенству полей.
type Intent struct {
	To      string `json:"to"`       // Hex-адрес получателя ("0x" + 40 символов)
	Value   int64  `json:"value"`    // Сумма в атомарных единицах (wei)
	Data    string `json:"data"`     // Произвольный payload, по умолчанию "0x"
	ChainID int64  `json:"chain_id"` // Идентификатор сети, по умолчанию 1
	Nonce   int64  `json:"nonce"`    // По умолчанию 0
}

// SignedIntent — результат успешного прохода через шлюз.
// Производная структура: система её не хранит, только отдает вызывающему.
type SignedIntent struct {
	Intent Intent `json:"intent"`
	Actor  string `json:"actor"`
	Sig    string `json:"sig"` // "0x" + 64 hex-символа (HMAC-SHA256)
}
