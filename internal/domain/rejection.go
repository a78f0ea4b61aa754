package domain

import (
	"errors"
	"fmt"
)

// RejectionCode — стабильный машинный код отказа политики.
// Текст сообщения может меняться, код — контракт для метрик и клиентов.
type RejectionCode string

const (
	CodeActorNotAuthorized RejectionCode = "ACTOR_NOT_AUTHORIZED"
	CodeNegativeValue      RejectionCode = "NEGATIVE_VALUE"
	CodeValueExceedsLimit  RejectionCode = "VALUE_EXCEEDS_LIMIT"
	CodeMalformedRecipient RejectionCode = "MALFORMED_RECIPIENT"
	CodeCooldownViolation  RejectionCode = "COOLDOWN_VIOLATION"
)

// Rejection — отказ политики как значение, а не как паника.
// Вся таксономия ошибок шлюза — один тип, отличие только в коде и тексте.
// На границах (CLI, HTTP) матчится через errors.As и превращается
// в структурированный ответ {"error": ...}.
type Rejection struct {
	Code    RejectionCode
	Message string
}

func (r *Rejection) Error() string { return r.Message }

func ErrActorNotAuthorized() *Rejection {
	return &Rejection{Code: CodeActorNotAuthorized, Message: "actor not authorized"}
}

func ErrNegativeValue() *Rejection {
	return &Rejection{Code: CodeNegativeValue, Message: "negative value"}
}

// ErrValueExceedsLimit несет сам лимит в тексте — оператору сразу видно порог.
func ErrValueExceedsLimit(daily int64) *Rejection {
	return &Rejection{
		Code:    CodeValueExceedsLimit,
		Message: fmt.Sprintf("value exceeds daily limit %d", daily),
	}
}

func ErrMalformedRecipient() *Rejection {
	return &Rejection{Code: CodeMalformedRecipient, Message: "bad recipient"}
}

func ErrCooldownViolation() *Rejection {
	return &Rejection{Code: CodeCooldownViolation, Message: "cooldown not satisfied"}
}

// AsRejection безопасно достает отказ политики из цепочки ошибок.
func AsRejection(err error) (*Rejection, bool) {
	var rej *Rejection
	if errors.As(err, &rej) {
		return rej, true
	}
	return nil, false
}
