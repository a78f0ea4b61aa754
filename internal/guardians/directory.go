package guardians

import "context"

// Directory — внешний поставщик множества опекунов (guardian set).
// Ядро политики задает ему ровно один вопрос: авторизован ли актор.
// Источник может быть чем угодно: статичный набор, Redis, Postgres.
type Directory interface {
	IsGuardian(ctx context.Context, name string) (bool, error)
}

// Static — фиксированный набор имен. Используется в CLI-режиме,
// где актор сам устанавливается единственным опекуном на время вызова.
type Static struct {
	names map[string]struct{}
}

func NewStatic(names ...string) *Static {
	s := &Static{names: make(map[string]struct{}, len(names))}
	for _, n := range names {
		s.names[n] = struct{}{}
	}
	return s
}

func (s *Static) IsGuardian(_ context.Context, name string) (bool, error) {
	_, ok := s.names[name]
	return ok, nil
}
