package guardians

import (
	"context"
	"time"

	"github.com/avast/retry-go/v5"
	"github.com/sony/gobreaker"
)

// Reliable оборачивает Directory в Retries + Circuit Breaker.
// Ответ на вопрос "авторизован ли актор" — критический путь подписи:
// если источник деградировал, предохранитель размыкается и шлюз
// отвечает отказом (fail-closed), а не виснет на таймаутах.
type Reliable struct {
	next Directory
	cb   *gobreaker.CircuitBreaker
}

// NewReliable собирает обертку. stateHook (опционально) дергается при
// смене состояния предохранителя — шлюз вешает на него гейдж метрики.
func NewReliable(next Directory, stateHook func(open bool)) *Reliable {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "guardian-directory",
		MaxRequests: 3,
		Interval:    5 * time.Second,
		Timeout:     30 * time.Second, // Время, через которое CB попробует "закрыться"
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			// Более 5 ошибок подряд — открываемся (блокируем трафик)
			return counts.ConsecutiveFailures > 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if stateHook != nil {
				stateHook(to == gobreaker.StateOpen)
			}
		},
	})

	return &Reliable{next: next, cb: cb}
}

func (w *Reliable) IsGuardian(ctx context.Context, name string) (bool, error) {
	result, err := w.cb.Execute(func() (interface{}, error) {
		r := retry.New(
			retry.Context(ctx),
			retry.Attempts(3),
			retry.DelayType(retry.BackOffDelay),
		)

		var authorized bool
		retryErr := r.Do(func() error {
			tCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			defer cancel()

			var callErr error
			authorized, callErr = w.next.IsGuardian(tCtx, name)
			return callErr
		})

		return authorized, retryErr
	})

	if err != nil {
		// Fail-closed: вызывающая сторона трактует ошибку как неавторизован
		return false, err
	}

	return result.(bool), nil
}
