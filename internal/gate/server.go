package gate

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xela07ax/vaultgate-prototype/internal/domain"
	"github.com/xela07ax/vaultgate-prototype/internal/infra/auth"
)

// IntentSigner — то, что шлюзу нужно от ядра Vault.
type IntentSigner interface {
	Sign(ctx context.Context, intent domain.Intent, actor string) (*domain.SignedIntent, error)
}

// GuardianAdmin — админ-операции над множеством опекунов.
type GuardianAdmin interface {
	List(ctx context.Context) ([]domain.Guardian, error)
	Get(ctx context.Context, name string) (*domain.Guardian, error)
	Add(ctx context.Context, name string) error
	Remove(ctx context.Context, name string) error
}

// TokenIssuer выдает токены операторам админки.
type TokenIssuer interface {
	GenerateToken(username, password string) (*domain.TokenResponse, error)
}

type Server struct {
	router *chi.Mux
	logger *zap.Logger

	vault     IntentSigner
	guardians GuardianAdmin
	auth      TokenIssuer

	// Проверка токенов на защищенном периметре (RS256)
	authValidator auth.TokenValidator

	metrics *Metrics
	limiter *rate.Limiter
}

// NewServer инициализирует HTTP-шлюз со всеми зависимостями
func NewServer(
	logger *zap.Logger,
	vault IntentSigner,
	guardians GuardianAdmin,
	authSvc TokenIssuer,
	authValidator auth.TokenValidator,
	metrics *Metrics,
) *Server {
	s := &Server{
		router:        chi.NewRouter(),
		logger:        logger.Named("gate"),
		vault:         vault,
		guardians:     guardians,
		auth:          authSvc,
		authValidator: authValidator,
		metrics:       metrics,
		limiter:       rate.NewLimiter(rate.Limit(100), 20),
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router

	// --- 1. Глобальные инфраструктурные Middleware (для всех) ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(TracingMiddleware)
	r.Use(RateLimitMiddleware(s.limiter, s.metrics))

	// --- 2. ПУБЛИЧНЫЕ РОУТЫ ---
	r.Group(func(r chi.Router) {
		// Логин оператора доступен без токена
		r.Post("/auth/token", s.handleLogin)

		// Подпись: актор авторизуется самой политикой (по имени
		// в множестве опекунов), транспортного токена не требует
		r.Post("/v1/sign", s.handleSign)

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
	})

	// --- 3. ЗАЩИЩЕННЫЙ ПЕРИМЕТР (админка, RS256 токен) ---
	r.Group(func(r chi.Router) {
		r.Use(auth.NewMiddleware(s.authValidator, s.logger))

		r.Route("/v1/guardians", func(r chi.Router) {
			r.Get("/", s.handleListGuardians)
			r.Post("/", s.handleAddGuardian)
			r.Route("/{name}", func(r chi.Router) {
				r.Get("/", s.handleGetGuardian)
				r.Delete("/", s.handleRemoveGuardian)
			})
		})
	})
}

// ServeHTTP позволяет использовать Server как стандартный http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
