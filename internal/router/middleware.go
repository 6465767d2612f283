package router

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"greencart.dev/storefront/pkg/global"
)

const (
	userIDKey    = "userId"
	requestIDKey = "requestId"

	userCookie   = "token"
	sellerCookie = "sellerToken"
)

type UserClaims struct {
	ID string `json:"id"`
	jwt.RegisteredClaims
}

type SellerClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Authenticator validates the cookies issued by the login service.
type Authenticator struct {
	secret      []byte
	sellerEmail string
}

func NewAuthenticator(secret, sellerEmail string) *Authenticator {
	return &Authenticator{secret: []byte(secret), sellerEmail: sellerEmail}
}

func (a *Authenticator) parse(tokenString string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return err
	}
	if !token.Valid {
		return jwt.ErrTokenInvalidClaims
	}
	return nil
}

// notAuthorized answers with HTTP 200 because the storefront client only looks at success.
func notAuthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusOK, global.ErrorResponse("Not Authorized", nil))
}

// User requires a valid token cookie and puts the user id on the context. Any userId in the
// request body is ignored by the handlers.
func (a *Authenticator) User() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := c.Cookie(userCookie)
		if err != nil || tokenString == "" {
			notAuthorized(c)
			return
		}
		claims := &UserClaims{}
		if err := a.parse(tokenString, claims); err != nil || claims.ID == "" {
			log.Debug().Err(err).Msg("rejected user token")
			notAuthorized(c)
			return
		}
		c.Set(userIDKey, claims.ID)
		c.Next()
	}
}

func (a *Authenticator) Seller() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := c.Cookie(sellerCookie)
		if err != nil || tokenString == "" {
			notAuthorized(c)
			return
		}
		claims := &SellerClaims{}
		if err := a.parse(tokenString, claims); err != nil || a.sellerEmail == "" || claims.Email != a.sellerEmail {
			log.Debug().Err(err).Msg("rejected seller token")
			notAuthorized(c)
			return
		}
		c.Next()
	}
}

// RequestLogger tags each request with an id and logs it once it completes.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Header("X-Request-ID", requestID)

		c.Next()

		status := c.Writer.Status()
		event := log.Info()
		if status >= http.StatusInternalServerError {
			event = log.Error()
		}
		event.
			Str("requestId", requestID).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("clientIp", c.ClientIP()).
			Msg("request")
	}
}

// RateLimiter keeps one token bucket per client IP.
type RateLimiter struct {
	visitors map[string]*rate.Limiter
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	ttl      time.Duration
}

func NewRateLimiter(limit rate.Limit, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		visitors: make(map[string]*rate.Limiter),
		limit:    limit,
		burst:    burst,
		ttl:      10 * time.Minute,
	}
}

func (rl *RateLimiter) getLimiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if limiter, exists := rl.visitors[ip]; exists {
		return limiter
	}
	limiter := rate.NewLimiter(rl.limit, rl.burst)
	rl.visitors[ip] = limiter

	// Forget idle clients
	time.AfterFunc(rl.ttl, func() {
		rl.mu.Lock()
		delete(rl.visitors, ip)
		rl.mu.Unlock()
	})
	return limiter
}

func (rl *RateLimiter) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.getLimiter(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, global.ErrorResponse("Too many requests", nil))
			return
		}
		c.Next()
	}
}
