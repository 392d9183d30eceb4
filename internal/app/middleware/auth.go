package middlware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	appContext "github.com/ujwegh/bookmart/internal/app/context"
	"github.com/ujwegh/bookmart/internal/app/handlers"
	"github.com/ujwegh/bookmart/internal/app/logger"
	"github.com/ujwegh/bookmart/internal/app/models"
	"github.com/ujwegh/bookmart/internal/app/service"
	"go.uber.org/zap"
)

type AuthMiddleware struct {
	tokenService   service.TokenService
	userService    service.UserService
	contextTimeout time.Duration
}

func NewAuthMiddleware(tokenService service.TokenService, userService service.UserService, contextTimeoutSec int) AuthMiddleware {
	return AuthMiddleware{
		tokenService:   tokenService,
		userService:    userService,
		contextTimeout: time.Duration(contextTimeoutSec) * time.Second,
	}
}

func (am *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(context.Background(), am.contextTimeout)
		defer cancel()

		authHeader := r.Header.Get("Authorization")
		parts := strings.Split(authHeader, "Bearer ")
		if len(parts) != 2 {
			handlers.WriteJSONErrorResponse(w, "Unauthorized: Missing token", http.StatusUnauthorized)
			return
		}
		token := parts[1]

		claims, err := am.tokenService.ParseToken(token)
		if err != nil {
			logger.Log.Error("failed to parse token", zap.Error(err))
			handlers.WriteJSONErrorResponse(w, "Unauthorized: Invalid token", http.StatusUnauthorized)
			return
		}

		userUID, err := uuid.Parse(claims.UserUID)
		if err != nil {
			handlers.WriteJSONErrorResponse(w, "Unauthorized: Invalid token", http.StatusUnauthorized)
			return
		}
		user, err := am.userService.GetByUUID(ctx, &userUID)
		if err != nil {
			logger.Log.Error("failed to get user", zap.Error(err))
			handlers.WriteJSONErrorResponse(w, "Unauthorized: User not found", http.StatusUnauthorized)
			return
		}

		err = appContext.GetContextError(ctx)
		if err != nil {
			handlers.PrepareError(w, err)
			return
		}

		// The role comes from the user row, not the token, so role
		// changes take effect without reissuing tokens.
		rctx := appContext.WithUserUID(r.Context(), &user.UUID)
		rctx = appContext.WithUserRole(rctx, user.Role)
		next.ServeHTTP(w, r.WithContext(rctx))
	})
}

// RequireRoles guards a route subtree to the given roles. It must run
// after Authenticate.
func RequireRoles(roles ...models.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := appContext.UserRole(r.Context())
			for _, allowed := range roles {
				if role == allowed {
					next.ServeHTTP(w, r)
					return
				}
			}
			handlers.WriteJSONErrorResponse(w, "Forbidden: Insufficient role", http.StatusForbidden)
		})
	}
}
