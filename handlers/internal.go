package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"time"

	"commercegate-payment-api/models"
	"commercegate-payment-api/services/auth"
	"commercegate-payment-api/utils"
)

// InternalHandler serves the endpoints trusted back-office systems call to
// obtain API tokens. Access is gated on a shared secret header, not on JWT.
type InternalHandler struct {
	jwtService     *auth.JWTService
	internalSecret string
}

func NewInternalHandler(jwtService *auth.JWTService) *InternalHandler {
	internalSecret := os.Getenv("INTERNAL_API_SECRET")
	if internalSecret == "" {
		log.Printf("Warning: INTERNAL_API_SECRET not set, internal endpoints disabled")
	}

	return &InternalHandler{
		jwtService:     jwtService,
		internalSecret: internalSecret,
	}
}

// RequireInternalSecret gates a handler on the shared internal secret.
func (h *InternalHandler) RequireInternalSecret(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		secret := r.Header.Get("X-Internal-Secret")
		if h.internalSecret == "" || secret != h.internalSecret {
			log.Printf("Invalid or missing internal secret from %s", r.RemoteAddr)
			utils.SendErrorResponse(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	}
}

// GenerateToken mints an access token for an integration identity.
func (h *InternalHandler) GenerateToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Role     string `json:"role"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("Error decoding token generation request: %v", err)
		utils.SendErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Username == "" {
		utils.SendErrorResponse(w, http.StatusBadRequest, "Username is required")
		return
	}
	if req.Role == "" {
		req.Role = "integration"
	}

	user := models.AuthUser{Username: req.Username, Role: req.Role}

	token, err := h.jwtService.GenerateToken(user, auth.AccessTokenDuration)
	if err != nil {
		log.Printf("Error generating access token: %v", err)
		utils.SendErrorResponse(w, http.StatusInternalServerError, "Failed to generate access token")
		return
	}

	log.Printf("Generated internal token for %s (role %s)", req.Username, req.Role)

	utils.SendSuccessResponse(w, models.APIResponse{
		Status:  "success",
		Message: "Token generated successfully",
		Data: map[string]interface{}{
			"token":      token,
			"expires_at": time.Now().Add(auth.AccessTokenDuration),
			"user":       user,
		},
	})
}

// ValidateToken checks a token on behalf of another internal system.
func (h *InternalHandler) ValidateToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		utils.SendErrorResponse(w, http.StatusBadRequest, "Token is required")
		return
	}

	user, err := h.jwtService.ValidateToken(req.Token)
	if err != nil {
		var message string
		switch err {
		case auth.ErrTokenExpired:
			message = "Token expired"
		default:
			message = "Invalid token"
		}
		utils.SendErrorResponse(w, http.StatusUnauthorized, message)
		return
	}

	utils.SendSuccessResponse(w, models.APIResponse{
		Status:  "success",
		Message: "Token is valid",
		Data:    user,
	})
}
