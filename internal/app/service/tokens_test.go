package service

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ujwegh/bookmart/internal/app/models"
)

func TestTokenServiceImpl_ParseToken(t *testing.T) {
	validSecretKey := "super-duper-secret"
	differentSecretKey := "different-secret-key"
	user := &models.User{UUID: uuid.New(), Role: models.CLIENT}

	type fields struct {
		secretKey     string
		tokenLifetime time.Duration
	}
	tests := []struct {
		name        string
		fields      fields
		tokenString func(t *testing.T) string
		wantUserUID string
		wantRole    models.UserRole
		wantErr     bool
		expectedErr string
	}{
		{
			name:   "Valid Token Round Trip",
			fields: fields{secretKey: validSecretKey, tokenLifetime: time.Hour},
			tokenString: func(t *testing.T) string {
				ts := TokenServiceImpl{secretKey: validSecretKey, tokenLifetime: time.Hour}
				token, err := ts.GenerateToken(user)
				if err != nil {
					t.Fatalf("GenerateToken() error = %v", err)
				}
				return token
			},
			wantUserUID: user.UUID.String(),
			wantRole:    models.CLIENT,
		},
		{
			name:   "Invalid Token",
			fields: fields{secretKey: validSecretKey, tokenLifetime: time.Hour},
			tokenString: func(t *testing.T) string {
				return "invalid-token"
			},
			wantErr:     true,
			expectedErr: "token contains an invalid number of segments",
		},
		{
			name:   "Expired Token",
			fields: fields{secretKey: validSecretKey, tokenLifetime: time.Hour},
			tokenString: func(t *testing.T) string {
				ts := TokenServiceImpl{secretKey: validSecretKey, tokenLifetime: -time.Minute}
				token, err := ts.GenerateToken(user)
				if err != nil {
					t.Fatalf("GenerateToken() error = %v", err)
				}
				return token
			},
			wantErr:     true,
			expectedErr: "token is expired",
		},
		{
			name:   "Token Signed With Different Key",
			fields: fields{secretKey: validSecretKey, tokenLifetime: time.Hour},
			tokenString: func(t *testing.T) string {
				ts := TokenServiceImpl{secretKey: differentSecretKey, tokenLifetime: time.Hour}
				token, err := ts.GenerateToken(user)
				if err != nil {
					t.Fatalf("GenerateToken() error = %v", err)
				}
				return token
			},
			wantErr:     true,
			expectedErr: "signature is invalid",
		},
		{
			name:   "Token Without User UID",
			fields: fields{secretKey: validSecretKey, tokenLifetime: time.Hour},
			tokenString: func(t *testing.T) string {
				ts := TokenServiceImpl{secretKey: validSecretKey, tokenLifetime: time.Hour}
				token, err := ts.GenerateToken(&models.User{Role: models.CLIENT})
				if err != nil {
					t.Fatalf("GenerateToken() error = %v", err)
				}
				return token
			},
			wantUserUID: uuid.Nil.String(),
			wantRole:    models.CLIENT,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := TokenServiceImpl{
				secretKey:     tt.fields.secretKey,
				tokenLifetime: tt.fields.tokenLifetime,
			}
			claims, err := ts.ParseToken(tt.tokenString(t))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseToken() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !strings.Contains(err.Error(), tt.expectedErr) {
					t.Errorf("ParseToken() unexpected error message = %v, want %v", err, tt.expectedErr)
				}
				return
			}
			if claims.UserUID != tt.wantUserUID {
				t.Errorf("ParseToken() UserUID = %v, want %v", claims.UserUID, tt.wantUserUID)
			}
			if claims.Role != tt.wantRole {
				t.Errorf("ParseToken() Role = %v, want %v", claims.Role, tt.wantRole)
			}
		})
	}
}
