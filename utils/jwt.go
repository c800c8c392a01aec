package utils

import (
	"errors"
	"fmt"
	"time"

	"clinq/config"

	"github.com/golang-jwt/jwt"
)

func secretKey() []byte {
	return []byte(config.AppConfig.JWTSecret)
}

// StaffClaims is what a staff token carries after validation.
type StaffClaims struct {
	StaffID  string
	ClinicID string
	Role     string
}

// GenerateStaffToken creates a signed JWT for a staff member of one clinic.
func GenerateStaffToken(staffID, clinicID, role string, duration time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":      staffID,
		"clinicId": clinicID,
		"role":     role,
		"iat":      time.Now().Unix(),
		"exp":      time.Now().Add(duration).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secretKey())
}

// ValidateToken parses and validates a token string and returns the token if valid.
func ValidateToken(tokenString string) (*jwt.Token, error) {
	return jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secretKey(), nil
	})
}

// ExtractStaffClaims validates a staff token and pulls out its identity claims.
func ExtractStaffClaims(tokenString string) (*StaffClaims, error) {
	token, err := ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, fmt.Errorf("token missing 'sub' claim")
	}
	clinicID, _ := claims["clinicId"].(string)
	role, _ := claims["role"].(string)
	return &StaffClaims{StaffID: sub, ClinicID: clinicID, Role: role}, nil
}
