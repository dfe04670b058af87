package middleware

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	appErrors "github.com/campus-attend/attendance-api/pkg/errors"
	"github.com/campus-attend/attendance-api/pkg/response"
)

// ContextDeviceKey is the gin context key storing the scanner device claims.
const ContextDeviceKey = "scannerDevice"

// DeviceClaims identifies a provisioned scanner device.
type DeviceClaims struct {
	DeviceID string `json:"device_id"`
	jwt.RegisteredClaims
}

// ScannerToken guards the scan endpoints: requests must carry a bearer
// token signed with the shared device secret. This identifies the device,
// nothing more.
func ScannerToken(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "device token required"))
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			c.Abort()
			return
		}

		claims := &DeviceClaims{}
		token, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid || claims.DeviceID == "" {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid device token"))
			c.Abort()
			return
		}

		c.Set(ContextDeviceKey, claims)
		c.Next()
	}
}
