package config

import (
	"os"
	"strconv"
	"time"
)

// parseEnv overlays Config fields from environment variables. Callers are
// expected to have loaded a .env file beforehand (godotenv) so that local
// development works the same way as a containerized deployment.
//
// Recognized variables:
//
//	PARLEY_ADDR, PARLEY_DATABASE_DSN, PARLEY_SECRET_KEY,
//	PARLEY_ACCESS_TOKEN_TTL, PARLEY_REFRESH_TOKEN_TTL,
//	PARLEY_PRESENCE_WINDOW, PARLEY_CALL_INVITE_TTL,
//	PARLEY_CALL_ROOM_URL_TEMPLATE, PARLEY_ALLOWED_ORIGINS,
//	PARLEY_S3_ROOT_USER, PARLEY_S3_ROOT_PASSWORD,
//	PARLEY_AVATAR_BUCKET, PARLEY_CHAT_IMAGE_BUCKET,
//	PARLEY_S3_REGION, PARLEY_S3_BASE_ENDPOINT, PARLEY_MAX_UPLOAD_BYTES
//
// Duration values use Go syntax ("15m", "45s"). Malformed values are
// ignored in favor of whatever the config already holds.
func parseEnv(config *Config) {
	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	setDuration := func(key string, dst *time.Duration) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			if d, err := time.ParseDuration(v); err == nil {
				*dst = d
			}
		}
	}

	setString("PARLEY_ADDR", &config.EndpointAddr)
	setString("PARLEY_DATABASE_DSN", &config.DatabaseDSN)
	setString("PARLEY_SECRET_KEY", &config.SecretKey)
	setDuration("PARLEY_ACCESS_TOKEN_TTL", &config.AccessTokenValidityDuration)
	setDuration("PARLEY_REFRESH_TOKEN_TTL", &config.RefreshTokenValidityDuration)
	setDuration("PARLEY_PRESENCE_WINDOW", &config.PresenceWindow)
	setDuration("PARLEY_CALL_INVITE_TTL", &config.CallInviteTTL)
	setString("PARLEY_CALL_ROOM_URL_TEMPLATE", &config.CallRoomURLTemplate)

	if v, ok := os.LookupEnv("PARLEY_ALLOWED_ORIGINS"); ok && v != "" {
		config.AllowedOrigins = splitOrigins(v)
	}

	setString("PARLEY_S3_ROOT_USER", &config.S3RootUser)
	setString("PARLEY_S3_ROOT_PASSWORD", &config.S3RootPassword)
	setString("PARLEY_AVATAR_BUCKET", &config.AvatarBucket)
	setString("PARLEY_CHAT_IMAGE_BUCKET", &config.ChatImageBucket)
	setString("PARLEY_S3_REGION", &config.S3Region)
	setString("PARLEY_S3_BASE_ENDPOINT", &config.S3BaseEndpoint)

	if v, ok := os.LookupEnv("PARLEY_MAX_UPLOAD_BYTES"); ok && v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			config.MaxUploadBytes = n
		}
	}
}
