package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveJWTSecret(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		env     string
		secret  string
		want    string
		wantErr error
	}{
		{name: "configured secret wins", env: EnvProduction, secret: "s3cr3t", want: "s3cr3t"},
		{name: "development fallback", env: EnvDevelopment, secret: "", want: devJWTSecret},
		{name: "test env fallback", env: "test", secret: "", want: devJWTSecret},
		{name: "production requires secret", env: EnvProduction, secret: "", wantErr: ErrMissingJWTSecret},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ResolveJWTSecret(tt.env, tt.secret)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestLoad_ProductionWithoutSecretFails(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.ErrorIs(t, err, ErrMissingJWTSecret)
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("JWT_SECRET", "abc")
	t.Setenv("SERVER_PORT", "")
	t.Setenv("SOFT_DELETE_GRACE", "")
	t.Setenv("KAFKA_BROKERS", " k1:9092, ,k2:9092 ")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.AppEnv)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, []byte("abc"), cfg.JWTSecret)
	assert.Equal(t, 60*time.Second, cfg.SoftDeleteGrace)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
}

func TestEnvDurationDefault_InvalidFallsBack(t *testing.T) {
	t.Setenv("SWEEP_INTERVAL", "soon")
	assert.Equal(t, time.Minute, EnvDurationDefault("SWEEP_INTERVAL", time.Minute))

	t.Setenv("SWEEP_INTERVAL", "90s")
	assert.Equal(t, 90*time.Second, EnvDurationDefault("SWEEP_INTERVAL", time.Minute))
}
