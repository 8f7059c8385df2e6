package config

import (
	"testing"

	domainerrors "curator/internal/domain/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := &Config{
		Firebase: &FirebaseConfig{
			APIKey:        "test-api-key",
			ProjectID:     "test-project",
			AuthDomain:    "test-project.firebaseapp.com",
			StorageBucket: "test-project.appspot.com",
		},
		Owner: &OwnerConfig{
			Username:   "admin",
			Credential: "seed-credential",
		},
	}
	cfg.applyDefaults()

	return cfg
}

func TestValidate_AllPresent(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestValidate_AggregatesEveryMissingName(t *testing.T) {
	cfg := validConfig()
	cfg.Firebase.APIKey = ""
	cfg.Firebase.StorageBucket = "  "
	cfg.Owner.Credential = ""

	err := cfg.Validate()
	require.Error(t, err)

	var missingErr *domainerrors.ConfigurationMissingError
	require.ErrorAs(t, err, &missingErr)
	assert.ElementsMatch(t,
		[]string{"firebase.apiKey", "firebase.storageBucket", "owner.credential"},
		missingErr.Missing(),
	)
}

func TestValidate_NilFirebaseReportsAllConnectionParams(t *testing.T) {
	cfg := validConfig()
	cfg.Firebase = nil

	err := cfg.Validate()
	require.Error(t, err)

	var missingErr *domainerrors.ConfigurationMissingError
	require.ErrorAs(t, err, &missingErr)
	assert.Contains(t, missingErr.Missing(), "firebase.projectId")
	assert.Contains(t, missingErr.Missing(), "firebase.authDomain")
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()

	assert.Equal(t, defaultLockoutThreshold, cfg.Auth.LockoutThreshold)
	assert.Equal(t, defaultLockoutWindow, cfg.Auth.LockoutWindow)
	assert.Equal(t, defaultIdleTimeout, cfg.Auth.IdleTimeout)
	assert.Equal(t, defaultOwnerUsername, cfg.Owner.Username)
}

func TestCanonicalizeEnvKey_UsesExistingCamelCaseKeys(t *testing.T) {
	existing := map[string]any{
		"firebase": map[string]any{
			"projectId":     "",
			"storageBucket": "",
		},
		"pubsub": map[string]any{
			"topicId": "",
		},
	}

	tests := []struct {
		envKey string
		want   string
	}{
		{envKey: "FIREBASE_PROJECTID", want: "firebase.projectId"},
		{envKey: "FIREBASE_STORAGEBUCKET", want: "firebase.storageBucket"},
		{envKey: "PUBSUB_TOPICID", want: "pubsub.topicId"},
		{envKey: "NEW_FEATURE_FLAG", want: "new.feature.flag"},
	}

	for _, tt := range tests {
		t.Run(tt.envKey, func(t *testing.T) {
			if got := canonicalizeEnvKey(tt.envKey, existing); got != tt.want {
				t.Fatalf("canonicalizeEnvKey(%q) = %q, want %q", tt.envKey, got, tt.want)
			}
		})
	}
}
