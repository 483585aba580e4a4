package config_test

import (
	"testing"

	"github.com/corray333/backend-labs/pos/internal/config"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestSetDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	config.SetDefaults()

	assert.Equal(t, "postgres", viper.GetString("store.driver"))
	assert.Equal(t, 60, viper.GetInt("kitchen.dwell_alert_seconds"))
	assert.Equal(t, "pos.notifications", viper.GetString("rabbitmq.exchange"))
	assert.Equal(t, []string{"*"}, viper.GetStringSlice("server.http.cors.allowed_origins"))
}

func TestSetDefaults_DoNotOverrideExplicitValues(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("kitchen.dwell_alert_seconds", 90)
	config.SetDefaults()

	assert.Equal(t, 90, viper.GetInt("kitchen.dwell_alert_seconds"))
}
