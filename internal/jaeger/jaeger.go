package jaeger

import (
	"fmt"

	"github.com/spf13/viper"
	"go.opentelemetry.io/otel/exporters/jaeger"
)

// MustNewJaeger builds the collector exporter from the otel.jaeger_* keys.
func MustNewJaeger() *jaeger.Exporter {
	opts := []jaeger.CollectorEndpointOption{
		jaeger.WithEndpoint(viper.GetString("otel.jaeger_endpoint")),
	}
	if user := viper.GetString("otel.jaeger_user"); user != "" {
		opts = append(opts,
			jaeger.WithUsername(user),
			jaeger.WithPassword(viper.GetString("otel.jaeger_password")),
		)
	}

	exp, err := jaeger.New(jaeger.WithCollectorEndpoint(opts...))
	if err != nil {
		panic(fmt.Sprintf("failed to create jaeger exporter: %v", err))
	}

	return exp
}
