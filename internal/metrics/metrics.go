package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Métricas del registry de proveedores y del pipeline de conversión.
// Viven en un paquete propio para no acoplar provider/identity con el server HTTP.

var (
	ProviderBuilds = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "idbroker_provider_builds_total",
		Help: "Construcciones de instancias de proveedor por authority y resultado",
	}, []string{"authority", "result"})

	ProviderCacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "idbroker_provider_cache_lookups_total",
		Help: "Lookups en el cache de instancias (hit|miss|stale)",
	}, []string{"authority", "outcome"})

	ProviderRegistrations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "idbroker_provider_registrations_total",
		Help: "Intentos de registro de proveedores por resultado",
	}, []string{"authority", "result"})

	IdentityConversions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "idbroker_identity_conversions_total",
		Help: "Conversiones principal → identidad por resultado (created|updated|failed)",
	}, []string{"authority", "result"})

	IdentityConversionLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "idbroker_identity_conversion_latency_ms",
		Help:    "Latencia del pipeline de conversión en milisegundos",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	}, []string{"authority"})
)

// Register registra las métricas en el registry dado (o el default si es nil).
// Registrar dos veces no es un error.
func Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range []prometheus.Collector{
		ProviderBuilds,
		ProviderCacheLookups,
		ProviderRegistrations,
		IdentityConversions,
		IdentityConversionLatency,
	} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}
