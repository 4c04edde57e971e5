package catalog

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	catalogProducts = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "catalog_products",
		Help: "Number of products in the installed catalog snapshot.",
	})

	catalogRefreshes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_refresh_total",
			Help: "Catalog refresh attempts by outcome.",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(catalogProducts, catalogRefreshes)
}
