package metrics

import (
	"database/sql"
	"log"

	"github.com/prometheus/client_golang/prometheus"
)

func registerDBMetrics(db *sql.DB, logger *log.Logger) {
	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "signatures",
			Help: "Stored signatures",
		},
		func() float64 {
			return queryCount(db, logger, "SELECT COUNT(*) FROM signatures")
		},
	))

	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "record_mappings",
			Help: "Equipment mapped to external records",
		},
		func() float64 {
			return queryCount(db, logger, "SELECT COUNT(*) FROM record_mappings")
		},
	))

	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "unnormalized_points",
			Help: "Points without a normalized name",
		},
		func() float64 {
			return queryCount(db, logger, "SELECT COUNT(*) FROM equipment_points WHERE normalized_name IS NULL OR normalized_name = ''")
		},
	))
}

func queryCount(db *sql.DB, logger *log.Logger, query string) float64 {
	if db == nil {
		return 0
	}
	var count int64
	if err := db.QueryRow(query).Scan(&count); err != nil {
		if logger != nil {
			logger.Printf("metrics query failed: %v", err)
		}
		return 0
	}
	if count < 0 {
		return 0
	}
	return float64(count)
}
