package docs

// @title           GPS Telemetry Ingestion API
// @version         1.0
// @description     Monitoring surface of the GPS ingestion pipeline. Reports health, throughput counters and Prometheus metrics of the nav.pvt to time-series bridge.

// @license.name  MIT

// @host      localhost:3010
// @BasePath  /
