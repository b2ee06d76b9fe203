package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var AssetMutationAmount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "assetdesk_asset_mutation_amount",
	Help: "The total number of asset inserts and updates by outcome",
}, []string{"action", "outcome"})

var ListCacheHitAmount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "assetdesk_list_cache_hit_amount",
	Help: "The total number of asset list pages served from the cache",
})

var ListCacheMissAmount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "assetdesk_list_cache_miss_amount",
	Help: "The total number of asset list pages loaded from the store",
})

var InventorySyncAmount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "assetdesk_inventory_sync_amount",
	Help: "The total number of inventory sheet syncs by outcome",
}, []string{"outcome"})

var HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "assetdesk_http_request_duration_seconds",
	Help:    "Duration of HTTP requests by route and status",
	Buckets: prometheus.DefBuckets,
}, []string{"method", "route", "status"})
