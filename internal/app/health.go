package app

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/taoyao-code/iohc-gateway/internal/health"
	redisstorage "github.com/taoyao-code/iohc-gateway/internal/storage/redis"
)

// NewHealthAggregator 创建健康检查聚合器，初始只含射频传输检查
func NewHealthAggregator(radio *Radio) *health.Aggregator {
	return health.NewAggregator(radio.Checker)
}

// RegisterHealthRoutes 注册健康检查HTTP路由
func RegisterHealthRoutes(r *gin.Engine, aggregator *health.Aggregator) {
	health.RegisterHTTPRoutes(r, aggregator)
}

// AddRedisChecker 添加Redis检查器到聚合器
func AddRedisChecker(aggregator *health.Aggregator, client *redisstorage.Client, queue *redisstorage.BurstQueue) {
	if client != nil {
		aggregator.AddChecker(health.NewRedisChecker(client, queue))
	}
}

// AddDatabaseChecker 添加数据库检查器到聚合器
func AddDatabaseChecker(aggregator *health.Aggregator, pool *pgxpool.Pool, set string) {
	if pool != nil {
		aggregator.AddChecker(health.NewDatabaseChecker(pool, set))
	}
}
