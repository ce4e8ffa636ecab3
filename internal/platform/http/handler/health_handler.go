// Package handler はプラットフォームレベルのエンドポイント用HTTPハンドラーを提供します。
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// checkTimeout は各コンポーネントチェックの上限時間です。
const checkTimeout = 2 * time.Second

// Check は依存コンポーネント（DB、Redisなど）の疎通確認です。
type Check struct {
	Name string
	Fn   func(ctx context.Context) error
}

// Health はサービスヘルスチェック用の /healthz エンドポイントのハンドラーを返します。
// いずれかのチェックが失敗した場合は503と失敗したコンポーネント名を返します。
func Health(checks ...Check) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 明示的にキャッシュを防止
		c.Header("Cache-Control", "no-store")

		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}

		status := http.StatusOK
		components := make(map[string]string, len(checks))
		for _, chk := range checks {
			ctx, cancel := context.WithTimeout(c.Request.Context(), checkTimeout)
			err := chk.Fn(ctx)
			cancel()
			if err != nil {
				components[chk.Name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			components[chk.Name] = "ok"
		}

		if c.Request.Method == http.MethodHead {
			c.Status(status)
			return
		}

		body := gin.H{"status": "ok"}
		if status != http.StatusOK {
			body["status"] = "degraded"
		}
		if len(components) > 0 {
			body["components"] = components
		}
		c.JSON(status, body)
	}
}
