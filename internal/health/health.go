package health

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/blackgym/storefront/internal/config"
	"github.com/hellofresh/health-go/v5"
	healthRedis "github.com/hellofresh/health-go/v5/checks/redis"
)

func NewHealthHandler(cfg *config.Config) (*health.Health, error) {

	checks := []health.Config{
		{
			Name:      "backend",
			Timeout:   3 * time.Second,
			SkipOnErr: false,
			Check: func(ctx context.Context) error {
				req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.Backend.BaseURL+"/api/productos?limit=1", nil)
				if err != nil {
					return fmt.Errorf("failed to build backend probe: %w", err)
				}

				resp, err := http.DefaultClient.Do(req)
				if err != nil {
					return fmt.Errorf("failed to reach backend: %w", err)
				}
				defer resp.Body.Close()

				if resp.StatusCode >= http.StatusInternalServerError {
					return fmt.Errorf("backend returned status %d", resp.StatusCode)
				}

				return nil
			},
		},
	}

	if cfg.CartStorage.Backend == "redis" {
		checks = append(checks, health.Config{
			Name:      "redis",
			Timeout:   2 * time.Second,
			SkipOnErr: false,
			Check: healthRedis.New(
				healthRedis.Config{
					DSN: cfg.CartStorage.Redis.GetDSN(),
				},
			),
		})
	}

	h, err := health.New(
		health.WithComponent(health.Component{

			Name:    "blackgym-storefront",
			Version: "1.0.0",
		}),
		health.WithSystemInfo(),
		health.WithChecks(checks...),
	)

	if err != nil {
		return nil, fmt.Errorf("failed to create health instance: %w", err)
	}

	return h, nil
}
