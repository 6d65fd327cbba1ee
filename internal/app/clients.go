package app

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/propflow/propflow-backend/internal/billing"
	"github.com/propflow/propflow-backend/internal/platform/gcp"
	"github.com/propflow/propflow-backend/internal/platform/logger"
	"github.com/propflow/propflow-backend/internal/platform/openai"
	"github.com/propflow/propflow-backend/internal/platform/sendgrid"
	"github.com/propflow/propflow-backend/internal/realtime/bus"
)

type Clients struct {
	Bus      bus.Bus
	Bucket   gcp.BucketService
	OpenAI   openai.Client
	Sendgrid sendgrid.Client
	Catalog  *billing.Catalog
}

func wireClients(ctx context.Context, log *logger.Logger) (Clients, error) {
	log.Info("Wiring clients...")

	// Redis event bus. Optional: without it SSE events stay in-process.
	var eventBus bus.Bus
	if strings.TrimSpace(os.Getenv("REDIS_ADDR")) != "" {
		b, err := bus.NewRedisBus(log)
		if err != nil {
			return Clients{}, fmt.Errorf("init redis event bus: %w", err)
		}
		eventBus = b
	}

	bucket, err := gcp.NewBucketService(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init bucket client: %w", err)
	}

	aiClient, err := openai.NewClient(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init openai client: %w", err)
	}

	mailClient, err := sendgrid.NewFromEnv(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init sendgrid client: %w", err)
	}

	catalog, err := billing.LoadCatalogFromEnv(ctx, log)
	if err != nil {
		return Clients{}, fmt.Errorf("load plan catalog: %w", err)
	}

	return Clients{
		Bus:      eventBus,
		Bucket:   bucket,
		OpenAI:   aiClient,
		Sendgrid: mailClient,
		Catalog:  catalog,
	}, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Bus != nil {
		_ = c.Bus.Close()
	}
}
