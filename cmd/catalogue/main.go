package main

import (
	"context"
	"os"

	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	appkg "github.com/spheraeng/catalogue-client/internal/app"
)

func main() {
	app.Run(func(ctx context.Context, lg *zap.Logger, m *app.Telemetry) error {
		cfg, err := appkg.LoadConfig()
		if err != nil {
			return err
		}
		a, err := appkg.New(cfg, m.TracerProvider(), m.MeterProvider(), os.Stdout)
		if err != nil {
			return err
		}
		return newRootCommand(a).ExecuteContext(zctx.Base(ctx, lg))
	})
}
