package store

import (
	"context"
	"fmt"

	"github.com/haolipeng/webstr/pkg/config"
)

// Open 根据配置创建规则存储
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.Store.Type {
	case config.StoreTypeFile:
		return NewFileStore(cfg.Store.Directory)
	case config.StoreTypePostgres:
		return OpenPostgres(ctx, cfg.Store.DSN, cfg.Store.Table)
	default:
		return nil, fmt.Errorf("unknown store type %q", cfg.Store.Type)
	}
}
