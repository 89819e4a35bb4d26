package attrs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/openmes/aps/pkg/core"
	"github.com/openmes/aps/pkg/storage"
)

func newTestStorage(t *testing.T) *storage.GormStorage {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "open in-memory sqlite")

	s := storage.NewGormStorage(db)
	require.NoError(t, s.Migrate(context.Background()), "migrate schema")
	return s
}

func seedOrder(t *testing.T, s *storage.GormStorage, attrs ...core.OrderAttribute) int64 {
	t.Helper()
	order := &core.ProductionOrder{OrderNo: "SN-1", Status: core.OrderApproved}
	require.NoError(t, s.DB().Create(order).Error)
	for i := range attrs {
		attrs[i].OrderID = order.ID
		require.NoError(t, s.DB().Create(&attrs[i]).Error)
	}
	return order.ID
}

func TestResolve_DefaultsWhenNoAttributes(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)
	orderID := seedOrder(t, s)

	bundle, err := NewResolver(s).Resolve(ctx, orderID)
	require.NoError(t, err)

	assert.Equal(t, DefaultColor, bundle.Color)
	assert.Equal(t, DefaultMoldCode, bundle.MoldCode)
	assert.Equal(t, DefaultFixture, bundle.Fixture)
}

func TestResolve_FirstNonBlankValueWins(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)
	orderID := seedOrder(t, s,
		core.OrderAttribute{AttrKey: "color", AttrValue: "  "},
		core.OrderAttribute{AttrKey: "color", AttrValue: "RED"},
		core.OrderAttribute{AttrKey: "color", AttrValue: "BLUE"},
	)

	bundle, err := NewResolver(s).Resolve(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, "RED", bundle.Color, "blank rows skipped, first non-blank wins")
}

func TestResolve_AllRecognizedKeys(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)
	orderID := seedOrder(t, s,
		core.OrderAttribute{AttrKey: "color", AttrValue: "GREEN"},
		core.OrderAttribute{AttrKey: "mold_code", AttrValue: "M-42"},
		core.OrderAttribute{AttrKey: "fixture", AttrValue: "F-7"},
		core.OrderAttribute{AttrKey: "tooling", AttrValue: "ignored"},
	)

	bundle, err := NewResolver(s).Resolve(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, "GREEN", bundle.Color)
	assert.Equal(t, "M-42", bundle.MoldCode)
	assert.Equal(t, "F-7", bundle.Fixture)
}

func TestResolve_KeyMatchingIsCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)
	orderID := seedOrder(t, s,
		core.OrderAttribute{AttrKey: "Color", AttrValue: "RED"},
		core.OrderAttribute{AttrKey: "MOLD_CODE", AttrValue: "M-1"},
	)

	bundle, err := NewResolver(s).Resolve(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, "RED", bundle.Color)
	assert.Equal(t, "M-1", bundle.MoldCode)
}

func TestResolve_ValueWhitespaceTrimmed(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)
	orderID := seedOrder(t, s,
		core.OrderAttribute{AttrKey: "fixture", AttrValue: " F-9 "},
	)

	bundle, err := NewResolver(s).Resolve(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, "F-9", bundle.Fixture)
}
