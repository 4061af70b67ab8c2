package cache

import (
	"context"
	"time"
)

// Cache là read-through cache cho các list promotion đang active.
// Key do caller tự đặt (vd "promotion:offers:active"), implementation có thể thêm prefix.
type Cache interface {
	// Get decode value vào dest. Miss trả (false, nil) và không đụng tới dest.
	Get(ctx context.Context, key string, dest interface{}) (bool, error)

	// Set ghi value với TTL; ttl = 0 nghĩa là không hết hạn
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	// Delete dùng để invalidate sau admin write; key không tồn tại không phải lỗi
	Delete(ctx context.Context, keys ...string) error

	Ping(ctx context.Context) error
}
