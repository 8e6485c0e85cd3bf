package redisx

import (
	"fmt"
	"time"
)

const (
	// idem:order:checkout:{user_id}:{client key} -> order_id
	KeyIdemCheckout = "idem:order:checkout:%s:%s"

	// dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLIdempotency = 24 * time.Hour
	TTLDedup       = 48 * time.Hour
)

func IdemCheckoutKey(userID, key string) string { return fmt.Sprintf(KeyIdemCheckout, userID, key) }

func DedupKey(service, id string) string { return fmt.Sprintf(KeyDedup, service, id) }
