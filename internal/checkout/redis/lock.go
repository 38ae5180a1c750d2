package redis

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// Redis holds short-lived per-item locks while a checkout is in flight, so
// two terminals rarely race the same item all the way to the conditional
// update. The TTL is a safety net for a terminal that dies mid-checkout.
type Redis struct {
	Client *redis.Client
	Logger *log.Logger
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{
		Client: client,
		Logger: log.Default(),
	}
}

// getItemLockDuration returns the item lock TTL from the environment or the
// default. Checkout is synchronous, so seconds are plenty.
func (r *Redis) getItemLockDuration() time.Duration {
	defaultDuration := 10 * time.Second

	lockTTLStr := os.Getenv("ITEM_LOCK_TTL_SECONDS")
	if lockTTLStr == "" {
		return defaultDuration
	}

	lockTTLSec, err := strconv.Atoi(lockTTLStr)
	if err != nil {
		r.Logger.Println("REDIS: Invalid ITEM_LOCK_TTL_SECONDS value '" + lockTTLStr + "', using default 10 seconds")
		return defaultDuration
	}

	return time.Duration(lockTTLSec) * time.Second
}

// LockItem locks a single item for the given order.
func (r *Redis) LockItem(itemID, orderID string) (bool, error) {
	key := "item_lock:" + itemID
	ok, err := r.Client.SetNX(context.Background(), key, orderID, r.getItemLockDuration()).Result()
	return ok, err
}

// UnlockItem releases a single item lock, but only if this order holds it.
func (r *Redis) UnlockItem(itemID, orderID string) error {
	ctx := context.Background()
	key := fmt.Sprintf("item_lock:%s", itemID)
	val, err := r.Client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil // already unlocked
	}
	if err != nil {
		return err
	}
	if val == orderID {
		_, err := r.Client.Del(ctx, key).Result()
		return err
	}
	return nil
}

// LockItems locks every item in the cart or none: a failed lock rolls back
// the ones already taken.
func (r *Redis) LockItems(itemIDs []string, orderID string) (bool, error) {
	locked := []string{}
	for _, itemID := range itemIDs {
		ok, err := r.LockItem(itemID, orderID)
		if err != nil {
			for _, l := range locked {
				_ = r.UnlockItem(l, orderID)
			}
			return false, err
		}
		if !ok {
			for _, l := range locked {
				_ = r.UnlockItem(l, orderID)
			}
			return false, nil
		}
		locked = append(locked, itemID)
	}
	return true, nil
}

// UnlockItems releases all locks held by an order.
func (r *Redis) UnlockItems(itemIDs []string, orderID string) error {
	var firstErr error
	for _, itemID := range itemIDs {
		err := r.UnlockItem(itemID, orderID)
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
