package ownership

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
)

var (
	ErrAssetExists   = errors.New("asset already minted")
	ErrAssetNotFound = errors.New("asset not found")
	ErrWrongHolder   = errors.New("asset not held by expected owner")
)

// Redis tracks ticket holders in redis, one key per asset. Minting is a
// SETNX so an id can never be bound twice; transfer and burn verify the
// current holder before touching the key.
type Redis struct {
	Client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{Client: client}
}

func assetKey(ticketID int64) string {
	return fmt.Sprintf("ticket_owner:%d", ticketID)
}

func (r *Redis) MintAsset(ctx context.Context, ticketID int64, owner string) error {
	ok, err := r.Client.SetNX(ctx, assetKey(ticketID), owner, 0).Result()
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: ticket %d", ErrAssetExists, ticketID)
	}
	return nil
}

func (r *Redis) OwnerOf(ctx context.Context, ticketID int64) (string, error) {
	owner, err := r.Client.Get(ctx, assetKey(ticketID)).Result()
	if err == redis.Nil {
		return "", fmt.Errorf("%w: ticket %d", ErrAssetNotFound, ticketID)
	}
	if err != nil {
		return "", err
	}
	return owner, nil
}

func (r *Redis) TransferAsset(ctx context.Context, ticketID int64, from, to string) error {
	owner, err := r.OwnerOf(ctx, ticketID)
	if err != nil {
		return err
	}
	if owner != from {
		return fmt.Errorf("%w: ticket %d held by %s", ErrWrongHolder, ticketID, owner)
	}
	return r.Client.Set(ctx, assetKey(ticketID), to, 0).Err()
}

func (r *Redis) BurnAsset(ctx context.Context, ticketID int64) error {
	deleted, err := r.Client.Del(ctx, assetKey(ticketID)).Result()
	if err != nil {
		return err
	}
	if deleted == 0 {
		return fmt.Errorf("%w: ticket %d", ErrAssetNotFound, ticketID)
	}
	return nil
}
