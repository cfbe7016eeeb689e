package testutils

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/kvwire/kvwire/pkg/common"
)

var (
	Logger          = common.InitLogger().WithName("[Client-TEST]")
	MockServerAddr  = "127.0.0.1:6380"
	reachBackoffOpt = backoff.WithMaxElapsedTime(10 * time.Second)
)

func GenerateKey(cmd string) string {
	timestamp := time.Now().UnixMilli()
	key := fmt.Sprintf("client_test_%s_%d", cmd, timestamp)
	return key
}

// WaitReachable blocks until a TCP dial to addr succeeds, backing off
// between attempts.
func WaitReachable(ctx context.Context, addr string) error {
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		conn, dialErr := net.DialTimeout("tcp", addr, time.Second)
		if dialErr != nil {
			return struct{}{}, dialErr
		}
		_ = conn.Close()
		return struct{}{}, nil
	}, reachBackoffOpt)
	return err
}
