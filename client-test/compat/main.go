// Differential harness: runs the same command sequence through the
// reference go-redis client and through kvwire against one server, then
// diffs the observed results. Defaults to an in-process mock server; use
// --addr to point both clients at a real one.
package main

import (
	"bytes"
	"context"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"time"

	"github.com/alecthomas/kong"
	"github.com/cespare/xxhash/v2"
	"github.com/redis/go-redis/v9"
	"github.com/samber/lo"

	"github.com/kvwire/kvwire/pkg/client"
	"github.com/kvwire/kvwire/pkg/common"
	"github.com/kvwire/kvwire/pkg/mockserver"

	"github.com/kvwire/kvwire/client-test/testutils"
)

var logger = common.InitLogger().WithName("compat")

type CompatConfig struct {
	Addr string `help:"Server address. Empty starts an in-process mock server." default:""`
	Seed int64  `help:"Seed for generated payloads" default:"1"`
}

type harness struct {
	ctx      context.Context
	rdb      *redis.Client
	kv       *client.Conn
	failures int
}

func main() {
	var cfg CompatConfig
	kong.Parse(&cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	addr := cfg.Addr
	if addr == "" {
		srv := mockserver.NewServer(&mockserver.Config{Port: 6380})
		go func() {
			if err := srv.Start(); err != nil {
				logger.Error(err, "mock server exited")
			}
		}()
		defer srv.Shutdown(context.Background())
		addr = testutils.MockServerAddr
	}
	if err := testutils.WaitReachable(ctx, addr); err != nil {
		logger.Error(err, "Server not reachable", "Addr", addr)
		os.Exit(1)
	}

	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()
	kv, err := client.DialWithRetry(ctx, addr, client.WithStats())
	if err != nil {
		logger.Error(err, "kvwire dial failed", "Addr", addr)
		os.Exit(1)
	}
	defer kv.Close()

	h := &harness{ctx: ctx, rdb: rdb, kv: kv}
	h.runStrings(cfg.Seed)
	h.runCounters()
	h.runHashes()
	h.runLists()
	h.runErrors()

	logger.Info("Compat run complete", "Failures", h.failures,
		"Commands", kv.Stats().Snapshot())
	if h.failures > 0 {
		os.Exit(1)
	}
}

func (h *harness) check(name string, ok bool, detail string) {
	if ok {
		logger.Info("PASS", "Case", name)
		return
	}
	h.failures++
	logger.Info("FAIL", "Case", name, "Detail", detail)
}

// runStrings round-trips a large generated payload through both clients
// and compares digests rather than megabytes of output.
func (h *harness) runStrings(seed int64) {
	key := testutils.GenerateKey("set")
	payload := make([]byte, 1<<20)
	rng := rand.New(rand.NewSource(seed))
	rng.Read(payload)
	want := xxhash.Sum64(payload)

	if err := h.kv.Set(h.ctx, key, payload); err != nil {
		h.check("set-large", false, err.Error())
		return
	}
	viaRedis, err := h.rdb.Get(h.ctx, key).Bytes()
	h.check("get-large-goredis", err == nil && xxhash.Sum64(viaRedis) == want,
		fmt.Sprintf("err=%v", err))
	viaKv, err := h.kv.Get(h.ctx, key)
	h.check("get-large-kvwire", err == nil && xxhash.Sum64(viaKv) == want,
		fmt.Sprintf("err=%v", err))

	missing, err := h.kv.Get(h.ctx, testutils.GenerateKey("missing"))
	h.check("get-missing", err == nil && missing == nil, fmt.Sprintf("err=%v", err))
}

func (h *harness) runCounters() {
	key := testutils.GenerateKey("incr")
	for i := 0; i < 5; i++ {
		if _, err := h.kv.Incr(h.ctx, key); err != nil {
			h.check("incr", false, err.Error())
			return
		}
	}
	fromRedis, err := h.rdb.Get(h.ctx, key).Int64()
	h.check("incr-agree", err == nil && fromRedis == 5, fmt.Sprintf("got=%d err=%v", fromRedis, err))
}

func (h *harness) runHashes() {
	key := testutils.GenerateKey("hash")
	fields := map[string][]byte{"f1": []byte("Hello"), "f2": []byte("World")}
	for field, value := range fields {
		if _, err := h.kv.HSet(h.ctx, key, field, value); err != nil {
			h.check("hset", false, err.Error())
			return
		}
	}
	fromKv, err := h.kv.HKeys(h.ctx, key)
	if err != nil {
		h.check("hkeys", false, err.Error())
		return
	}
	fromRedis, err := h.rdb.HKeys(h.ctx, key).Result()
	if err != nil {
		h.check("hkeys-goredis", false, err.Error())
		return
	}
	sort.Strings(fromKv)
	sort.Strings(fromRedis)
	h.check("hkeys-agree", fmt.Sprint(fromKv) == fmt.Sprint(fromRedis),
		fmt.Sprintf("kvwire=%v goredis=%v", fromKv, fromRedis))

	empty, err := h.kv.HKeys(h.ctx, testutils.GenerateKey("emptyhash"))
	h.check("hkeys-empty", err == nil && len(empty) == 0, fmt.Sprintf("got=%v err=%v", empty, err))
}

func (h *harness) runLists() {
	key := testutils.GenerateKey("list")
	values := lo.Map([]string{"a", "b", "c"}, func(s string, _ int) []byte { return []byte(s) })
	if _, err := h.kv.RPush(h.ctx, key, values...); err != nil {
		h.check("rpush", false, err.Error())
		return
	}
	fromKv, err := h.kv.LRange(h.ctx, key, 0, -1)
	if err != nil {
		h.check("lrange", false, err.Error())
		return
	}
	fromRedis, err := h.rdb.LRange(h.ctx, key, 0, -1).Result()
	h.check("lrange-agree", err == nil && fmt.Sprint(fromKv) == fmt.Sprint(fromRedis),
		fmt.Sprintf("kvwire=%v goredis=%v", fromKv, fromRedis))
}

// runErrors drives a command-level failure through both clients and
// verifies the connection stays usable afterwards.
func (h *harness) runErrors() {
	key := testutils.GenerateKey("floaterr")
	if _, err := h.kv.HSet(h.ctx, key, "f1", []byte("not-a-number")); err != nil {
		h.check("hset-floaterr", false, err.Error())
		return
	}
	_, kvErr := h.kv.HIncrByFloat(h.ctx, key, "f1", 0.1)
	redisErr := h.rdb.HIncrByFloat(h.ctx, key, "f1", 0.1).Err()
	h.check("hincrbyfloat-error-agree", kvErr != nil && redisErr != nil,
		fmt.Sprintf("kvwire=%v goredis=%v", kvErr, redisErr))

	// The error poisoned nothing: the next command succeeds.
	pong, err := h.kv.Ping(h.ctx)
	h.check("ping-after-error", err == nil && bytes.Equal([]byte(pong), []byte("PONG")),
		fmt.Sprintf("got=%q err=%v", pong, err))
}
