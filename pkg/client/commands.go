package client

import (
	"context"
	"strconv"
	"time"

	"github.com/kvwire/kvwire/pkg/respio"
)

// Thin command wrappers over Do. Text-only commands under the inline
// threshold carry the inline hint; anything with a caller-supplied value
// argument takes the array form, since values may be large or binary.

// textCommand builds a command from text parts and decides the inline
// hint against the configured threshold.
func (c *Conn) textCommand(parts ...string) *Command {
	cmd := TextCommand(parts...)
	if c.opts.InlineThreshold > 0 &&
		cmd.encodedSize() < c.opts.InlineThreshold &&
		respio.InlineSafe(cmd.Args) {
		cmd.Inline = true
	}
	return cmd
}

// DoText submits a command given as text parts, inline when it fits the
// threshold.
func (c *Conn) DoText(ctx context.Context, parts ...string) (*respio.Reply, error) {
	return c.Do(ctx, c.textCommand(parts...))
}

// doValue submits name/keys plus one trailing payload argument in array
// form.
func (c *Conn) doValue(ctx context.Context, value []byte, parts ...string) (*respio.Reply, error) {
	args := make([][]byte, 0, len(parts)+1)
	for _, p := range parts {
		args = append(args, []byte(p))
	}
	args = append(args, value)
	return c.Do(ctx, NewCommand(args...))
}

func (c *Conn) Ping(ctx context.Context) (string, error) {
	reply, err := c.DoText(ctx, "PING")
	if err != nil {
		return "", err
	}
	return reply.Text(), nil
}

func (c *Conn) Echo(ctx context.Context, msg []byte) ([]byte, error) {
	reply, err := c.doValue(ctx, msg, "ECHO")
	if err != nil {
		return nil, err
	}
	return reply.Bytes(), nil
}

// Get returns the value of key, or nil when the key does not exist.
func (c *Conn) Get(ctx context.Context, key string) ([]byte, error) {
	reply, err := c.DoText(ctx, "GET", key)
	if err != nil {
		return nil, err
	}
	return reply.Bytes(), nil
}

func (c *Conn) Set(ctx context.Context, key string, value []byte) error {
	_, err := c.doValue(ctx, value, "SET", key)
	return err
}

func (c *Conn) Del(ctx context.Context, keys ...string) (int64, error) {
	return c.intReply(c.DoText(ctx, append([]string{"DEL"}, keys...)...))
}

func (c *Conn) Exists(ctx context.Context, keys ...string) (int64, error) {
	return c.intReply(c.DoText(ctx, append([]string{"EXISTS"}, keys...)...))
}

func (c *Conn) Incr(ctx context.Context, key string) (int64, error) {
	return c.intReply(c.DoText(ctx, "INCR", key))
}

func (c *Conn) IncrBy(ctx context.Context, key string, delta int64) (int64, error) {
	return c.intReply(c.DoText(ctx, "INCRBY", key, strconv.FormatInt(delta, 10)))
}

func (c *Conn) HSet(ctx context.Context, key, field string, value []byte) (int64, error) {
	return c.intReply(c.doValue(ctx, value, "HSET", key, field))
}

func (c *Conn) HGet(ctx context.Context, key, field string) ([]byte, error) {
	reply, err := c.DoText(ctx, "HGET", key, field)
	if err != nil {
		return nil, err
	}
	return reply.Bytes(), nil
}

func (c *Conn) HDel(ctx context.Context, key string, fields ...string) (int64, error) {
	return c.intReply(c.DoText(ctx, append([]string{"HDEL", key}, fields...)...))
}

func (c *Conn) HKeys(ctx context.Context, key string) ([]string, error) {
	reply, err := c.DoText(ctx, "HKEYS", key)
	if err != nil {
		return nil, err
	}
	return reply.Strings()
}

// HGetAll returns alternating field/value pairs as a map.
func (c *Conn) HGetAll(ctx context.Context, key string) (map[string][]byte, error) {
	reply, err := c.DoText(ctx, "HGETALL", key)
	if err != nil {
		return nil, err
	}
	if reply.Type != respio.TypeArray {
		return nil, &TransportError{Op: "decode", Err: respio.ErrInvalidSyntax}
	}
	out := make(map[string][]byte, len(reply.Array)/2)
	for i := 0; i+1 < len(reply.Array); i += 2 {
		out[reply.Array[i].Text()] = reply.Array[i+1].Bytes()
	}
	return out, nil
}

func (c *Conn) HIncrByFloat(ctx context.Context, key, field string, delta float64) (string, error) {
	reply, err := c.DoText(ctx, "HINCRBYFLOAT", key, field,
		strconv.FormatFloat(delta, 'f', -1, 64))
	if err != nil {
		return "", err
	}
	return reply.Text(), nil
}

func (c *Conn) LPush(ctx context.Context, key string, values ...[]byte) (int64, error) {
	return c.intReply(c.push(ctx, "LPUSH", key, values))
}

func (c *Conn) RPush(ctx context.Context, key string, values ...[]byte) (int64, error) {
	return c.intReply(c.push(ctx, "RPUSH", key, values))
}

func (c *Conn) push(ctx context.Context, name, key string, values [][]byte) (*respio.Reply, error) {
	args := make([][]byte, 0, len(values)+2)
	args = append(args, []byte(name), []byte(key))
	args = append(args, values...)
	return c.Do(ctx, NewCommand(args...))
}

func (c *Conn) LRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	reply, err := c.DoText(ctx, "LRANGE", key,
		strconv.FormatInt(start, 10), strconv.FormatInt(stop, 10))
	if err != nil {
		return nil, err
	}
	return reply.Strings()
}

func (c *Conn) LLen(ctx context.Context, key string) (int64, error) {
	return c.intReply(c.DoText(ctx, "LLEN", key))
}

func (c *Conn) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	n, err := c.intReply(c.DoText(ctx, "EXPIRE", key,
		strconv.FormatInt(int64(ttl/time.Second), 10)))
	return n == 1, err
}

func (c *Conn) TTL(ctx context.Context, key string) (int64, error) {
	return c.intReply(c.DoText(ctx, "TTL", key))
}

func (c *Conn) Type(ctx context.Context, key string) (string, error) {
	reply, err := c.DoText(ctx, "TYPE", key)
	if err != nil {
		return "", err
	}
	return reply.Text(), nil
}

func (c *Conn) FlushAll(ctx context.Context) error {
	_, err := c.DoText(ctx, "FLUSHALL")
	return err
}

func (c *Conn) intReply(reply *respio.Reply, err error) (int64, error) {
	if err != nil {
		return 0, err
	}
	return reply.Int64()
}
