package mockserver

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/lithammer/shortuuid/v4"
	"github.com/panjf2000/gnet/v2"
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/kvwire/kvwire/pkg/common"
	"github.com/kvwire/kvwire/pkg/respio"
)

var logger = common.InitLogger().WithName("mockserver")

// Config is kong-taggable so the daemon main can embed it.
type Config struct {
	Port      int  `help:"Port to listen on" name:"port" default:"6380"`
	MultiCore bool `help:"Enable multi-core support" default:"false"`
	CoreNum   int  `help:"Number of cores to use" default:"0"`
}

func (c *Config) Validate() error {
	if c.Port <= 0 {
		return fmt.Errorf("invalid port number: %d", c.Port)
	}
	return nil
}

func (c *Config) GNetOptions() []gnet.Option {
	ops := []gnet.Option{gnet.WithReuseAddr(true)}
	if c.MultiCore {
		ops = append(ops, gnet.WithMulticore(true))
	}
	if c.CoreNum > 0 {
		ops = append(ops, gnet.WithNumEventLoop(c.CoreNum))
	}
	return ops
}

// session is one client connection: a decoder in inline mode fed from
// the event loop, drained by a dedicated handler goroutine that executes
// requests and writes replies back asynchronously.
type session struct {
	id   string
	conn gnet.Conn
	dec  *respio.Decoder
}

// Server is an in-process RESP server for tests and examples. It speaks
// the five RESP2 frame types plus the inline command form, against an
// in-memory keyspace. Not a production server.
type Server struct {
	gnet.BuiltinEventEngine
	eng      *gnet.Engine
	config   *Config
	store    *Store
	sessions *xsync.MapOf[string, *session]
	ready    chan struct{}
}

func NewServer(config *Config) *Server {
	return &Server{
		config:   config,
		store:    NewStore(),
		sessions: xsync.NewMapOf[string, *session](),
		ready:    make(chan struct{}),
	}
}

// Start runs the event loop and blocks until shutdown.
func (s *Server) Start() error {
	addr := fmt.Sprintf("tcp://:%d", s.config.Port)
	logger.Info("Starting mock server", "address", addr)
	return gnet.Run(s, addr, s.config.GNetOptions()...)
}

// Ready is closed once the listener is accepting.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

func (s *Server) Addr() string {
	return fmt.Sprintf("127.0.0.1:%d", s.config.Port)
}

func (s *Server) Store() *Store {
	return s.store
}

func (s *Server) OnBoot(eng gnet.Engine) gnet.Action {
	s.eng = &eng
	close(s.ready)
	return gnet.None
}

func (s *Server) OnOpen(c gnet.Conn) (out []byte, action gnet.Action) {
	sess := &session{
		id:   shortuuid.New(),
		conn: c,
		dec:  respio.NewDecoder(respio.WithInlineCommands()),
	}
	s.sessions.Store(c.RemoteAddr().String(), sess)
	go s.serveSession(sess)
	return nil, gnet.None
}

func (s *Server) OnTraffic(c gnet.Conn) gnet.Action {
	sess, ok := s.sessions.Load(c.RemoteAddr().String())
	if !ok {
		return gnet.Close
	}
	buf, err := c.Next(-1)
	if err != nil {
		return gnet.Close
	}
	// The event loop reuses buf; the decoder keeps chunks until consumed.
	chunk := make([]byte, len(buf))
	copy(chunk, buf)
	sess.dec.Feed(chunk)
	return gnet.None
}

func (s *Server) OnClose(c gnet.Conn, err error) gnet.Action {
	connId := c.RemoteAddr().String()
	if sess, ok := s.sessions.LoadAndDelete(connId); ok {
		sess.dec.Fail(io.EOF)
	}
	logger.Info("Mock server closed connection", "connId", connId, "err", err)
	return gnet.Close
}

func (s *Server) OnShutdown(eng gnet.Engine) {
	logger.Info("Mock server is shutting down. cleaning up sessions")
	s.sessions.Range(func(key string, sess *session) bool {
		sess.dec.Fail(io.EOF)
		s.sessions.Delete(key)
		return true
	})
}

func (s *Server) Shutdown(ctx context.Context) {
	if s.eng == nil {
		return
	}
	if err := s.eng.Stop(ctx); err != nil {
		logger.Error(err, "Failed to stop mock server")
	}
}

// serveSession drains decoded requests for one connection until the
// decoder is poisoned by close or a framing violation.
func (s *Server) serveSession(sess *session) {
	for {
		req, err := sess.dec.Next()
		if err != nil {
			if err != io.EOF {
				logger.Info("Session terminated", "sessionId", sess.id, "error", err)
				_ = sess.conn.Close()
			}
			return
		}
		// Blank inline lines decode to empty arrays; ignore them.
		if req.Type == respio.TypeArray && len(req.Array) == 0 {
			continue
		}
		reply := s.Execute(req)
		var out bytes.Buffer
		w := respio.NewWriter(&out)
		if err := w.WriteReply(reply); err != nil {
			logger.Error(err, "Failed to encode reply", "sessionId", sess.id)
			return
		}
		if err := w.Flush(); err != nil {
			return
		}
		if err := sess.conn.AsyncWrite(out.Bytes(), nil); err != nil {
			logger.Error(err, "Failed to write reply", "sessionId", sess.id)
			return
		}
	}
}
