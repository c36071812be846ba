// Package spectate streams the running game to read-only ssh viewers.
package spectate

import (
	"context"
	"fmt"
	"log"
	"net"
	"os"
	"sync"
	"time"

	"github.com/jpillora/ansi"
	"github.com/pkg/errors"
	"golang.org/x/crypto/ssh"
)

const (
	keyQuit      = 'q'
	keyInterrupt = 0x03 // ctrl-c

	handshakeTimeout = 10 * time.Second
)

// Server accepts ssh viewers and pushes every broadcast frame to them.
type Server struct {
	addr     string
	config   *ssh.ServerConfig
	logf     func(format string, args ...interface{})
	listener net.Listener
	wg       sync.WaitGroup

	mu         sync.Mutex
	closing    bool
	latest     []byte
	conns      map[*ssh.ServerConn]struct{}
	spectators map[*spectator]struct{}
}

// NewServer creates a server for addr that identifies itself with signer.
// Viewers do not authenticate.
func NewServer(addr string, signer ssh.Signer) *Server {
	config := &ssh.ServerConfig{NoClientAuth: true}
	config.AddHostKey(signer)
	return &Server{
		addr:       addr,
		config:     config,
		logf:       log.New(os.Stderr, "spectate: ", 0).Printf,
		conns:      map[*ssh.ServerConn]struct{}{},
		spectators: map[*spectator]struct{}{},
	}
}

// SetLogger replaces the default stderr logger
func (s *Server) SetLogger(l *log.Logger) {
	s.logf = l.Printf
}

// Listen binds the server's address
func (s *Server) Listen() error {
	l, err := net.Listen("tcp", s.addr)
	if err != nil {
		return errors.Wrapf(err, "[Listen] failed to listen on %s", s.addr)
	}
	s.listener = l
	s.logf("listening on %s", l.Addr())
	return nil
}

// Addr returns the bound address, nil before Listen
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Serve accepts viewers until ctx is cancelled, then disconnects them all.
// Listen is called first if it has not been.
func (s *Server) Serve(ctx context.Context) error {
	if s.listener == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}

	go func() {
		<-ctx.Done()
		s.listener.Close()
	}()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}
			s.logf("accept error (%s)", err)
			continue
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handle(conn)
		}()
	}

	s.mu.Lock()
	s.closing = true
	for sp := range s.spectators {
		sp.close()
	}
	// connections that never opened a session are still waiting on a channel
	for conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()
	s.wg.Wait()
	return nil
}

// Broadcast sends a rendered frame to every viewer. It never blocks; a
// viewer that has not drawn its previous frame yet skips it. frame must not
// be modified afterwards.
func (s *Server) Broadcast(frame []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = frame
	for sp := range s.spectators {
		sp.offer(frame)
	}
}

// Spectators returns the number of connected viewers
func (s *Server) Spectators() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.spectators)
}

func (s *Server) handle(tcpConn net.Conn) {
	tcpConn.SetDeadline(time.Now().Add(handshakeTimeout))
	sshConn, chans, globalReqs, err := ssh.NewServerConn(tcpConn, s.config)
	if err != nil {
		s.logf("new connection handshake failed (%s)", err)
		tcpConn.Close()
		return
	}
	tcpConn.SetDeadline(time.Time{})
	if !s.track(sshConn) {
		sshConn.Close()
		return
	}
	defer s.untrack(sshConn)
	// global requests must be serviced - discard
	go ssh.DiscardRequests(globalReqs)

	c, ok := <-chans
	if !ok {
		return
	}
	// channel requests must be serviced - reject rest
	go func() {
		for c := range chans {
			c.Reject(ssh.Prohibited, "only 1 channel allowed")
		}
	}()
	if t := c.ChannelType(); t != "session" {
		c.Reject(ssh.UnknownChannelType, fmt.Sprintf("unknown channel type: %s", t))
		return
	}
	ch, chanReqs, err := c.Accept()
	if err != nil {
		s.logf("could not accept channel (%s)", err)
		return
	}
	go serviceRequests(chanReqs)

	sp := newSpectator(ch)
	s.add(sp)
	s.logf("%s connected (%s)", sshConn.User(), sshConn.RemoteAddr())
	sp.run()
	s.remove(sp)
	s.logf("%s disconnected", sshConn.User())
}

func serviceRequests(reqs <-chan *ssh.Request) {
	for r := range reqs {
		ok := false
		switch r.Type {
		case "shell":
			// only the default shell, no commands
			ok = len(r.Payload) == 0
		case "pty-req":
			ok = true
		case "window-change":
			continue // no response
		}
		r.Reply(ok, nil)
	}
}

// track registers a live connection, false once the server is shutting down
func (s *Server) track(conn *ssh.ServerConn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		return false
	}
	s.conns[conn] = struct{}{}
	return true
}

func (s *Server) untrack(conn *ssh.ServerConn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
	conn.Close()
}

func (s *Server) add(sp *spectator) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spectators[sp] = struct{}{}
	if s.closing {
		sp.close()
	}
	if s.latest != nil {
		sp.offer(s.latest)
	}
}

func (s *Server) remove(sp *spectator) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.spectators, sp)
}

// spectator is one connected viewer
type spectator struct {
	term   *ansi.Ansi
	ch     ssh.Channel
	frames chan []byte
	done   chan struct{}
	once   sync.Once
}

func newSpectator(ch ssh.Channel) *spectator {
	return &spectator{
		term:   ansi.Wrap(ch),
		ch:     ch,
		frames: make(chan []byte, 1),
		done:   make(chan struct{}),
	}
}

// offer replaces any undrawn frame with frame
func (sp *spectator) offer(frame []byte) {
	select {
	case sp.frames <- frame:
		return
	default:
	}
	select {
	case <-sp.frames:
	default:
	}
	select {
	case sp.frames <- frame:
	default:
	}
}

func (sp *spectator) run() {
	go sp.readKeys()

	sp.term.CursorHide()
	for {
		select {
		case frame := <-sp.frames:
			sp.term.EraseScreen()
			sp.term.Goto(1, 1)
			if _, err := sp.term.Write(frame); err != nil {
				sp.close()
			}
		case <-sp.done:
			sp.term.CursorShow()
			sp.term.Set(ansi.Reset)
			sp.ch.Close()
			return
		}
	}
}

func (sp *spectator) readKeys() {
	buff := make([]byte, 256)
	for {
		n, err := sp.term.Read(buff)
		if err != nil {
			sp.close()
			return
		}
		for _, b := range buff[:n] {
			if b == keyQuit || b == keyInterrupt {
				sp.close()
				return
			}
		}
	}
}

func (sp *spectator) close() {
	sp.once.Do(func() {
		close(sp.done)
	})
}
