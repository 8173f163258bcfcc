package transceiver

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// TimestampedMessage pairs a datagram's arrival instant (tomr, "time of
// message receipt") with its raw bytes, the unit the link hands the
// consume loop.
type TimestampedMessage struct {
	Tomr  time.Time
	Bytes []byte
}

// Link is the UDP multicast datagram transport: it bridges socket I/O to
// the receive/transmit queues the application reads from and writes to,
// as a pair of goroutines over a *net.UDPConn.
type Link struct {
	GroupAddr string // multicast group, e.g. "224.0.0.250"
	Port      int
	Receive   *Queue[TimestampedMessage]
	Transmit  *Queue[[]byte]
	Log       *logrus.Entry
}

// maxDatagramSize bounds a single read; it comfortably exceeds
// wire.MessageSize for any curve the IBS scheme might use.
const maxDatagramSize = 2048

// Run opens the multicast socket, joins the group, and drives the
// receive and transmit loops until ctx is canceled or the socket errors.
// Both loops shut down cleanly on exit, per the link lifecycle contract.
func (l *Link) Run(ctx context.Context) error {
	if l.Log == nil {
		l.Log = logrus.WithField("component", "link")
	}

	gaddr := &net.UDPAddr{IP: net.ParseIP(l.GroupAddr), Port: l.Port}
	if gaddr.IP == nil {
		return fmt.Errorf("transceiver: link: invalid multicast address %q", l.GroupAddr)
	}

	conn, err := net.ListenMulticastUDP("udp4", nil, gaddr)
	if err != nil {
		return fmt.Errorf("transceiver: link listen: %w", err)
	}
	defer conn.Close()

	// Best-effort SO_REUSEADDR/SO_REUSEPORT parity with the source
	// socket setup; ListenMulticastUDP has already bound the socket by
	// this point, so this mainly benefits a second process binding the
	// same group+port afterward, not this one.
	if rc, err := conn.SyscallConn(); err == nil {
		_ = rc.Control(func(fd uintptr) {
			_ = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
			_ = setReusePort(int(fd))
		})
	}

	// Whichever loop ends first (error or cancellation) stops the other.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(2)
	errs := make(chan error, 2)

	go func() {
		defer wg.Done()
		errs <- l.receiveLoop(ctx, conn)
		cancel()
	}()
	go func() {
		defer wg.Done()
		errs <- l.transmitLoop(ctx, conn, gaddr)
		cancel()
	}()

	wg.Wait()
	close(errs)
	for e := range errs {
		if e != nil {
			return e
		}
	}
	return nil
}

func (l *Link) receiveLoop(ctx context.Context, conn *net.UDPConn) error {
	buf := make([]byte, maxDatagramSize)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			select {
			case <-ctx.Done():
				return nil
			default:
				return fmt.Errorf("transceiver: link receive: %w", err)
			}
		}

		tomr := time.Now()
		msg := TimestampedMessage{Tomr: tomr, Bytes: append([]byte(nil), buf[:n]...)}
		if !l.Receive.Offer(msg) {
			l.Log.WithError(ErrReceiveQueueFull).Error("dropping received datagram: queue full")
		}
	}
}

func (l *Link) transmitLoop(ctx context.Context, conn *net.UDPConn, gaddr *net.UDPAddr) error {
	for {
		bytes, ok := l.Transmit.Receive(ctx)
		if !ok {
			return nil
		}
		if _, err := conn.WriteToUDP(bytes, gaddr); err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return fmt.Errorf("transceiver: link transmit: %w", err)
			}
		}
	}
}

func setReusePort(fd int) error {
	return unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEPORT, 1)
}
