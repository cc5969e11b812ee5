// Package discovery announces a running store on the local network and lets
// clients find it.
package discovery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/appser/appser-store/pkg/logger"
)

const (
	DefaultAddr     = "255.255.255.255:9099"
	DefaultInterval = 5 * time.Second
	messagePrefix   = "APPSER:"
)

type Announcement struct {
	LocalIP   string            `json:"local_ip"`
	Services  map[string]string `json:"services"`
	Timestamp time.Time         `json:"timestamp"`
}

func (a Announcement) encode() ([]byte, error) {
	data, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return append([]byte(messagePrefix), data...), nil
}

// Decode parses one datagram. Datagrams from other programs are rejected.
func Decode(msg []byte) (Announcement, error) {
	var a Announcement
	s := string(msg)
	if !strings.HasPrefix(s, messagePrefix) {
		return a, errors.New("not an appser announcement")
	}
	if err := json.Unmarshal([]byte(s[len(messagePrefix):]), &a); err != nil {
		return a, fmt.Errorf("malformed announcement: %w", err)
	}
	return a, nil
}

type Broadcaster struct {
	addr     string
	interval time.Duration

	announcement Announcement
	mu           sync.RWMutex
	stopOnce     sync.Once
	stopCh       chan struct{}
}

func NewBroadcaster(addr, localIP string, services map[string]string) *Broadcaster {
	if addr == "" {
		addr = DefaultAddr
	}
	return &Broadcaster{
		addr:     addr,
		interval: DefaultInterval,
		announcement: Announcement{
			LocalIP:   localIP,
			Services:  services,
			Timestamp: time.Now(),
		},
		stopCh: make(chan struct{}),
	}
}

func (b *Broadcaster) SetInterval(d time.Duration) {
	if d > 0 {
		b.interval = d
	}
}

func (b *Broadcaster) Start() {
	go b.broadcastLoop()
}

func (b *Broadcaster) Stop() {
	b.stopOnce.Do(func() { close(b.stopCh) })
}

func (b *Broadcaster) GetAnnouncement() Announcement {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.announcement
}

func (b *Broadcaster) broadcastLoop() {
	b.broadcast()

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			b.broadcast()
		case <-b.stopCh:
			return
		}
	}
}

func (b *Broadcaster) broadcast() {
	conn, err := net.Dial("udp", b.addr)
	if err != nil {
		logger.GetLogger().Error("broadcast_dial_failed", "addr", b.addr, "error", err.Error())
		return
	}
	defer conn.Close()

	b.mu.Lock()
	b.announcement.Timestamp = time.Now()
	data, err := b.announcement.encode()
	b.mu.Unlock()
	if err != nil {
		logger.GetLogger().Error("broadcast_encode_failed", "error", err.Error())
		return
	}

	if _, err = conn.Write(data); err != nil {
		logger.GetLogger().Error("broadcast_write_failed", "error", err.Error())
	}
}

// Listen collects announcements arriving on addr until ctx is done, keeping
// the latest one per server IP.
func Listen(ctx context.Context, addr string) ([]Announcement, error) {
	conn, err := net.ListenPacket("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.SetReadDeadline(time.Now())
	}()

	seen := make(map[string]Announcement)
	var order []string
	buf := make([]byte, 4096)
	for {
		n, _, err := conn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			return nil, err
		}
		a, err := Decode(buf[:n])
		if err != nil {
			continue
		}
		if _, ok := seen[a.LocalIP]; !ok {
			order = append(order, a.LocalIP)
		}
		seen[a.LocalIP] = a
	}

	out := make([]Announcement, 0, len(order))
	for _, ip := range order {
		out = append(out, seen[ip])
	}
	return out, nil
}
