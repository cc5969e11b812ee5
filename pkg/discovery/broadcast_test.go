package discovery

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/appser/appser-store/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func freeUDPAddr(t *testing.T) string {
	t.Helper()
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := conn.LocalAddr().String()
	require.NoError(t, conn.Close())
	return addr
}

func TestDecodeRejectsForeignDatagrams(t *testing.T) {
	_, err := Decode([]byte(`MANGAHUB:{"local_ip":"10.0.0.1"}`))
	assert.Error(t, err)

	_, err = Decode([]byte("APPSER:{not json"))
	assert.Error(t, err)

	a, err := Decode([]byte(`APPSER:{"local_ip":"10.0.0.1","services":{"http":"http://10.0.0.1:8080"}}`))
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.1:8080", a.Services["http"])
}

func TestBroadcastReachesListener(t *testing.T) {
	logger.Init(logger.ERROR, false, nil)
	addr := freeUDPAddr(t)

	b := NewBroadcaster(addr, "10.0.0.7", map[string]string{"http": "http://10.0.0.7:8080"})
	b.SetInterval(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	done := make(chan []Announcement, 1)
	go func() {
		found, err := Listen(ctx, addr)
		assert.NoError(t, err)
		done <- found
	}()

	time.Sleep(50 * time.Millisecond)
	b.Start()
	defer b.Stop()

	found := <-done
	require.Len(t, found, 1)
	assert.Equal(t, "10.0.0.7", found[0].LocalIP)
	assert.Equal(t, "http://10.0.0.7:8080", found[0].Services["http"])
}
