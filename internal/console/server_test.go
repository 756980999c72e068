package console

import (
	"bufio"
	"fmt"
	"net"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServerAcceptsClient(t *testing.T) {
	path := filepath.Join(t.TempDir(), "console.sock")

	srv, err := Listen(path)
	require.NoError(t, err)
	defer srv.Close()

	go func() {
		client, err := net.Dial("unix", path)
		if err != nil {
			return
		}
		fmt.Fprintln(client, "list")
		client.Close()
	}()

	conn, err := srv.Accept()
	require.NoError(t, err)
	defer conn.Close()

	line, err := bufio.NewReader(conn).ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "list\n", line)
}

func TestServerReplacesStaleSocket(t *testing.T) {
	path := filepath.Join(t.TempDir(), "console.sock")

	srv, err := Listen(path)
	require.NoError(t, err)
	srv.listener.Close() // simulate a crash leaving the socket file behind

	srv2, err := Listen(path)
	require.NoError(t, err)
	srv2.Close()
}

func TestServerCloseRemovesSocket(t *testing.T) {
	path := filepath.Join(t.TempDir(), "console.sock")

	srv, err := Listen(path)
	require.NoError(t, err)
	require.NoError(t, srv.Close())

	_, err = net.Dial("unix", path)
	assert.Error(t, err)
}
