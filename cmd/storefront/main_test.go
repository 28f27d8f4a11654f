package main

import (
	"bytes"
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DRIVN-COOK/front-office/internal/domain"
)

func TestRun_NoCommand(t *testing.T) {
	err := run(context.Background(), nil, &bytes.Buffer{})

	assert.ErrorIs(t, err, errUsage)
}

func TestRun_UnknownCommand(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CART_DIR", t.TempDir())

	err := run(context.Background(), []string{"bake"}, &bytes.Buffer{})

	assert.ErrorIs(t, err, errUsage)
}

func TestRun_CartShowWithFileStorage(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CART_STORE", "file")
	t.Setenv("CART_DIR", t.TempDir())

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"cart"}, &out))

	assert.Equal(t, "Your cart is empty.\n", out.String())
}

func TestPrintCart(t *testing.T) {
	var out bytes.Buffer
	lines := []domain.CartLine{
		{Item: item("A", "10.00"), Qty: 2},
		{Item: item("B", "5.00"), Qty: 1},
	}

	require.NoError(t, printCart(&out, lines))

	assert.Contains(t, out.String(), "Item A")
	assert.Contains(t, out.String(), "24.00")
	assert.Contains(t, out.String(), "3 items  HT 25.00  TVA 5.00  TTC 30.00")
}

func freePort(t *testing.T) string {
	t.Helper()
	lis, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	port := strconv.Itoa(lis.Addr().(*net.TCPAddr).Port)
	require.NoError(t, lis.Close())
	return port
}

func TestRun_ServeFailsFastWhenGRPCPortTaken(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CART_STORE", "file")
	t.Setenv("CART_DIR", t.TempDir())

	taken, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	defer taken.Close()

	httpPort := freePort(t)
	t.Setenv("HTTP_PORT", httpPort)
	t.Setenv("GRPC_PORT", strconv.Itoa(taken.Addr().(*net.TCPAddr).Port))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = run(ctx, []string{"serve"}, &bytes.Buffer{})
	require.Error(t, err)
	assert.ErrorContains(t, err, "listen grpc")
	assert.NoError(t, ctx.Err(), "serve should not wait for shutdown")

	lis, err := net.Listen("tcp", ":"+httpPort)
	require.NoError(t, err, "gateway port still held")
	lis.Close()
}
