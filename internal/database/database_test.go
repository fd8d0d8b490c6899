package database

import (
	"context"
	"testing"
)

func TestConnectEmptyURL(t *testing.T) {
	db, err := Connect(context.Background(), "")
	if err != nil || db != nil {
		t.Errorf("Connect(\"\") = %v, %v; want nil, nil", db, err)
	}
}

func TestConnectUnreachable(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Connect(ctx, "postgres://user:pw@127.0.0.1:1/none?sslmode=disable"); err == nil {
		t.Error("Connect to a closed port succeeded")
	}
}
