package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"
)

func main() {
	os.Exit(check())
}

func check() int {
	addr := loopbackAddr(os.Getenv("FASTAPIPORT"))

	client := &http.Client{Timeout: 2 * time.Second}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("http://%s/health", addr), nil)
	if err != nil {
		return 1
	}

	resp, err := client.Do(req)
	if err != nil {
		return 1
	}
	_ = resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 1
	}

	return 0
}

// loopbackAddr targets loopback: the service binds every interface but the
// healthcheck runs inside the same container.
func loopbackAddr(port string) string {
	if n, err := strconv.Atoi(port); err != nil || n < 1 || n > 65535 {
		port = "8000"
	}
	return net.JoinHostPort("127.0.0.1", port)
}
