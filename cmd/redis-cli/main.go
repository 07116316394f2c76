package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pior/redis"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:6379", "server address")
	timeout := flag.Duration("timeout", 5*time.Second, "per-command timeout")
	flag.Parse()

	ctx := context.Background()

	conn, err := redis.Dial(ctx, *addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to %s: %v\n", *addr, err)
		os.Exit(1)
	}
	defer conn.Close()

	fmt.Printf("Connected to %s\n", *addr)
	fmt.Println("Enter commands (quit to end)")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.EqualFold(line, "quit") || strings.EqualFold(line, "exit") {
			break
		}

		args := strings.Fields(line)

		cmdCtx, cancel := context.WithTimeout(ctx, *timeout)
		v, err := conn.Do(cmdCtx, args...)
		cancel()
		if err != nil {
			fmt.Fprintf(os.Stderr, "(error) %v\n", err)
			if redis.ShouldCloseConnection(err) {
				os.Exit(1)
			}
			continue
		}

		fmt.Println(v.String())
	}
}
