package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/goccy/go-json"

	"foodgram/internal/logging"
	synchub "foodgram/internal/sync"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:7070", "TCP sync server address")
	types := flag.String("types", "", "comma-separated event types to show (default all)")
	user := flag.String("user", "", "only show events by this user id")
	raw := flag.Bool("raw", false, "print lines exactly as received")
	flag.Parse()

	logging.Init(logging.Config{Level: "info", Format: "console"})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	f := filter{types: splitSet(*types), user: *user}
	for {
		err := run(ctx, *addr, f, *raw, os.Stdout)
		if ctx.Err() != nil {
			return
		}
		logging.Warn().Err(err).Str("addr", *addr).Msg("disconnected, retrying")

		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Second):
		}
	}
}

type filter struct {
	types map[string]bool
	user  string
}

func (f filter) match(ev synchub.Event) bool {
	if len(f.types) > 0 && !f.types[ev.Type] {
		return false
	}
	return f.user == "" || ev.UserID == f.user
}

func run(ctx context.Context, addr string, f filter, raw bool, out io.Writer) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	logging.Info().Str("addr", addr).Msg("connected")

	sc := bufio.NewScanner(conn)
	for sc.Scan() {
		printEvent(out, sc.Bytes(), f, raw)
	}
	if err := sc.Err(); err != nil {
		return err
	}
	return errors.New("server closed the connection")
}

func printEvent(out io.Writer, line []byte, f filter, raw bool) {
	var ev synchub.Event
	if err := json.Unmarshal(line, &ev); err != nil || ev.Type == "" {
		fmt.Fprintln(out, string(line))
		return
	}
	if ev.Type != "welcome" && !f.match(ev) {
		return
	}
	if raw || ev.Type == "welcome" {
		fmt.Fprintln(out, string(line))
		return
	}

	target := fmt.Sprintf("recipe=%d", ev.RecipeID)
	if ev.AuthorID != "" {
		target = "author=" + ev.AuthorID
	}
	msg := fmt.Sprintf("%s %-22s user=%s %s", ev.At.Local().Format(time.TimeOnly), ev.Type, ev.UserID, target)
	if ev.Name != "" {
		msg += fmt.Sprintf(" %q", ev.Name)
	}
	fmt.Fprintln(out, msg)
}

func splitSet(s string) map[string]bool {
	m := map[string]bool{}
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			m[p] = true
		}
	}
	return m
}
