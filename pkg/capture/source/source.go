// Package source opens capture sources by URL.
package source

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.bug.st/serial"
	"golang.org/x/net/websocket"

	"github.com/robotalks/sent.go/pkg/capture"
)

// DefaultBaudRate is used for serial sources without a baud parameter.
const DefaultBaudRate = 115200

// Source is an opened capture source.
type Source struct {
	io.ReadCloser
	Format capture.Format
}

// SampleReader wraps the source with the decoder for its format.
func (s *Source) SampleReader() capture.SampleReader {
	return capture.NewReader(s, s.Format)
}

// Open opens a capture source. Supported forms:
//
//	-                                   stdin
//	capture.bin, file:///path/x.txt     file, text if the extension is .txt
//	serial:///dev/ttyACM0?baud=115200   serial capture board
//	ws://host:port/path                 websocket bridge
//
// A format=text|binary query parameter overrides the default format.
func Open(rawURL string) (*Source, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid source URL: %v", err)
	}
	format, err := capture.ParseFormat(u.Query().Get("format"))
	if err != nil {
		return nil, err
	}

	src := &Source{Format: format}
	switch u.Scheme {
	case "", "file":
		if u.Path == "-" {
			src.ReadCloser = io.NopCloser(os.Stdin)
			return src, nil
		}
		if u.Query().Get("format") == "" && strings.EqualFold(filepath.Ext(u.Path), ".txt") {
			src.Format = capture.FormatText
		}
		f, err := os.Open(u.Path)
		if err != nil {
			return nil, err
		}
		src.ReadCloser = f
	case "serial":
		baud := DefaultBaudRate
		if val := u.Query().Get("baud"); val != "" {
			if baud, err = strconv.Atoi(val); err != nil {
				return nil, fmt.Errorf("invalid baud rate %q: %v", val, err)
			}
		}
		port, err := serial.Open(u.Path, &serial.Mode{BaudRate: baud})
		if err != nil {
			return nil, err
		}
		src.ReadCloser = port
	case "ws", "wss":
		origin := "http://" + u.Host + "/"
		q := u.Query()
		q.Del("format")
		u.RawQuery = q.Encode()
		conn, err := websocket.Dial(u.String(), "", origin)
		if err != nil {
			return nil, err
		}
		src.ReadCloser = conn
	default:
		return nil, fmt.Errorf("unknown source URL scheme: %q", u.Scheme)
	}
	return src, nil
}

// Validate checks a source URL without opening it.
func Validate(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid source URL: %v", err)
	}
	if _, err := capture.ParseFormat(u.Query().Get("format")); err != nil {
		return err
	}
	switch u.Scheme {
	case "", "file", "serial":
		if u.Path == "" {
			return fmt.Errorf("source %q has no path", rawURL)
		}
	case "ws", "wss":
		if u.Host == "" {
			return fmt.Errorf("source %q has no host", rawURL)
		}
	default:
		return fmt.Errorf("unknown source URL scheme: %q", u.Scheme)
	}
	return nil
}
