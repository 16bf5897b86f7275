// Package bridgeclient drives an enclave-signer process from the
// parent side: it spawns (or attaches to) the bridge, captures the
// published public key from the startup diagnostics, and serializes
// sign/verify requests over the line protocol.
package bridgeclient

import (
	"bufio"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"
)

const publicKeyPrefix = "PUBLIC_KEY:"

// SignedPayload is a payload together with its signature and the
// signing key, as returned by Sign.
type SignedPayload struct {
	Data      string
	Signature string
	PublicKey string
	Timestamp time.Time
}

// Client is a handle to a running bridge. All methods are safe for
// concurrent use; requests are serialized because the bridge itself is
// strictly serial.
type Client struct {
	mu     sync.Mutex
	stdin  io.Writer
	stdout *bufio.Reader
	cmd    *exec.Cmd
	pubKey string
}

// Start spawns the signer binary at path and attaches to its pipes.
func Start(path string, args ...string) (*Client, error) {
	cmd := exec.Command(path, args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start signer: %w", err)
	}

	c, err := Attach(stdin, stdout, stderr)
	if err != nil {
		cmd.Process.Kill()
		cmd.Wait()
		return nil, err
	}
	c.cmd = cmd
	return c, nil
}

// Attach wires a client over already-connected streams: the bridge's
// stdin, stdout, and diagnostic (stderr) stream. It consumes diagnostic
// lines until the published public key appears.
func Attach(stdin io.Writer, stdout, diag io.Reader) (*Client, error) {
	c := &Client{
		stdin:  stdin,
		stdout: bufio.NewReader(stdout),
	}

	diagReader := bufio.NewReader(diag)
	for {
		line, err := diagReader.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("signer startup: %w", err)
		}
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, publicKeyPrefix) {
			c.pubKey = strings.TrimPrefix(line, publicKeyPrefix)
			break
		}
	}

	// Keep draining diagnostics so the bridge never blocks on its
	// stderr.
	go io.Copy(io.Discard, diagReader)

	return c, nil
}

// PublicKey returns the base64 public key published at startup.
func (c *Client) PublicKey() string {
	return c.pubKey
}

// Sign asks the bridge to sign data. data must be a single line.
func (c *Client) Sign(data string) (SignedPayload, error) {
	if strings.ContainsAny(data, "\r\n") {
		return SignedPayload{}, fmt.Errorf("payload must not contain line breaks")
	}

	resp, err := c.roundTrip("SIGN:" + data)
	if err != nil {
		return SignedPayload{}, err
	}
	if !strings.HasPrefix(resp, "SIG:") {
		return SignedPayload{}, fmt.Errorf("sign failed: %s", resp)
	}

	return SignedPayload{
		Data:      data,
		Signature: strings.TrimPrefix(resp, "SIG:"),
		PublicKey: c.pubKey,
		Timestamp: time.Now(),
	}, nil
}

// Verify asks the bridge whether signature (base64) validates data.
// Any transport or protocol failure reports false.
func (c *Client) Verify(data, signature string) bool {
	if strings.ContainsAny(data, "\r\n") {
		return false
	}
	resp, err := c.roundTrip("VERIFY:" + data + ":" + signature)
	if err != nil {
		return false
	}
	return resp == "VALID:true"
}

// Stop sends QUIT and, when the client owns the process, waits for it
// to exit.
func (c *Client) Stop() error {
	c.mu.Lock()
	_, err := fmt.Fprintln(c.stdin, "QUIT")
	c.mu.Unlock()
	if err != nil {
		return fmt.Errorf("send quit: %w", err)
	}

	if c.cmd != nil {
		if err := c.cmd.Wait(); err != nil {
			return fmt.Errorf("signer exit: %w", err)
		}
	}
	return nil
}

func (c *Client) roundTrip(request string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := fmt.Fprintln(c.stdin, request); err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	resp, err := c.stdout.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	return strings.TrimSpace(resp), nil
}
