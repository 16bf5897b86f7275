// Package protocol implements the line-oriented request/response
// interpreter the bridge serves on stdin/stdout.
package protocol

import (
	"bufio"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/sealkit/enclave-signer/internal/custodian"
	"github.com/sealkit/enclave-signer/internal/sigops"
)

// Loop is the protocol interpreter: a strictly serial read-one-line,
// respond-one-line state machine over the given streams. It holds the
// process identity by explicit ownership; there is no global key state.
type Loop struct {
	id     *custodian.Identity
	in     io.Reader
	out    *bufio.Writer
	diag   io.Writer
	handle Handler
}

// NewLoop builds an interpreter over the identity and streams. diag is
// the diagnostic channel (conventionally stderr), distinct from the
// response stream.
func NewLoop(id *custodian.Identity, in io.Reader, out, diag io.Writer, mw ...Middleware) *Loop {
	l := &Loop{
		id:   id,
		in:   in,
		out:  bufio.NewWriter(out),
		diag: diag,
	}
	l.handle = Chain(l.dispatch, mw...)
	return l
}

// Run serves the protocol until QUIT or end of input. Responses are
// flushed after every line so the driving process never waits on a
// buffer.
func (l *Loop) Run() error {
	scanner := bufio.NewScanner(l.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		cmd := Parse(scanner.Text())
		if cmd.Kind == KindQuit {
			fmt.Fprintln(l.diag, "shutting down")
			return nil
		}

		resp := l.handle(cmd)
		if _, err := fmt.Fprintln(l.out, resp.Line()); err != nil {
			return fmt.Errorf("write response: %w", err)
		}
		if err := l.out.Flush(); err != nil {
			return fmt.Errorf("flush response: %w", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read command: %w", err)
	}
	// Parent closed our stdin without QUIT; treat as shutdown.
	return nil
}

func (l *Loop) dispatch(cmd Command) Response {
	switch cmd.Kind {
	case KindSign:
		if !utf8.ValidString(cmd.Payload) {
			return Error("Invalid payload")
		}
		sigB64, err := sigops.Sign(l.id, []byte(cmd.Payload))
		if errors.Is(err, sigops.ErrSigningUnavailable) {
			return Error("Signing unavailable")
		} else if err != nil {
			return Error("Signing failed")
		}
		return SignatureOK(sigB64)

	case KindPubKey:
		return PublicKeyOK(sigops.PublicKeyBase64(l.id))

	case KindVerify:
		if cmd.Malformed {
			return Error("Invalid verify format")
		}
		// Undecodable input is reported as a failed verification, not a
		// protocol error: callers must not be able to tell a bad
		// signature from an unparseable one. Deliberate wire contract,
		// even though it smells like a format oracle.
		if !utf8.ValidString(cmd.Payload) {
			return VerifyResult(false)
		}
		sig, err := base64.StdEncoding.DecodeString(cmd.Signature)
		if err != nil {
			return VerifyResult(false)
		}
		return VerifyResult(sigops.Verify(l.id, []byte(cmd.Payload), sig))

	default:
		return Error("Unknown command")
	}
}
