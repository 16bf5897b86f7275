package protocol

import "strings"

// Kind identifies a parsed protocol command.
type Kind int

const (
	KindUnknown Kind = iota
	KindSign
	KindVerify
	KindPubKey
	KindQuit
)

func (k Kind) String() string {
	switch k {
	case KindSign:
		return "SIGN"
	case KindVerify:
		return "VERIFY"
	case KindPubKey:
		return "PUBKEY"
	case KindQuit:
		return "QUIT"
	default:
		return "UNKNOWN"
	}
}

// Command is one parsed request line. Constructed per line, consumed
// immediately, never retained.
type Command struct {
	Kind      Kind
	Payload   string // SIGN payload, or VERIFY data portion
	Signature string // VERIFY base64 signature portion
	Raw       string // trimmed input line, kept for unknown commands
	Malformed bool   // VERIFY remainder did not split into two parts
}

// Parse classifies one input line. Surrounding whitespace is trimmed;
// the payload after a command prefix is taken verbatim.
func Parse(line string) Command {
	line = strings.TrimSpace(line)

	switch {
	case line == "QUIT":
		return Command{Kind: KindQuit, Raw: line}

	case line == "PUBKEY":
		return Command{Kind: KindPubKey, Raw: line}

	case strings.HasPrefix(line, "SIGN:"):
		return Command{
			Kind:    KindSign,
			Payload: strings.TrimPrefix(line, "SIGN:"),
			Raw:     line,
		}

	case strings.HasPrefix(line, "VERIFY:"):
		rest := strings.TrimPrefix(line, "VERIFY:")
		// Split on the first colon only: the data portion runs up to
		// it, the signature is everything after.
		data, sig, found := strings.Cut(rest, ":")
		if !found {
			return Command{Kind: KindVerify, Raw: line, Malformed: true}
		}
		return Command{Kind: KindVerify, Payload: data, Signature: sig, Raw: line}

	default:
		return Command{Kind: KindUnknown, Raw: line}
	}
}
