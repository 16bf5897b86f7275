package protocol

import "strconv"

// Response outcome classes, used by the logging and audit middleware.
const (
	StatusOK    = "OK"
	StatusError = "ERROR"
)

// Response is one formatted output line plus its outcome class.
type Response struct {
	line   string
	status string
}

// SignatureOK formats a successful SIGN response.
func SignatureOK(sigB64 string) Response {
	return Response{line: "SIG:" + sigB64, status: StatusOK}
}

// PublicKeyOK formats a PUBKEY response.
func PublicKeyOK(pubB64 string) Response {
	return Response{line: "PUBKEY:" + pubB64, status: StatusOK}
}

// VerifyResult formats a VERIFY outcome. A false result is still
// StatusOK: verification failure is a result, not an error.
func VerifyResult(valid bool) Response {
	return Response{line: "VALID:" + strconv.FormatBool(valid), status: StatusOK}
}

// Error formats an ERROR response with the given reason.
func Error(reason string) Response {
	return Response{line: "ERROR:" + reason, status: StatusError}
}

// Line returns the wire form of the response.
func (r Response) Line() string { return r.line }

// Status returns the outcome class.
func (r Response) Status() string { return r.status }
